package object

// initialGCThreshold is the live-object count that triggers the first
// collection; afterwards the threshold tracks twice the surviving set.
const initialGCThreshold = 8

// Heap owns every runtime object and reclaims unreachable ones with a
// stop-the-world mark-and-sweep collector. Objects are threaded on an
// intrusive singly-linked allocation list through their Header.
//
// Reachability starts from registered roots: *Value slots (AddRoot) and
// tracer callbacks (AddRootTracer) that walk structures the heap cannot see,
// such as a VM stack or an environment chain. The object being allocated is
// pinned for the duration of the triggered collection so it cannot be swept
// before the caller stores it anywhere.
type Heap struct {
	objects Obj // allocation list head
	live    int
	nextGC  int

	totalAllocated int
	collections    int

	roots   []*Value
	tracers []func(*Tracer)
	pinned  Obj
}

func NewHeap() *Heap {
	return &Heap{nextGC: initialGCThreshold}
}

// AllocString allocates a string object.
func (h *Heap) AllocString(s string) *String {
	o := &String{Value: s}
	h.adopt(o)
	return o
}

// AllocArray allocates an array object with the given elements. The slice is
// owned by the array afterwards.
func (h *Heap) AllocArray(elements []Value) *Array {
	o := &Array{Elements: elements}
	h.adopt(o)
	return o
}

// AllocDict allocates an empty dict object.
func (h *Heap) AllocDict() *Dict {
	o := &Dict{Entries: make(map[string]Value)}
	h.adopt(o)
	return o
}

// AllocFunction allocates a user-function object.
func (h *Heap) AllocFunction(fn *Function) *Function {
	h.adopt(fn)
	return fn
}

// AllocBuiltin allocates a builtin wrapper object.
func (h *Heap) AllocBuiltin(b *Builtin) *Builtin {
	h.adopt(b)
	return b
}

// Adopt links an externally constructed object variant into the heap so the
// collector manages it like any native kind.
func (h *Heap) Adopt(o Obj) {
	h.adopt(o)
}

func (h *Heap) adopt(o Obj) {
	hd := o.header()
	hd.marked = false
	hd.next = h.objects
	h.objects = o
	h.live++
	h.totalAllocated++

	if h.live >= h.nextGC {
		h.pinned = o
		h.Collect()
		h.pinned = nil
	}
}

// AddRoot registers a Value slot as a GC root. The slot's current contents
// are read at mark time, so mutating it between collections is fine.
func (h *Heap) AddRoot(slot *Value) {
	h.roots = append(h.roots, slot)
}

// RemoveRoot unregisters a previously added slot. Unknown slots are ignored.
func (h *Heap) RemoveRoot(slot *Value) {
	for i, r := range h.roots {
		if r == slot {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// AddRootTracer registers a callback invoked during the mark phase to report
// roots the heap cannot enumerate itself.
func (h *Heap) AddRootTracer(fn func(*Tracer)) {
	h.tracers = append(h.tracers, fn)
}

// Collect runs a full mark-and-sweep cycle and retunes the growth threshold
// to twice the surviving object count.
func (h *Heap) Collect() {
	t := &Tracer{}

	for _, slot := range h.roots {
		if slot.IsGCPtr() {
			t.Mark(slot.AsGCPtr())
		}
	}
	for _, fn := range h.tracers {
		fn(t)
	}
	if h.pinned != nil {
		t.Mark(h.pinned)
	}
	t.drain()

	h.sweep()
	h.collections++

	h.nextGC = h.live * 2
	if h.nextGC < initialGCThreshold {
		h.nextGC = initialGCThreshold
	}
}

func (h *Heap) sweep() {
	var prev Obj
	o := h.objects
	for o != nil {
		hd := o.header()
		next := hd.next
		if hd.marked {
			hd.marked = false
			prev = o
		} else {
			if prev == nil {
				h.objects = next
			} else {
				prev.header().next = next
			}
			hd.next = nil
			h.live--
		}
		o = next
	}
}

// Live returns the number of objects currently on the allocation list.
func (h *Heap) Live() int { return h.live }

// TotalAllocated returns the number of objects ever allocated.
func (h *Heap) TotalAllocated() int { return h.totalAllocated }

// Collections returns how many GC cycles have run.
func (h *Heap) Collections() int { return h.collections }

// Tracer is the mark-phase worklist. Object Trace methods call Mark for each
// reference they hold; marking is idempotent, so cyclic structures terminate.
type Tracer struct {
	worklist []Obj
}

// Mark records an object as reachable and queues it for tracing. Already
// marked objects are skipped.
func (t *Tracer) Mark(o Obj) {
	if o == nil {
		return
	}
	hd := o.header()
	if hd.marked {
		return
	}
	hd.marked = true
	t.worklist = append(t.worklist, o)
}

// MarkValue marks the object behind v, if any.
func (t *Tracer) MarkValue(v Value) {
	if v.IsGCPtr() {
		t.Mark(v.AsGCPtr())
	}
}

func (t *Tracer) drain() {
	for len(t.worklist) > 0 {
		o := t.worklist[len(t.worklist)-1]
		t.worklist = t.worklist[:len(t.worklist)-1]
		o.Trace(t)
	}
}
