package object

import (
	"fmt"
	"testing"
)

func TestCollectSweepsUnreachable(t *testing.T) {
	heap := NewHeap()
	heap.AllocString("a")
	heap.AllocString("b")
	heap.AllocString("c")

	if got := heap.Live(); got != 3 {
		t.Fatalf("Live() = %d before collect, want 3", got)
	}
	heap.Collect()
	if got := heap.Live(); got != 0 {
		t.Errorf("Live() = %d after collect, want 0", got)
	}
}

func TestCollectKeepsNestedContainers(t *testing.T) {
	heap := NewHeap()

	// root -> outer -> middle -> inner -> "leaf", three container levels.
	inner := heap.AllocArray([]Value{MakeGCPtr(heap.AllocString("leaf"))})
	middle := heap.AllocArray([]Value{MakeGCPtr(inner)})
	outer := heap.AllocArray([]Value{MakeGCPtr(middle)})

	root := MakeGCPtr(outer)
	heap.AddRoot(&root)

	heap.Collect()
	if got := heap.Live(); got != 4 {
		t.Fatalf("Live() = %d after collect, want 4", got)
	}

	leaf := outer.Get(0).AsGCPtr().(*Array).Get(0).AsGCPtr().(*Array).Get(0)
	if got := Stringify(leaf); got != "leaf" {
		t.Errorf("leaf contents = %q after collect, want %q", got, "leaf")
	}

	heap.RemoveRoot(&root)
	heap.Collect()
	if got := heap.Live(); got != 0 {
		t.Errorf("Live() = %d after unroot, want 0", got)
	}
}

func TestCollectKeepsDictValues(t *testing.T) {
	heap := NewHeap()

	d := heap.AllocDict()
	root := MakeGCPtr(d)
	heap.AddRoot(&root)

	d.Set("name", MakeGCPtr(heap.AllocString("pebbl")))
	d.Set("count", MakeInt32(2))

	heap.Collect()
	if got := heap.Live(); got != 2 {
		t.Fatalf("Live() = %d after collect, want 2", got)
	}
	if got := Stringify(d.Get("name")); got != "pebbl" {
		t.Errorf("dict value = %q after collect, want %q", got, "pebbl")
	}
}

func TestCollectTerminatesOnCycles(t *testing.T) {
	heap := NewHeap()

	a := heap.AllocArray(nil)
	b := heap.AllocArray(nil)
	a.Push(MakeGCPtr(b))
	b.Push(MakeGCPtr(a))

	root := MakeGCPtr(a)
	heap.AddRoot(&root)

	heap.Collect()
	if got := heap.Live(); got != 2 {
		t.Fatalf("Live() = %d with rooted cycle, want 2", got)
	}

	heap.RemoveRoot(&root)
	heap.Collect()
	if got := heap.Live(); got != 0 {
		t.Errorf("Live() = %d after unrooting cycle, want 0", got)
	}
}

func TestAllocationPinSurvivesTriggeredCollect(t *testing.T) {
	heap := NewHeap()

	// Fill the heap with garbage up to the trigger threshold. The
	// allocation that trips the collector must itself survive it.
	var last *String
	for i := 0; i < initialGCThreshold; i++ {
		last = heap.AllocString(fmt.Sprintf("s%d", i))
	}

	if got := heap.Collections(); got != 1 {
		t.Fatalf("Collections() = %d, want 1", got)
	}
	if got := heap.Live(); got != 1 {
		t.Fatalf("Live() = %d after triggered collect, want 1 (the pinned allocation)", got)
	}
	if last.Value != fmt.Sprintf("s%d", initialGCThreshold-1) {
		t.Errorf("pinned object contents = %q, corrupted by sweep", last.Value)
	}
}

func TestRootTracer(t *testing.T) {
	heap := NewHeap()

	stack := []Value{
		MakeGCPtr(heap.AllocString("bottom")),
		MakeGCPtr(heap.AllocString("top")),
	}
	heap.AddRootTracer(func(tr *Tracer) {
		for _, v := range stack {
			tr.MarkValue(v)
		}
	})

	heap.AllocString("garbage")
	heap.Collect()

	if got := heap.Live(); got != 2 {
		t.Fatalf("Live() = %d with traced stack, want 2", got)
	}

	stack = stack[:0]
	heap.Collect()
	if got := heap.Live(); got != 0 {
		t.Errorf("Live() = %d after clearing traced stack, want 0", got)
	}
}

func TestEnvironmentKeepsBindingsAlive(t *testing.T) {
	heap := NewHeap()
	global := NewEnvironment()
	heap.AddRootTracer(global.Trace)

	global.Define("s", MakeGCPtr(heap.AllocString("kept")), false)

	inner := NewEnclosedEnvironment(global)
	inner.Define("t", MakeGCPtr(heap.AllocString("scoped")), true)
	heap.AddRootTracer(inner.Trace)

	heap.AllocString("garbage")
	heap.Collect()

	if got := heap.Live(); got != 2 {
		t.Errorf("Live() = %d with environment roots, want 2", got)
	}
}
