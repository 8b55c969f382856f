package object

import (
	"io"
	"sort"
	"strings"

	"github.com/pebbl-lang/pebbl/internal/ast"
)

// Kind is the type tag of a heap object.
type Kind uint8

const (
	KindString Kind = iota
	KindArray
	KindDict
	KindFunction
	KindBuiltin
	// Reserved for the closure/upvalue model; no object types exist for
	// these yet.
	KindClosure
	KindUpvalue
)

// Header is the bookkeeping every heap object carries: the GC mark bit and
// the intrusive link of the heap's allocation list. Object types embed it;
// only the Heap touches its fields.
type Header struct {
	marked bool
	next   Obj
}

func (h *Header) header() *Header { return h }

// Obj is a garbage-collected heap object. Objects are created exclusively
// through the Heap's allocation entry points; the Heap owns their storage and
// reclaims them during sweep once unreachable from all roots.
type Obj interface {
	header() *Header
	Kind() Kind
	// Inspect renders the object for printing.
	Inspect() string
	// Trace reports every Value or object reference this object owns to the
	// collector.
	Trace(t *Tracer)
}

// String is an immutable text buffer. It holds no outgoing references.
type String struct {
	Header
	Value string
}

func (s *String) Kind() Kind      { return KindString }
func (s *String) Inspect() string { return s.Value }
func (s *String) Trace(t *Tracer) {}
func (s *String) Length() int     { return len(s.Value) }

// Array is an ordered, index-addressable sequence of Values.
type Array struct {
	Header
	Elements []Value
}

func (a *Array) Kind() Kind { return KindArray }

func (a *Array) Inspect() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, el := range a.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Stringify(el))
	}
	b.WriteByte(']')
	return b.String()
}

func (a *Array) Trace(t *Tracer) {
	for _, el := range a.Elements {
		if el.IsGCPtr() {
			t.Mark(el.AsGCPtr())
		}
	}
}

func (a *Array) Length() int { return len(a.Elements) }

// Get returns the element at index, or nil when out of bounds.
func (a *Array) Get(index int) Value {
	if index < 0 || index >= len(a.Elements) {
		return MakeNull()
	}
	return a.Elements[index]
}

// Set stores at index, growing the array with nils as needed.
func (a *Array) Set(index int, v Value) {
	if index < 0 {
		return
	}
	for index >= len(a.Elements) {
		a.Elements = append(a.Elements, MakeNull())
	}
	a.Elements[index] = v
}

func (a *Array) Push(v Value) {
	a.Elements = append(a.Elements, v)
}

// Pop removes and returns the last element, or nil when empty.
func (a *Array) Pop() Value {
	if len(a.Elements) == 0 {
		return MakeNull()
	}
	v := a.Elements[len(a.Elements)-1]
	a.Elements = a.Elements[:len(a.Elements)-1]
	return v
}

// Dict maps string keys to Values. Keys are stored by value and are not
// collectible; ordered iteration goes through Keys.
type Dict struct {
	Header
	Entries map[string]Value
}

func (d *Dict) Kind() Kind { return KindDict }

func (d *Dict) Inspect() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for key, val := range d.Entries {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteByte('"')
		b.WriteString(key)
		b.WriteString("\": ")
		b.WriteString(Stringify(val))
	}
	b.WriteByte('}')
	return b.String()
}

func (d *Dict) Trace(t *Tracer) {
	for _, val := range d.Entries {
		if val.IsGCPtr() {
			t.Mark(val.AsGCPtr())
		}
	}
}

func (d *Dict) Size() int { return len(d.Entries) }

// Get returns the value for key, or nil when absent.
func (d *Dict) Get(key string) Value {
	if v, ok := d.Entries[key]; ok {
		return v
	}
	return MakeNull()
}

func (d *Dict) Set(key string, v Value) {
	d.Entries[key] = v
}

func (d *Dict) Has(key string) bool {
	_, ok := d.Entries[key]
	return ok
}

func (d *Dict) Delete(key string) bool {
	if _, ok := d.Entries[key]; !ok {
		return false
	}
	delete(d.Entries, key)
	return true
}

// Keys returns the key set in sorted order, for deterministic iteration.
func (d *Dict) Keys() []string {
	keys := make([]string, 0, len(d.Entries))
	for k := range d.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Function is a user-defined function: its parameter names, the environment
// it closed over, and its AST body. The body is owned by the AST, outside GC
// scope; the environment chain is reference-managed and traced explicitly.
type Function struct {
	Header
	Name       string
	Parameters []string
	Env        *Environment
	Body       *ast.BlockStatement
}

func (f *Function) Kind() Kind      { return KindFunction }
func (f *Function) Inspect() string { return "<function " + f.Name + ">" }

func (f *Function) Trace(t *Tracer) {
	if f.Env != nil {
		f.Env.Trace(t)
	}
}

func (f *Function) Arity() int { return len(f.Parameters) }

// Variadic is the arity sentinel for builtins accepting any argument count.
const Variadic = -1

// Runtime is the handle passed to native functions: the services a builtin
// may use without depending on a concrete interpreter or VM.
type Runtime interface {
	RuntimeHeap() *Heap
	Output() io.Writer
}

// NativeFn is the signature of a builtin implementation.
type NativeFn func(args []Value, rt Runtime) (Value, error)

// Builtin wraps a native Go function as a callable heap object.
type Builtin struct {
	Header
	Name  string
	Arity int // parameter count, or Variadic
	Fn    NativeFn
}

func (b *Builtin) Kind() Kind      { return KindBuiltin }
func (b *Builtin) Inspect() string { return "<builtin " + b.Name + ">" }
func (b *Builtin) Trace(t *Tracer) {}
