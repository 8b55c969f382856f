package vm

import "github.com/pebbl-lang/pebbl/internal/object"

// CompiledFunction is a user function lowered to bytecode. It lives in the
// constant pool of the chunk that defines it and on the heap like any other
// object; the embedded header makes it collectible.
type CompiledFunction struct {
	object.Header
	Name       string
	Parameters []string
	Chunk      *Chunk
}

func (f *CompiledFunction) Kind() object.Kind { return object.KindFunction }

func (f *CompiledFunction) Inspect() string { return "<function " + f.Name + ">" }

// Trace marks everything the function's constant pool references, including
// nested function constants.
func (f *CompiledFunction) Trace(t *object.Tracer) {
	for _, c := range f.Chunk.Constants {
		t.MarkValue(c)
	}
}

func (f *CompiledFunction) Arity() int { return len(f.Parameters) }
