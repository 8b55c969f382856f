package object

import (
	"errors"
	"fmt"
)

// ErrUndefinedVariable and ErrImmutableBinding classify environment mutation
// failures; callers wrap them with the variable name and position.
var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrImmutableBinding  = errors.New("cannot assign to immutable binding")
)

type binding struct {
	value   Value
	mutable bool
}

// Environment is a lexical scope: a name-to-binding table with a link to the
// enclosing scope. Lookup and assignment walk the chain outward; definition
// always targets the innermost scope and may shadow outer bindings.
//
// Environments live outside the collected heap. An environment reachable
// from a root (directly or through a function object) keeps the objects its
// bindings reference alive via Trace.
type Environment struct {
	bindings map[string]*binding
	parent   *Environment
}

func NewEnvironment() *Environment {
	return &Environment{bindings: make(map[string]*binding)}
}

// NewEnclosedEnvironment creates a child scope of parent.
func NewEnclosedEnvironment(parent *Environment) *Environment {
	return &Environment{bindings: make(map[string]*binding), parent: parent}
}

// Define introduces a binding in this scope, shadowing any outer binding of
// the same name. Redefinition within the same scope overwrites.
func (e *Environment) Define(name string, v Value, mutable bool) {
	e.bindings[name] = &binding{value: v, mutable: mutable}
}

// Get resolves name through the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.bindings[name]; ok {
			return b.value, true
		}
	}
	return MakeNull(), false
}

// Set assigns to the nearest existing binding of name. It fails for
// undefined names and for immutable bindings.
func (e *Environment) Set(name string, v Value) error {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.bindings[name]; ok {
			if !b.mutable {
				return fmt.Errorf("%w: %s", ErrImmutableBinding, name)
			}
			b.value = v
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUndefinedVariable, name)
}

// Exists reports whether name resolves anywhere in the chain.
func (e *Environment) Exists(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// ExistsLocal reports whether name is bound in this scope alone.
func (e *Environment) ExistsLocal(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Parent returns the enclosing scope, or nil at the global scope.
func (e *Environment) Parent() *Environment { return e.parent }

// Trace marks every object reachable from this scope chain.
func (e *Environment) Trace(t *Tracer) {
	for env := e; env != nil; env = env.parent {
		for _, b := range env.bindings {
			t.MarkValue(b.value)
		}
	}
}
