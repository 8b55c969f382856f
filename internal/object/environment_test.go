package object

import (
	"errors"
	"testing"
)

func TestEnvironmentDefineAndGet(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", MakeInt32(10), false)

	got, ok := env.Get("x")
	if !ok {
		t.Fatalf("Get(%q) reported missing after Define", "x")
	}
	if got.AsInt32() != 10 {
		t.Errorf("Get(%q) = %s, want 10", "x", Stringify(got))
	}

	if _, ok := env.Get("missing"); ok {
		t.Errorf("Get(%q) found a binding that was never defined", "missing")
	}
}

func TestEnvironmentSet(t *testing.T) {
	env := NewEnvironment()
	env.Define("counter", MakeInt32(0), true)
	env.Define("limit", MakeInt32(5), false)

	if err := env.Set("counter", MakeInt32(1)); err != nil {
		t.Fatalf("Set on mutable binding failed: %v", err)
	}
	if got, _ := env.Get("counter"); got.AsInt32() != 1 {
		t.Errorf("counter = %s after Set, want 1", Stringify(got))
	}

	err := env.Set("limit", MakeInt32(6))
	if !errors.Is(err, ErrImmutableBinding) {
		t.Errorf("Set on immutable binding: err = %v, want ErrImmutableBinding", err)
	}

	err = env.Set("nope", MakeInt32(0))
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("Set on undefined name: err = %v, want ErrUndefinedVariable", err)
	}
}

func TestEnvironmentScopeChain(t *testing.T) {
	global := NewEnvironment()
	global.Define("x", MakeInt32(1), true)
	global.Define("y", MakeInt32(2), true)

	inner := NewEnclosedEnvironment(global)
	inner.Define("x", MakeInt32(100), true) // shadows

	if got, _ := inner.Get("x"); got.AsInt32() != 100 {
		t.Errorf("shadowed x = %s in inner scope, want 100", Stringify(got))
	}
	if got, _ := inner.Get("y"); got.AsInt32() != 2 {
		t.Errorf("outer y = %s from inner scope, want 2", Stringify(got))
	}
	if got, _ := global.Get("x"); got.AsInt32() != 1 {
		t.Errorf("global x = %s, want 1 (must not see shadow)", Stringify(got))
	}

	// Assignment through the chain lands on the nearest binding.
	if err := inner.Set("y", MakeInt32(20)); err != nil {
		t.Fatalf("Set through chain failed: %v", err)
	}
	if got, _ := global.Get("y"); got.AsInt32() != 20 {
		t.Errorf("global y = %s after inner Set, want 20", Stringify(got))
	}

	if !inner.Exists("y") {
		t.Errorf("Exists(%q) = false from inner scope", "y")
	}
	if inner.ExistsLocal("y") {
		t.Errorf("ExistsLocal(%q) = true in inner scope, binding lives in global", "y")
	}
}
