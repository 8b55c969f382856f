package object

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"testing"
)

type testRuntime struct {
	heap *Heap
	env  *Environment
	out  bytes.Buffer
}

func (rt *testRuntime) RuntimeHeap() *Heap { return rt.heap }
func (rt *testRuntime) Output() io.Writer  { return &rt.out }

func newTestRuntime() *testRuntime {
	rt := &testRuntime{heap: NewHeap(), env: NewEnvironment()}
	rt.heap.AddRootTracer(rt.env.Trace)
	RegisterBuiltins(rt.env, rt.heap)
	return rt
}

func callBuiltin(t *testing.T, rt *testRuntime, name string, args ...Value) (Value, error) {
	t.Helper()
	v, ok := rt.env.Get(name)
	if !ok {
		t.Fatalf("builtin %q not registered", name)
	}
	b := v.AsGCPtr().(*Builtin)
	if b.Arity != Variadic && b.Arity != len(args) {
		t.Fatalf("builtin %q arity %d called with %d args", name, b.Arity, len(args))
	}
	return b.Fn(args, rt)
}

func TestBuiltinPrint(t *testing.T) {
	rt := newTestRuntime()
	args := []Value{
		MakeGCPtr(rt.heap.AllocString("hello")),
		MakeInt32(42),
		MakeNull(),
	}
	if _, err := callBuiltin(t, rt, "print", args...); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if got := rt.out.String(); got != "hello 42 nil\n" {
		t.Errorf("print output = %q, want %q", got, "hello 42 nil\n")
	}
}

func TestBuiltinLength(t *testing.T) {
	rt := newTestRuntime()
	heap := rt.heap

	arr := heap.AllocArray([]Value{MakeInt32(1), MakeInt32(2)})
	d := heap.AllocDict()
	d.Set("k", MakeInt32(1))

	tests := []struct {
		name string
		arg  Value
		want int32
	}{
		{"string", MakeGCPtr(heap.AllocString("four")), 4},
		{"array", MakeGCPtr(arr), 2},
		{"dict", MakeGCPtr(d), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := callBuiltin(t, rt, "length", tt.arg)
			if err != nil {
				t.Fatalf("length failed: %v", err)
			}
			if got.AsInt32() != tt.want {
				t.Errorf("length = %s, want %d", Stringify(got), tt.want)
			}
		})
	}

	if _, err := callBuiltin(t, rt, "length", MakeInt32(5)); err == nil {
		t.Errorf("length on int succeeded, want error")
	}
}

func TestBuiltinType(t *testing.T) {
	rt := newTestRuntime()
	heap := rt.heap

	tests := []struct {
		arg  Value
		want string
	}{
		{MakeNull(), "nil"},
		{MakeBool(true), "bool"},
		{MakeInt32(1), "int"},
		{MakeDouble(1.5), "float"},
		{MakeGCPtr(heap.AllocString("s")), "string"},
		{MakeGCPtr(heap.AllocArray(nil)), "array"},
		{MakeGCPtr(heap.AllocDict()), "dict"},
	}
	for _, tt := range tests {
		got, err := callBuiltin(t, rt, "type", tt.arg)
		if err != nil {
			t.Fatalf("type failed: %v", err)
		}
		if Stringify(got) != tt.want {
			t.Errorf("type(%s) = %s, want %s", Stringify(tt.arg), Stringify(got), tt.want)
		}
	}
}

func TestBuiltinStr(t *testing.T) {
	rt := newTestRuntime()
	got, err := callBuiltin(t, rt, "str", MakeDouble(2.5))
	if err != nil {
		t.Fatalf("str failed: %v", err)
	}
	s, ok := got.AsGCPtr().(*String)
	if !ok || s.Value != "2.5" {
		t.Errorf("str(2.5) = %s, want string \"2.5\"", Stringify(got))
	}
}

func TestBuiltinPushPop(t *testing.T) {
	rt := newTestRuntime()
	arr := rt.heap.AllocArray(nil)
	av := MakeGCPtr(arr)

	if _, err := callBuiltin(t, rt, "push", av, MakeInt32(7)); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if arr.Length() != 1 {
		t.Fatalf("array length = %d after push, want 1", arr.Length())
	}

	got, err := callBuiltin(t, rt, "pop", av)
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if got.AsInt32() != 7 {
		t.Errorf("pop = %s, want 7", Stringify(got))
	}

	if _, err := callBuiltin(t, rt, "pop", av); err == nil {
		t.Errorf("pop on empty array succeeded, want error")
	}
	if _, err := callBuiltin(t, rt, "push", MakeInt32(1), MakeInt32(2)); err == nil {
		t.Errorf("push on non-array succeeded, want error")
	}
}

func TestBuiltinKeys(t *testing.T) {
	rt := newTestRuntime()
	d := rt.heap.AllocDict()
	d.Set("b", MakeInt32(2))
	d.Set("a", MakeInt32(1))

	got, err := callBuiltin(t, rt, "keys", MakeGCPtr(d))
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	arr := got.AsGCPtr().(*Array)
	var names []string
	for _, el := range arr.Elements {
		names = append(names, Stringify(el))
	}
	if strings.Join(names, ",") != "a,b" {
		t.Errorf("keys = %v, want sorted [a b]", names)
	}
}

func TestBuiltinUUID(t *testing.T) {
	rt := newTestRuntime()
	got, err := callBuiltin(t, rt, "uuid")
	if err != nil {
		t.Fatalf("uuid failed: %v", err)
	}
	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	if s := Stringify(got); !pattern.MatchString(s) {
		t.Errorf("uuid = %q, not a canonical UUID", s)
	}

	other, _ := callBuiltin(t, rt, "uuid")
	if Stringify(got) == Stringify(other) {
		t.Errorf("two uuid() calls returned the same value")
	}
}
