package object

import (
	"fmt"

	"github.com/google/uuid"
)

// TypeName returns the language-level type of v, as reported by type().
func TypeName(v Value) string {
	switch {
	case v.IsNull():
		return "nil"
	case v.IsBool():
		return "bool"
	case v.IsInt32():
		return "int"
	case v.IsDouble():
		return "float"
	case v.IsGCPtr():
		switch v.AsGCPtr().Kind() {
		case KindString:
			return "string"
		case KindArray:
			return "array"
		case KindDict:
			return "dict"
		case KindFunction, KindBuiltin:
			return "function"
		}
	}
	return "undefined"
}

// RegisterBuiltins allocates every builtin on heap and binds it immutably in
// env. Both execution engines call this on their global scope.
func RegisterBuiltins(env *Environment, heap *Heap) {
	for _, b := range []*Builtin{
		{Name: "print", Arity: Variadic, Fn: builtinPrint},
		{Name: "length", Arity: 1, Fn: builtinLength},
		{Name: "type", Arity: 1, Fn: builtinType},
		{Name: "str", Arity: 1, Fn: builtinStr},
		{Name: "push", Arity: 2, Fn: builtinPush},
		{Name: "pop", Arity: 1, Fn: builtinPop},
		{Name: "keys", Arity: 1, Fn: builtinKeys},
		{Name: "uuid", Arity: 0, Fn: builtinUUID},
	} {
		heap.AllocBuiltin(b)
		env.Define(b.Name, MakeGCPtr(b), false)
	}
}

func builtinPrint(args []Value, rt Runtime) (Value, error) {
	out := rt.Output()
	for i, arg := range args {
		if i > 0 {
			fmt.Fprint(out, " ")
		}
		fmt.Fprint(out, Stringify(arg))
	}
	fmt.Fprintln(out)
	return MakeNull(), nil
}

func builtinLength(args []Value, rt Runtime) (Value, error) {
	if !args[0].IsGCPtr() {
		return MakeNull(), fmt.Errorf("length: expected string, array or dict, got %s", TypeName(args[0]))
	}
	switch o := args[0].AsGCPtr().(type) {
	case *String:
		return MakeInt32(int32(o.Length())), nil
	case *Array:
		return MakeInt32(int32(o.Length())), nil
	case *Dict:
		return MakeInt32(int32(o.Size())), nil
	}
	return MakeNull(), fmt.Errorf("length: expected string, array or dict, got %s", TypeName(args[0]))
}

func builtinType(args []Value, rt Runtime) (Value, error) {
	return MakeGCPtr(rt.RuntimeHeap().AllocString(TypeName(args[0]))), nil
}

func builtinStr(args []Value, rt Runtime) (Value, error) {
	return MakeGCPtr(rt.RuntimeHeap().AllocString(Stringify(args[0]))), nil
}

func builtinPush(args []Value, rt Runtime) (Value, error) {
	arr, ok := asArray(args[0])
	if !ok {
		return MakeNull(), fmt.Errorf("push: expected array, got %s", TypeName(args[0]))
	}
	arr.Push(args[1])
	return args[0], nil
}

func builtinPop(args []Value, rt Runtime) (Value, error) {
	arr, ok := asArray(args[0])
	if !ok {
		return MakeNull(), fmt.Errorf("pop: expected array, got %s", TypeName(args[0]))
	}
	if arr.Length() == 0 {
		return MakeNull(), fmt.Errorf("pop: array is empty")
	}
	return arr.Pop(), nil
}

func builtinKeys(args []Value, rt Runtime) (Value, error) {
	if !args[0].IsGCPtr() {
		return MakeNull(), fmt.Errorf("keys: expected dict, got %s", TypeName(args[0]))
	}
	d, ok := args[0].AsGCPtr().(*Dict)
	if !ok {
		return MakeNull(), fmt.Errorf("keys: expected dict, got %s", TypeName(args[0]))
	}

	heap := rt.RuntimeHeap()
	out := heap.AllocArray(nil)

	// Root the result while allocating its element strings; each
	// allocation may trigger a collection.
	slot := MakeGCPtr(out)
	heap.AddRoot(&slot)
	defer heap.RemoveRoot(&slot)

	for _, key := range d.Keys() {
		out.Push(MakeGCPtr(heap.AllocString(key)))
	}
	return slot, nil
}

func builtinUUID(args []Value, rt Runtime) (Value, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return MakeNull(), fmt.Errorf("uuid: %w", err)
	}
	return MakeGCPtr(rt.RuntimeHeap().AllocString(id.String())), nil
}

func asArray(v Value) (*Array, bool) {
	if !v.IsGCPtr() {
		return nil, false
	}
	arr, ok := v.AsGCPtr().(*Array)
	return arr, ok
}
