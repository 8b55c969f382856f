package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/pebbl-lang/pebbl/internal/object"
)

const (
	// StackMax bounds the value stack; exceeding it is a runtime error.
	StackMax = 16384
	// FramesMax bounds call depth.
	FramesMax = 256
)

// RuntimeError is a VM execution failure with its source position.
type RuntimeError struct {
	Message string
	Line    int
	File    string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("runtime error at %s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("runtime error: %s", e.Message)
}

type callFrame struct {
	chunk    *Chunk
	ip       int
	base     int // stack height at entry; RETURN unwinds to here
	savedEnv *object.Environment
}

// VM executes chunks against a shared heap and global environment. A VM may
// run many chunks in sequence (the REPL does); globals persist across runs.
//
// The VM registers itself as a GC root tracer: the value stack, the
// environment chain, and every active frame's constant pool are roots.
type VM struct {
	stack  []object.Value
	frames []callFrame

	heap      *object.Heap
	globalEnv *object.Environment
	env       *object.Environment

	out io.Writer
	err error // sticky; set once, checked after every instruction
}

func New(heap *object.Heap) *VM {
	vm := &VM{
		stack:     make([]object.Value, 0, 256),
		frames:    make([]callFrame, 0, 16),
		heap:      heap,
		globalEnv: object.NewEnvironment(),
		out:       os.Stdout,
	}
	vm.env = vm.globalEnv
	heap.AddRootTracer(vm.traceRoots)
	object.RegisterBuiltins(vm.globalEnv, heap)
	return vm
}

// SetOutput redirects print and friends, primarily for tests and the REPL.
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// RuntimeHeap and Output implement object.Runtime for builtin calls.
func (vm *VM) RuntimeHeap() *object.Heap { return vm.heap }
func (vm *VM) Output() io.Writer         { return vm.out }

// GlobalEnv exposes the persistent global scope.
func (vm *VM) GlobalEnv() *object.Environment { return vm.globalEnv }

func (vm *VM) traceRoots(t *object.Tracer) {
	for _, v := range vm.stack {
		t.MarkValue(v)
	}
	if vm.env != nil {
		vm.env.Trace(t)
	}
	for _, frame := range vm.frames {
		for _, c := range frame.chunk.Constants {
			t.MarkValue(c)
		}
		if frame.savedEnv != nil {
			frame.savedEnv.Trace(t)
		}
	}
}

// Execute runs a chunk to completion. The stack and frames are reset first;
// the global environment is not, so definitions persist between calls.
func (vm *VM) Execute(chunk *Chunk) error {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.err = nil
	vm.env = vm.globalEnv

	vm.frames = append(vm.frames, callFrame{chunk: chunk})
	return vm.run()
}

// Result returns the value left on top of the stack by the last Execute, or
// nil when the stack is empty.
func (vm *VM) Result() object.Value {
	if len(vm.stack) == 0 {
		return object.MakeNull()
	}
	return vm.stack[len(vm.stack)-1]
}

// Err returns the sticky error of the last Execute, if any.
func (vm *VM) Err() error { return vm.err }

func (vm *VM) run() error {
	for len(vm.frames) > 0 {
		frame := &vm.frames[len(vm.frames)-1]
		chunk := frame.chunk

		if frame.ip >= chunk.Len() {
			if len(vm.frames) == 1 {
				break // main program finished
			}
			// Function fell off its chunk without RETURN.
			vm.returnValue(object.MakeNull())
			continue
		}

		at := frame.ip
		inst := chunk.Code[at]
		frame.ip++

		switch inst.Op {
		case OP_LOAD_CONST:
			if int(inst.Operand) >= len(chunk.Constants) {
				vm.runtimeError("invalid constant index %d", inst.Operand)
				break
			}
			vm.push(chunk.Constants[inst.Operand])

		case OP_LOAD_NULL:
			vm.push(object.MakeNull())
		case OP_LOAD_TRUE:
			vm.push(object.MakeBool(true))
		case OP_LOAD_FALSE:
			vm.push(object.MakeBool(false))

		case OP_LOAD_VAR:
			if int(inst.Operand) >= len(chunk.VariableNames) {
				vm.runtimeError("invalid variable index %d", inst.Operand)
				break
			}
			name := chunk.VariableNames[inst.Operand]
			v, ok := vm.env.Get(name)
			if !ok {
				vm.runtimeError("undefined variable '%s'", name)
				break
			}
			vm.push(v)

		case OP_STORE_VAR:
			if int(inst.Operand) >= len(chunk.VariableNames) {
				vm.runtimeError("invalid variable index %d", inst.Operand)
				break
			}
			name := chunk.VariableNames[inst.Operand]
			// The value stays on the stack: assignment is an expression.
			if err := vm.env.Set(name, vm.peek(0)); err != nil {
				vm.runtimeError("cannot assign to variable '%s': %v", name, err)
			}

		case OP_DEFINE_VAR:
			idx := inst.Operand & ^defineMutableFlag
			if int(idx) >= len(chunk.VariableNames) {
				vm.runtimeError("invalid variable index %d", idx)
				break
			}
			mutable := inst.Operand&defineMutableFlag != 0
			vm.env.Define(chunk.VariableNames[idx], vm.pop(), mutable)

		case OP_ADD, OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE:
			vm.binaryArithmetic(inst.Op)

		case OP_NEGATE:
			operand := vm.pop()
			switch {
			case operand.IsInt32():
				vm.push(object.MakeInt32(-operand.AsInt32()))
			case operand.IsDouble():
				vm.push(object.MakeDouble(-operand.AsDouble()))
			default:
				vm.runtimeError("invalid operand for negation: %s", object.TypeName(operand))
			}

		case OP_EQUAL:
			right, left := vm.pop(), vm.pop()
			vm.push(object.MakeBool(object.Equal(left, right)))
		case OP_NOT_EQUAL:
			right, left := vm.pop(), vm.pop()
			vm.push(object.MakeBool(!object.Equal(left, right)))

		case OP_LESS, OP_GREATER, OP_LESS_EQUAL, OP_GREATER_EQUAL:
			vm.binaryComparison(inst.Op)

		case OP_NOT:
			vm.push(object.MakeBool(!object.IsTruthy(vm.pop())))
		case OP_AND:
			right, left := vm.pop(), vm.pop()
			vm.push(object.MakeBool(object.IsTruthy(left) && object.IsTruthy(right)))
		case OP_OR:
			right, left := vm.pop(), vm.pop()
			vm.push(object.MakeBool(object.IsTruthy(left) || object.IsTruthy(right)))

		case OP_JUMP:
			frame.ip = int(inst.Operand)
		case OP_JUMP_IF_FALSE:
			if !object.IsTruthy(vm.pop()) {
				frame.ip = int(inst.Operand)
			}
		case OP_JUMP_IF_TRUE:
			if object.IsTruthy(vm.pop()) {
				frame.ip = int(inst.Operand)
			}

		case OP_CALL:
			vm.call(inst.Operand)
		case OP_RETURN:
			vm.returnValue(vm.pop())

		case OP_BUILD_ARRAY:
			vm.buildArray(int(inst.Operand))
		case OP_BUILD_DICT:
			vm.buildDict(int(inst.Operand))

		case OP_POP:
			vm.pop()
		case OP_DUP:
			vm.push(vm.peek(0))

		case OP_PUSH_ENV:
			vm.env = object.NewEnclosedEnvironment(vm.env)
		case OP_POP_ENV:
			if parent := vm.env.Parent(); parent != nil {
				vm.env = parent
			}

		case OP_HALT:
			return vm.err

		default:
			vm.runtimeError("unknown instruction %d", inst.Op)
		}

		if vm.err != nil {
			if re, ok := vm.err.(*RuntimeError); ok && re.Line == 0 {
				re.Line = chunk.Line(at)
				re.File = chunk.File
			}
			return vm.err
		}
	}
	return vm.err
}

func (vm *VM) binaryArithmetic(op Opcode) {
	right, left := vm.pop(), vm.pop()

	if left.IsInt32() && right.IsInt32() {
		a, b := left.AsInt32(), right.AsInt32()
		switch op {
		case OP_ADD:
			vm.push(object.MakeInt32(a + b))
		case OP_SUBTRACT:
			vm.push(object.MakeInt32(a - b))
		case OP_MULTIPLY:
			vm.push(object.MakeInt32(a * b))
		case OP_DIVIDE:
			// Integer division still produces a float.
			if b == 0 {
				vm.runtimeError("division by zero")
				return
			}
			vm.push(object.MakeDouble(float64(a) / float64(b)))
		}
		return
	}

	if isNumber(left) && isNumber(right) {
		a, b := asNumber(left), asNumber(right)
		switch op {
		case OP_ADD:
			vm.push(object.MakeDouble(a + b))
		case OP_SUBTRACT:
			vm.push(object.MakeDouble(a - b))
		case OP_MULTIPLY:
			vm.push(object.MakeDouble(a * b))
		case OP_DIVIDE:
			if b == 0 {
				vm.runtimeError("division by zero")
				return
			}
			vm.push(object.MakeDouble(a / b))
		}
		return
	}

	// String concatenation rides the ADD opcode.
	if op == OP_ADD {
		ls, lok := asString(left)
		rs, rok := asString(right)
		if lok && rok {
			vm.push(object.MakeGCPtr(vm.heap.AllocString(ls + rs)))
			return
		}
	}

	vm.runtimeError("invalid operands for %s: %s and %s",
		op, object.TypeName(left), object.TypeName(right))
}

func (vm *VM) binaryComparison(op Opcode) {
	right, left := vm.pop(), vm.pop()

	if !isNumber(left) || !isNumber(right) {
		vm.runtimeError("invalid operands for %s: %s and %s",
			op, object.TypeName(left), object.TypeName(right))
		return
	}

	if left.IsInt32() && right.IsInt32() {
		a, b := left.AsInt32(), right.AsInt32()
		vm.push(object.MakeBool(compareOrdered(op, a, b)))
		return
	}
	vm.push(object.MakeBool(compareOrdered(op, asNumber(left), asNumber(right))))
}

func compareOrdered[T int32 | float64](op Opcode, a, b T) bool {
	switch op {
	case OP_LESS:
		return a < b
	case OP_GREATER:
		return a > b
	case OP_LESS_EQUAL:
		return a <= b
	case OP_GREATER_EQUAL:
		return a >= b
	}
	return false
}

func (vm *VM) call(argc uint32) {
	n := int(argc)
	if len(vm.stack) < n+1 {
		vm.runtimeError("stack underflow in call")
		return
	}
	callee := vm.peek(n) // callee sits below the arguments

	if !callee.IsGCPtr() {
		vm.runtimeError("not a function: %s", object.TypeName(callee))
		return
	}

	switch fn := callee.AsGCPtr().(type) {
	case *object.Builtin:
		vm.callBuiltin(fn, n)
	case *CompiledFunction:
		vm.callFunction(fn, n)
	default:
		vm.runtimeError("not a callable object: %s", object.TypeName(callee))
	}
}

func (vm *VM) callBuiltin(fn *object.Builtin, argc int) {
	if fn.Arity != object.Variadic && argc != fn.Arity {
		vm.runtimeError("%s: wrong number of arguments, expected %d, got %d",
			fn.Name, fn.Arity, argc)
		return
	}

	// Arguments stay on the stack during the call so a collection triggered
	// inside the builtin cannot sweep them.
	args := vm.stack[len(vm.stack)-argc:]
	result, err := fn.Fn(args, vm)
	if err != nil {
		vm.runtimeError("%v", err)
		return
	}

	vm.stack = vm.stack[:len(vm.stack)-argc-1] // drop arguments and callee
	vm.push(result)
}

func (vm *VM) callFunction(fn *CompiledFunction, argc int) {
	if argc != fn.Arity() {
		vm.runtimeError("%s: wrong number of arguments, expected %d, got %d",
			fn.Name, fn.Arity(), argc)
		return
	}
	if len(vm.frames) >= FramesMax {
		vm.runtimeError("call stack overflow")
		return
	}

	// Parameters bind in a fresh scope off the globals. Functions see
	// globals and their own locals but not the caller's scope.
	fnEnv := object.NewEnclosedEnvironment(vm.globalEnv)
	args := vm.stack[len(vm.stack)-argc:]
	for i, name := range fn.Parameters {
		fnEnv.Define(name, args[i], true)
	}

	vm.stack = vm.stack[:len(vm.stack)-argc-1] // drop arguments and callee

	vm.frames = append(vm.frames, callFrame{
		chunk:    fn.Chunk,
		base:     len(vm.stack),
		savedEnv: vm.env,
	})
	vm.env = fnEnv
}

// returnValue unwinds the current frame and pushes result for the caller. A
// return in the main program just leaves the value on the stack.
func (vm *VM) returnValue(result object.Value) {
	if len(vm.frames) <= 1 {
		vm.push(result)
		vm.frames = vm.frames[:0]
		return
	}

	frame := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.stack = vm.stack[:frame.base]
	vm.env = frame.savedEnv
	vm.push(result)
}

func (vm *VM) buildArray(count int) {
	if len(vm.stack) < count {
		vm.runtimeError("stack underflow in array literal")
		return
	}

	// Elements stay on the stack while the array is allocated; the
	// allocation may trigger a collection.
	src := vm.stack[len(vm.stack)-count:]
	elements := make([]object.Value, count)
	copy(elements, src)
	arr := vm.heap.AllocArray(elements)

	vm.stack = vm.stack[:len(vm.stack)-count]
	vm.push(object.MakeGCPtr(arr))
}

func (vm *VM) buildDict(pairs int) {
	if len(vm.stack) < pairs*2 {
		vm.runtimeError("stack underflow in dict literal")
		return
	}

	dict := vm.heap.AllocDict()
	src := vm.stack[len(vm.stack)-pairs*2:]
	for i := 0; i < pairs; i++ {
		key, val := src[i*2], src[i*2+1]
		s, ok := asString(key)
		if !ok {
			vm.runtimeError("dictionary keys must be strings, got %s", object.TypeName(key))
			return
		}
		dict.Set(s, val)
	}

	vm.stack = vm.stack[:len(vm.stack)-pairs*2]
	vm.push(object.MakeGCPtr(dict))
}

func (vm *VM) push(v object.Value) {
	if len(vm.stack) >= StackMax {
		vm.runtimeError("stack overflow")
		return
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() object.Value {
	if len(vm.stack) == 0 {
		vm.runtimeError("stack underflow")
		return object.MakeNull()
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) object.Value {
	if distance >= len(vm.stack) {
		vm.runtimeError("stack underflow in peek")
		return object.MakeNull()
	}
	return vm.stack[len(vm.stack)-1-distance]
}

// runtimeError records the first failure; later instructions never run.
func (vm *VM) runtimeError(format string, args ...any) {
	if vm.err != nil {
		return
	}
	vm.err = &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

func isNumber(v object.Value) bool {
	return v.IsInt32() || v.IsDouble()
}

func asNumber(v object.Value) float64 {
	if v.IsInt32() {
		return float64(v.AsInt32())
	}
	return v.AsDouble()
}

func asString(v object.Value) (string, bool) {
	if !v.IsGCPtr() {
		return "", false
	}
	s, ok := v.AsGCPtr().(*object.String)
	if !ok {
		return "", false
	}
	return s.Value, true
}
