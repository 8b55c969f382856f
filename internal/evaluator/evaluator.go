// Package evaluator implements the tree-walking PEBBL interpreter. It shares
// the value representation, heap and environment model with the bytecode
// virtual machine and is the reference for the language's semantics.
package evaluator

import (
	"fmt"
	"io"
	"os"

	"github.com/pebbl-lang/pebbl/internal/ast"
	"github.com/pebbl-lang/pebbl/internal/object"
	"github.com/pebbl-lang/pebbl/internal/token"
)

// Error is an evaluation failure with its source position.
type Error struct {
	Message string
	Line    int
	File    string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("runtime error at %s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("runtime error: %s", e.Message)
}

// Interpreter walks the AST directly. Globals persist across Run calls, so
// one interpreter can serve a whole REPL session.
type Interpreter struct {
	heap      *object.Heap
	globalEnv *object.Environment
	env       *object.Environment
	out       io.Writer
	file      string

	hasReturn   bool
	returnValue object.Value

	// temps guards values evaluated but not yet stored anywhere reachable,
	// such as array elements mid-literal and call arguments.
	temps []*[]object.Value
}

func New(heap *object.Heap) *Interpreter {
	i := &Interpreter{
		heap:        heap,
		globalEnv:   object.NewEnvironment(),
		out:         os.Stdout,
		returnValue: object.MakeNull(),
	}
	i.env = i.globalEnv
	heap.AddRootTracer(i.traceRoots)
	object.RegisterBuiltins(i.globalEnv, heap)
	return i
}

// SetOutput redirects print and friends, primarily for tests and the REPL.
func (i *Interpreter) SetOutput(w io.Writer) { i.out = w }

// RuntimeHeap and Output implement object.Runtime for builtin calls.
func (i *Interpreter) RuntimeHeap() *object.Heap { return i.heap }
func (i *Interpreter) Output() io.Writer         { return i.out }

// GlobalEnv exposes the persistent global scope.
func (i *Interpreter) GlobalEnv() *object.Environment { return i.globalEnv }

func (i *Interpreter) traceRoots(t *object.Tracer) {
	i.globalEnv.Trace(t)
	if i.env != i.globalEnv {
		i.env.Trace(t)
	}
	t.MarkValue(i.returnValue)
	for _, temp := range i.temps {
		for _, v := range *temp {
			t.MarkValue(v)
		}
	}
}

// Run executes a program and returns the value of its last statement.
func (i *Interpreter) Run(program *ast.Program) (object.Value, error) {
	i.file = program.File
	i.hasReturn = false
	i.returnValue = object.MakeNull()

	result := object.MakeNull()
	for _, stmt := range program.Statements {
		var err error
		result, err = i.execute(stmt)
		if err != nil {
			return object.MakeNull(), err
		}
		if i.hasReturn {
			i.hasReturn = false
			return object.MakeNull(), i.errorf(stmt.GetToken(), "return outside of function")
		}
	}
	return result, nil
}

func (i *Interpreter) execute(stmt ast.Statement) (object.Value, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return i.evaluate(s.Expression)

	case *ast.VariableStatement:
		value, err := i.evaluate(s.Value)
		if err != nil {
			return object.MakeNull(), err
		}
		i.env.Define(s.Name.Name, value, s.IsMutable())
		return object.MakeNull(), nil

	case *ast.ReturnStatement:
		value := object.MakeNull()
		if s.Value != nil {
			var err error
			value, err = i.evaluate(s.Value)
			if err != nil {
				return object.MakeNull(), err
			}
		}
		i.hasReturn = true
		i.returnValue = value
		return value, nil

	case *ast.BlockStatement:
		return i.executeBlock(s, object.NewEnclosedEnvironment(i.env))

	case *ast.WhileLoop:
		return i.executeWhile(s)

	case *ast.ForLoop:
		return i.executeFor(s)

	case *ast.FunctionStatement:
		return i.executeFunction(s)

	default:
		return object.MakeNull(), i.errorf(stmt.GetToken(), "unknown statement type %T", stmt)
	}
}

// executeBlock runs statements in env, restoring the previous scope on exit.
// The block's value is the value of the last statement that ran.
func (i *Interpreter) executeBlock(block *ast.BlockStatement, env *object.Environment) (object.Value, error) {
	prev := i.env
	i.env = env
	defer func() { i.env = prev }()

	result := object.MakeNull()
	for _, stmt := range block.Statements {
		var err error
		result, err = i.execute(stmt)
		if err != nil {
			return object.MakeNull(), err
		}
		if i.hasReturn {
			break
		}
	}
	return result, nil
}

func (i *Interpreter) executeWhile(loop *ast.WhileLoop) (object.Value, error) {
	result := object.MakeNull()
	for {
		cond, err := i.evaluate(loop.Condition)
		if err != nil {
			return object.MakeNull(), err
		}
		if !object.IsTruthy(cond) {
			return result, nil
		}

		result, err = i.execute(loop.Body)
		if err != nil {
			return object.MakeNull(), err
		}
		if i.hasReturn {
			return result, nil
		}
	}
}

// executeFor iterates array elements or dict keys. Dict keys visit in sorted
// order so iteration is deterministic.
func (i *Interpreter) executeFor(loop *ast.ForLoop) (object.Value, error) {
	iterable, err := i.evaluate(loop.Iterable)
	if err != nil {
		return object.MakeNull(), err
	}
	if iterable.IsNull() {
		return object.MakeNull(), i.errorf(loop.GetToken(), "cannot iterate over nil")
	}
	if !iterable.IsGCPtr() {
		return object.MakeNull(), i.errorf(loop.GetToken(), "%s is not iterable", object.TypeName(iterable))
	}

	prev := i.env
	i.env = object.NewEnclosedEnvironment(prev)
	defer func() { i.env = prev }()

	bind := func(v object.Value) {
		i.env.Define(loop.Variable.Name, v, true)
	}

	result := object.MakeNull()
	switch obj := iterable.AsGCPtr().(type) {
	case *object.Array:
		for _, element := range obj.Elements {
			bind(element)
			result, err = i.execute(loop.Body)
			if err != nil {
				return object.MakeNull(), err
			}
			if i.hasReturn {
				break
			}
		}
	case *object.Dict:
		for _, key := range obj.Keys() {
			bind(object.MakeGCPtr(i.heap.AllocString(key)))
			result, err = i.execute(loop.Body)
			if err != nil {
				return object.MakeNull(), err
			}
			if i.hasReturn {
				break
			}
		}
	default:
		return object.MakeNull(), i.errorf(loop.GetToken(), "%s is not iterable", object.TypeName(iterable))
	}
	return result, nil
}

// executeFunction binds a function object closing over the defining scope.
// The binding is immutable.
func (i *Interpreter) executeFunction(stmt *ast.FunctionStatement) (object.Value, error) {
	params := make([]string, len(stmt.Parameters))
	for idx, p := range stmt.Parameters {
		params[idx] = p.Name
	}

	fn := i.heap.AllocFunction(&object.Function{
		Name:       stmt.Name.Name,
		Parameters: params,
		Env:        i.env,
		Body:       stmt.Body,
	})
	i.env.Define(stmt.Name.Name, object.MakeGCPtr(fn), false)
	return object.MakeNull(), nil
}

func (i *Interpreter) evaluate(expr ast.Expression) (object.Value, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return object.MakeInt32(e.Value), nil
	case *ast.FloatLiteral:
		return object.MakeDouble(e.Value), nil
	case *ast.StringLiteral:
		return object.MakeGCPtr(i.heap.AllocString(e.Value)), nil
	case *ast.BooleanLiteral:
		return object.MakeBool(e.Value), nil
	case *ast.NilLiteral:
		return object.MakeNull(), nil

	case *ast.Identifier:
		v, ok := i.env.Get(e.Name)
		if !ok {
			return object.MakeNull(), i.errorf(e.GetToken(), "undefined variable '%s'", e.Name)
		}
		return v, nil

	case *ast.Binary:
		return i.evaluateBinary(e)
	case *ast.Unary:
		return i.evaluateUnary(e)
	case *ast.Assignment:
		return i.evaluateAssignment(e)
	case *ast.IfElse:
		return i.evaluateIfElse(e)
	case *ast.BlockExpression:
		return i.executeBlock(e.Block, object.NewEnclosedEnvironment(i.env))
	case *ast.Call:
		return i.evaluateCall(e)
	case *ast.ArrayLiteral:
		return i.evaluateArrayLiteral(e)
	case *ast.DictLiteral:
		return i.evaluateDictLiteral(e)

	default:
		return object.MakeNull(), i.errorf(expr.GetToken(), "unknown expression type %T", expr)
	}
}

func (i *Interpreter) evaluateBinary(e *ast.Binary) (object.Value, error) {
	left, err := i.evaluate(e.Left)
	if err != nil {
		return object.MakeNull(), err
	}
	// The left value must survive a collection triggered while evaluating
	// the right side.
	guard := []object.Value{left}
	i.pushTemps(&guard)
	right, err := i.evaluate(e.Right)
	i.popTemps()
	if err != nil {
		return object.MakeNull(), err
	}

	switch e.Operator {
	case token.PLUS, token.MINUS, token.ASTERISK, token.SLASH:
		return i.arithmetic(e, left, right)

	case token.EQUAL:
		return object.MakeBool(object.Equal(left, right)), nil
	case token.NOT_EQUAL:
		return object.MakeBool(!object.Equal(left, right)), nil

	case token.LESS, token.GREATER, token.LESS_EQUAL, token.GREATER_EQUAL:
		if !isNumber(left) || !isNumber(right) {
			return object.MakeNull(), i.errorf(e.GetToken(), "invalid operands for %s: %s and %s",
				e.Token.Lexeme, object.TypeName(left), object.TypeName(right))
		}
		if left.IsInt32() && right.IsInt32() {
			return object.MakeBool(compareInt32(e.Operator, left.AsInt32(), right.AsInt32())), nil
		}
		return object.MakeBool(compareFloat(e.Operator, asNumber(left), asNumber(right))), nil

	case token.AND:
		return object.MakeBool(object.IsTruthy(left) && object.IsTruthy(right)), nil
	case token.OR:
		return object.MakeBool(object.IsTruthy(left) || object.IsTruthy(right)), nil
	}

	return object.MakeNull(), i.errorf(e.GetToken(), "unknown binary operator %s", e.Token.Lexeme)
}

// arithmetic applies numeric promotion: int op int stays int except for
// division, which always produces a float; any float operand promotes both
// sides. + also concatenates strings.
func (i *Interpreter) arithmetic(e *ast.Binary, left, right object.Value) (object.Value, error) {
	if left.IsInt32() && right.IsInt32() {
		a, b := left.AsInt32(), right.AsInt32()
		switch e.Operator {
		case token.PLUS:
			return object.MakeInt32(a + b), nil
		case token.MINUS:
			return object.MakeInt32(a - b), nil
		case token.ASTERISK:
			return object.MakeInt32(a * b), nil
		case token.SLASH:
			if b == 0 {
				return object.MakeNull(), i.errorf(e.GetToken(), "division by zero")
			}
			return object.MakeDouble(float64(a) / float64(b)), nil
		}
	}

	if isNumber(left) && isNumber(right) {
		a, b := asNumber(left), asNumber(right)
		switch e.Operator {
		case token.PLUS:
			return object.MakeDouble(a + b), nil
		case token.MINUS:
			return object.MakeDouble(a - b), nil
		case token.ASTERISK:
			return object.MakeDouble(a * b), nil
		case token.SLASH:
			if b == 0 {
				return object.MakeNull(), i.errorf(e.GetToken(), "division by zero")
			}
			return object.MakeDouble(a / b), nil
		}
	}

	if e.Operator == token.PLUS {
		ls, lok := asString(left)
		rs, rok := asString(right)
		if lok && rok {
			return object.MakeGCPtr(i.heap.AllocString(ls + rs)), nil
		}
	}

	return object.MakeNull(), i.errorf(e.GetToken(), "invalid operands for %s: %s and %s",
		e.Token.Lexeme, object.TypeName(left), object.TypeName(right))
}

func (i *Interpreter) evaluateUnary(e *ast.Unary) (object.Value, error) {
	operand, err := i.evaluate(e.Operand)
	if err != nil {
		return object.MakeNull(), err
	}

	switch e.Operator {
	case token.MINUS:
		switch {
		case operand.IsInt32():
			return object.MakeInt32(-operand.AsInt32()), nil
		case operand.IsDouble():
			return object.MakeDouble(-operand.AsDouble()), nil
		}
		return object.MakeNull(), i.errorf(e.GetToken(), "invalid operand for unary -: %s", object.TypeName(operand))
	case token.BANG:
		return object.MakeBool(!object.IsTruthy(operand)), nil
	}
	return object.MakeNull(), i.errorf(e.GetToken(), "unknown unary operator %s", e.Token.Lexeme)
}

func (i *Interpreter) evaluateAssignment(e *ast.Assignment) (object.Value, error) {
	value, err := i.evaluate(e.Value)
	if err != nil {
		return object.MakeNull(), err
	}

	target, ok := e.Target.(*ast.Identifier)
	if !ok {
		return object.MakeNull(), i.errorf(e.GetToken(), "invalid assignment target")
	}
	if err := i.env.Set(target.Name, value); err != nil {
		return object.MakeNull(), i.errorf(e.GetToken(), "cannot assign to variable '%s': %v", target.Name, err)
	}
	return value, nil
}

func (i *Interpreter) evaluateIfElse(e *ast.IfElse) (object.Value, error) {
	cond, err := i.evaluate(e.Condition)
	if err != nil {
		return object.MakeNull(), err
	}

	if object.IsTruthy(cond) {
		return i.evaluate(e.Then)
	}
	if e.Else != nil {
		return i.evaluate(e.Else)
	}
	return object.MakeNull(), nil
}

func (i *Interpreter) evaluateArrayLiteral(e *ast.ArrayLiteral) (object.Value, error) {
	elements := make([]object.Value, 0, len(e.Elements))
	i.pushTemps(&elements)
	defer i.popTemps()

	for _, el := range e.Elements {
		v, err := i.evaluate(el)
		if err != nil {
			return object.MakeNull(), err
		}
		elements = append(elements, v)
	}
	return object.MakeGCPtr(i.heap.AllocArray(elements)), nil
}

func (i *Interpreter) evaluateDictLiteral(e *ast.DictLiteral) (object.Value, error) {
	pairs := make([]object.Value, 0, len(e.Entries)*2)
	i.pushTemps(&pairs)
	defer i.popTemps()

	for _, entry := range e.Entries {
		key, err := i.evaluate(entry.Key)
		if err != nil {
			return object.MakeNull(), err
		}
		if _, ok := asString(key); !ok {
			return object.MakeNull(), i.errorf(e.GetToken(), "dictionary keys must be strings, got %s", object.TypeName(key))
		}
		pairs = append(pairs, key)

		value, err := i.evaluate(entry.Value)
		if err != nil {
			return object.MakeNull(), err
		}
		pairs = append(pairs, value)
	}

	dict := i.heap.AllocDict()
	for idx := 0; idx < len(pairs); idx += 2 {
		key, _ := asString(pairs[idx])
		dict.Set(key, pairs[idx+1])
	}
	return object.MakeGCPtr(dict), nil
}

func (i *Interpreter) evaluateCall(e *ast.Call) (object.Value, error) {
	callee, err := i.evaluate(e.Callee)
	if err != nil {
		return object.MakeNull(), err
	}
	if !callee.IsGCPtr() {
		return object.MakeNull(), i.errorf(e.GetToken(), "not a function: %s", object.TypeName(callee))
	}

	// Arguments and the callee stay rooted until the call completes.
	args := make([]object.Value, 0, len(e.Arguments)+1)
	args = append(args, callee)
	i.pushTemps(&args)
	defer i.popTemps()

	for _, arg := range e.Arguments {
		v, err := i.evaluate(arg)
		if err != nil {
			return object.MakeNull(), err
		}
		args = append(args, v)
	}
	args = args[1:]

	switch fn := callee.AsGCPtr().(type) {
	case *object.Builtin:
		if fn.Arity != object.Variadic && len(args) != fn.Arity {
			return object.MakeNull(), i.errorf(e.GetToken(), "%s: wrong number of arguments, expected %d, got %d",
				fn.Name, fn.Arity, len(args))
		}
		result, err := fn.Fn(args, i)
		if err != nil {
			return object.MakeNull(), i.errorf(e.GetToken(), "%v", err)
		}
		return result, nil

	case *object.Function:
		return i.callFunction(e, fn, args)

	default:
		return object.MakeNull(), i.errorf(e.GetToken(), "not a callable object: %s", object.TypeName(callee))
	}
}

func (i *Interpreter) callFunction(e *ast.Call, fn *object.Function, args []object.Value) (object.Value, error) {
	if len(args) != fn.Arity() {
		return object.MakeNull(), i.errorf(e.GetToken(), "%s: wrong number of arguments, expected %d, got %d",
			fn.Name, fn.Arity(), len(args))
	}

	callEnv := object.NewEnclosedEnvironment(fn.Env)
	for idx, name := range fn.Parameters {
		callEnv.Define(name, args[idx], true)
	}

	prevEnv := i.env
	prevReturn := i.hasReturn
	prevValue := i.returnValue
	i.env = callEnv
	i.hasReturn = false
	i.returnValue = object.MakeNull()

	defer func() {
		i.env = prevEnv
		i.hasReturn = prevReturn
		i.returnValue = prevValue
	}()

	for _, stmt := range fn.Body.Statements {
		if _, err := i.execute(stmt); err != nil {
			return object.MakeNull(), err
		}
		if i.hasReturn {
			return i.returnValue, nil
		}
	}
	// Falling off the end returns nil.
	return object.MakeNull(), nil
}

func (i *Interpreter) pushTemps(slot *[]object.Value) {
	i.temps = append(i.temps, slot)
}

func (i *Interpreter) popTemps() {
	i.temps = i.temps[:len(i.temps)-1]
}

func (i *Interpreter) errorf(tok token.Token, format string, args ...any) error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		File:    i.file,
	}
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

func compareInt32(op token.Type, a, b int32) bool {
	switch op {
	case token.LESS:
		return a < b
	case token.GREATER:
		return a > b
	case token.LESS_EQUAL:
		return a <= b
	case token.GREATER_EQUAL:
		return a >= b
	}
	return false
}

func compareFloat(op token.Type, a, b float64) bool {
	switch op {
	case token.LESS:
		return a < b
	case token.GREATER:
		return a > b
	case token.LESS_EQUAL:
		return a <= b
	case token.GREATER_EQUAL:
		return a >= b
	}
	return false
}
