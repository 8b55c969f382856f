package vm

import (
	"fmt"
	"strings"

	"github.com/pebbl-lang/pebbl/internal/ast"
	"github.com/pebbl-lang/pebbl/internal/object"
	"github.com/pebbl-lang/pebbl/internal/token"
)

// CompileError is a single compile-time diagnostic.
type CompileError struct {
	Message string
	Line    int
}

func (e CompileError) Error() string {
	return fmt.Sprintf("compile error at line %d: %s", e.Line, e.Message)
}

// CompileErrors aggregates every diagnostic of one compilation.
type CompileErrors []CompileError

func (e CompileErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

type scopeType int

const (
	scopeGlobal scopeType = iota
	scopeFunction
	scopeBlock
	scopeLoop
)

type scope struct {
	typ scopeType
}

// Compiler lowers an AST to a chunk. String and function constants are heap
// allocated during compilation; the compiler registers itself as a GC root
// tracer so constant pools stay alive while it holds them.
type Compiler struct {
	heap   *object.Heap
	chunk  *Chunk
	scopes []scope
	errors CompileErrors
	file   string

	chunks []*Chunk // every chunk produced, for root tracing
}

func NewCompiler(heap *object.Heap) *Compiler {
	c := &Compiler{heap: heap}
	heap.AddRootTracer(c.traceRoots)
	return c
}

func (c *Compiler) traceRoots(t *object.Tracer) {
	for _, ch := range c.chunks {
		for _, v := range ch.Constants {
			t.MarkValue(v)
		}
	}
}

// Compile lowers a program to a single chunk ending in HALT. On failure it
// returns every diagnostic collected before compilation stopped.
func (c *Compiler) Compile(program *ast.Program) (*Chunk, error) {
	c.chunk = NewChunk(program.File)
	c.chunks = append(c.chunks, c.chunk)
	c.scopes = c.scopes[:0]
	c.errors = nil
	c.file = program.File

	c.pushScope(scopeGlobal)
	// Compilation continues past errors so one pass reports every bad
	// statement; the chunk is discarded when diagnostics exist.
	for _, stmt := range program.Statements {
		c.compileStatement(stmt)
	}
	c.popScope()

	if len(c.errors) > 0 {
		return nil, c.errors
	}

	c.emit(OP_HALT, 0, 0)
	return c.chunk, nil
}

func (c *Compiler) compileStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		c.compileExpression(s.Expression)
		// Global expression results stay on the stack so the driver can
		// report the program value; nested ones are discarded.
		if !c.inGlobalScope() {
			c.emit(OP_POP, 0, s.GetToken().Line)
		}
	case *ast.VariableStatement:
		c.compileExpression(s.Value)
		idx, err := c.chunk.AddVariableName(s.Name.Name)
		if err != nil {
			c.error(err.Error(), s.GetToken())
			return
		}
		operand := idx
		if s.IsMutable() {
			operand |= defineMutableFlag
		}
		c.emit(OP_DEFINE_VAR, operand, s.GetToken().Line)
	case *ast.ReturnStatement:
		if !c.inFunction() {
			c.error("return outside of function", s.GetToken())
			return
		}
		if s.Value != nil {
			c.compileExpression(s.Value)
		} else {
			c.emit(OP_LOAD_NULL, 0, s.GetToken().Line)
		}
		c.emit(OP_RETURN, 0, s.GetToken().Line)
	case *ast.BlockStatement:
		c.compileBlock(s)
	case *ast.WhileLoop:
		c.compileWhile(s)
	case *ast.ForLoop:
		c.error("for loops are not supported by the bytecode compiler", s.GetToken())
	case *ast.FunctionStatement:
		c.compileFunction(s)
	default:
		c.error(fmt.Sprintf("unknown statement type %T", stmt), stmt.GetToken())
	}
}

func (c *Compiler) compileBlock(block *ast.BlockStatement) {
	c.pushScope(scopeBlock)
	c.emit(OP_PUSH_ENV, 0, block.GetToken().Line)
	for _, stmt := range block.Statements {
		c.compileStatement(stmt)
	}
	c.emit(OP_POP_ENV, 0, block.GetToken().Line)
	c.popScope()
}

func (c *Compiler) compileWhile(loop *ast.WhileLoop) {
	c.pushScope(scopeLoop)

	loopStart := uint32(c.chunk.Len())
	c.compileExpression(loop.Condition)

	exitJump := c.emitJump(OP_JUMP_IF_FALSE, loop.GetToken().Line)
	c.compileBlock(loop.Body)
	c.emit(OP_JUMP, loopStart, loop.GetToken().Line)
	c.patchJumpHere(exitJump)

	c.popScope()
}

func (c *Compiler) compileFunction(fn *ast.FunctionStatement) {
	sub := NewChunk(c.file)
	c.chunks = append(c.chunks, sub)

	saved := c.chunk
	c.chunk = sub
	c.pushScope(scopeFunction)

	for _, stmt := range fn.Body.Statements {
		c.compileStatement(stmt)
	}

	// Implicit nil return when control falls off the end.
	c.emit(OP_LOAD_NULL, 0, fn.GetToken().Line)
	c.emit(OP_RETURN, 0, fn.GetToken().Line)

	c.popScope()
	c.chunk = saved

	if len(c.errors) > 0 {
		return
	}

	params := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		params[i] = p.Name
	}
	compiled := &CompiledFunction{Name: fn.Name.Name, Parameters: params, Chunk: sub}
	c.heap.Adopt(compiled)

	constIdx, err := c.chunk.AddConstant(object.MakeGCPtr(compiled))
	if err != nil {
		c.error(err.Error(), fn.GetToken())
		return
	}
	c.emit(OP_LOAD_CONST, constIdx, fn.GetToken().Line)

	nameIdx, err := c.chunk.AddVariableName(fn.Name.Name)
	if err != nil {
		c.error(err.Error(), fn.GetToken())
		return
	}
	c.emit(OP_DEFINE_VAR, nameIdx, fn.GetToken().Line)
}

func (c *Compiler) compileExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		c.emitConstant(object.MakeInt32(e.Value), e.GetToken())
	case *ast.FloatLiteral:
		c.emitConstant(object.MakeDouble(e.Value), e.GetToken())
	case *ast.StringLiteral:
		s := c.heap.AllocString(e.Value)
		c.emitConstant(object.MakeGCPtr(s), e.GetToken())
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(OP_LOAD_TRUE, 0, e.GetToken().Line)
		} else {
			c.emit(OP_LOAD_FALSE, 0, e.GetToken().Line)
		}
	case *ast.NilLiteral:
		c.emit(OP_LOAD_NULL, 0, e.GetToken().Line)
	case *ast.Identifier:
		idx, err := c.chunk.AddVariableName(e.Name)
		if err != nil {
			c.error(err.Error(), e.GetToken())
			return
		}
		c.emit(OP_LOAD_VAR, idx, e.GetToken().Line)
	case *ast.Binary:
		c.compileBinary(e)
	case *ast.Unary:
		c.compileUnary(e)
	case *ast.Assignment:
		c.compileAssignment(e)
	case *ast.IfElse:
		c.compileIfElse(e)
	case *ast.BlockExpression:
		c.compileBlockExpression(e)
	case *ast.Call:
		c.compileCall(e)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			c.compileExpression(el)
		}
		c.emit(OP_BUILD_ARRAY, uint32(len(e.Elements)), e.GetToken().Line)
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			c.compileExpression(entry.Key)
			c.compileExpression(entry.Value)
		}
		c.emit(OP_BUILD_DICT, uint32(len(e.Entries)), e.GetToken().Line)
	default:
		c.error(fmt.Sprintf("unknown expression type %T", expr), expr.GetToken())
	}
}

var binaryOpcodes = map[token.Type]Opcode{
	token.PLUS:          OP_ADD,
	token.MINUS:         OP_SUBTRACT,
	token.ASTERISK:      OP_MULTIPLY,
	token.SLASH:         OP_DIVIDE,
	token.EQUAL:         OP_EQUAL,
	token.NOT_EQUAL:     OP_NOT_EQUAL,
	token.LESS:          OP_LESS,
	token.GREATER:       OP_GREATER,
	token.LESS_EQUAL:    OP_LESS_EQUAL,
	token.GREATER_EQUAL: OP_GREATER_EQUAL,
	token.AND:           OP_AND,
	token.OR:            OP_OR,
}

func (c *Compiler) compileBinary(e *ast.Binary) {
	c.compileExpression(e.Left)
	c.compileExpression(e.Right)

	op, ok := binaryOpcodes[e.Operator]
	if !ok {
		c.error(fmt.Sprintf("unsupported binary operator %s", e.Operator), e.GetToken())
		return
	}
	c.emit(op, 0, e.GetToken().Line)
}

func (c *Compiler) compileUnary(e *ast.Unary) {
	c.compileExpression(e.Operand)

	switch e.Operator {
	case token.MINUS:
		c.emit(OP_NEGATE, 0, e.GetToken().Line)
	case token.BANG:
		c.emit(OP_NOT, 0, e.GetToken().Line)
	default:
		c.error(fmt.Sprintf("unsupported unary operator %s", e.Operator), e.GetToken())
	}
}

func (c *Compiler) compileAssignment(e *ast.Assignment) {
	c.compileExpression(e.Value)

	target, ok := e.Target.(*ast.Identifier)
	if !ok {
		c.error("invalid assignment target", e.GetToken())
		return
	}
	idx, err := c.chunk.AddVariableName(target.Name)
	if err != nil {
		c.error(err.Error(), e.GetToken())
		return
	}
	// STORE_VAR leaves the value on the stack: assignment is an expression.
	c.emit(OP_STORE_VAR, idx, e.GetToken().Line)
}

func (c *Compiler) compileIfElse(e *ast.IfElse) {
	c.compileExpression(e.Condition)

	elseJump := c.emitJump(OP_JUMP_IF_FALSE, e.GetToken().Line)
	c.compileExpression(e.Then)

	if e.Else != nil {
		endJump := c.emitJump(OP_JUMP, e.GetToken().Line)
		c.patchJumpHere(elseJump)
		c.compileExpression(e.Else)
		c.patchJumpHere(endJump)
	} else {
		// A false condition without an else yields nil.
		endJump := c.emitJump(OP_JUMP, e.GetToken().Line)
		c.patchJumpHere(elseJump)
		c.emit(OP_LOAD_NULL, 0, e.GetToken().Line)
		c.patchJumpHere(endJump)
	}
}

// compileBlockExpression compiles a braced block in expression position. All
// statements run in a fresh scope; the value is the final expression
// statement's result, or nil when the block ends with something else.
func (c *Compiler) compileBlockExpression(e *ast.BlockExpression) {
	c.pushScope(scopeBlock)
	c.emit(OP_PUSH_ENV, 0, e.GetToken().Line)

	stmts := e.Block.Statements
	produced := false
	for i, stmt := range stmts {
		if i == len(stmts)-1 {
			if es, ok := stmt.(*ast.ExpressionStatement); ok {
				c.compileExpression(es.Expression)
				produced = true
				break
			}
		}
		c.compileStatement(stmt)
	}
	if !produced {
		c.emit(OP_LOAD_NULL, 0, e.GetToken().Line)
	}

	c.emit(OP_POP_ENV, 0, e.GetToken().Line)
	c.popScope()
}

func (c *Compiler) compileCall(e *ast.Call) {
	c.compileExpression(e.Callee)
	for _, arg := range e.Arguments {
		c.compileExpression(arg)
	}
	c.emit(OP_CALL, uint32(len(e.Arguments)), e.GetToken().Line)
}

func (c *Compiler) emit(op Opcode, operand uint32, line int) int {
	return c.chunk.Emit(op, operand, line)
}

func (c *Compiler) emitConstant(v object.Value, tok token.Token) {
	idx, err := c.chunk.AddConstant(v)
	if err != nil {
		c.error(err.Error(), tok)
		return
	}
	c.emit(OP_LOAD_CONST, idx, tok.Line)
}

// emitJump emits a jump with a placeholder target and returns its index.
func (c *Compiler) emitJump(op Opcode, line int) int {
	return c.emit(op, 0, line)
}

// patchJumpHere points a previously emitted jump at the next instruction.
func (c *Compiler) patchJumpHere(at int) {
	c.chunk.PatchJump(at, uint32(c.chunk.Len()))
}

func (c *Compiler) pushScope(t scopeType) {
	c.scopes = append(c.scopes, scope{typ: t})
}

func (c *Compiler) popScope() {
	if len(c.scopes) > 0 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

func (c *Compiler) inGlobalScope() bool {
	return len(c.scopes) > 0 && c.scopes[len(c.scopes)-1].typ == scopeGlobal
}

func (c *Compiler) inFunction() bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].typ == scopeFunction {
			return true
		}
	}
	return false
}

func (c *Compiler) error(message string, tok token.Token) {
	c.errors = append(c.errors, CompileError{Message: message, Line: tok.Line})
}
