package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/pebbl-lang/pebbl/internal/object"
)

func compileErr(t *testing.T, input string) CompileErrors {
	t.Helper()
	heap := object.NewHeap()
	_, err := NewCompiler(heap).Compile(parse(t, input))
	if err == nil {
		t.Fatalf("expected compile error for %q", input)
	}
	var errs CompileErrors
	if !errors.As(err, &errs) {
		t.Fatalf("error type = %T, want CompileErrors", err)
	}
	return errs
}

func opsOf(chunk *Chunk) []Opcode {
	ops := make([]Opcode, len(chunk.Code))
	for i, inst := range chunk.Code {
		ops[i] = inst.Op
	}
	return ops
}

func expectOps(t *testing.T, got, want []Opcode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("instruction count = %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	heap := object.NewHeap()
	chunk := compile(t, heap, "1 + 2 * 3;")

	expectOps(t, opsOf(chunk), []Opcode{
		OP_LOAD_CONST, // 1
		OP_LOAD_CONST, // 2
		OP_LOAD_CONST, // 3
		OP_MULTIPLY,
		OP_ADD,
		OP_HALT,
	})
}

func TestCompileIfElseJumps(t *testing.T) {
	heap := object.NewHeap()
	chunk := compile(t, heap, "if true { 1; } else { 2; };")

	condAt, endAt := -1, -1
	for i, inst := range chunk.Code {
		switch inst.Op {
		case OP_JUMP_IF_FALSE:
			condAt = i
		case OP_JUMP:
			endAt = i
		}
	}
	if condAt < 0 || endAt < 0 {
		t.Fatalf("missing jump instructions: %v", opsOf(chunk))
	}
	condTarget := int(chunk.Code[condAt].Operand)
	endTarget := int(chunk.Code[endAt].Operand)
	if condTarget > chunk.Len() || endTarget > chunk.Len() {
		t.Errorf("jump targets out of range: %d, %d (len %d)", condTarget, endTarget, chunk.Len())
	}
	// The else branch starts right after the jump that skips it, and the
	// end target sits past the else branch.
	if condTarget != endAt+1 {
		t.Errorf("else target = %d, want %d (just past the then-branch jump)", condTarget, endAt+1)
	}
	if endTarget <= condTarget {
		t.Errorf("end target %d not past the else entry %d", endTarget, condTarget)
	}
}

func TestCompileWhileLoopShape(t *testing.T) {
	heap := object.NewHeap()
	chunk := compile(t, heap, "var i = 0; while i < 3 { i = i + 1; }")

	var backJump *Instruction
	var exitJump *Instruction
	for i := range chunk.Code {
		inst := &chunk.Code[i]
		switch inst.Op {
		case OP_JUMP:
			if int(inst.Operand) < i {
				backJump = inst
			}
		case OP_JUMP_IF_FALSE:
			exitJump = inst
		}
	}
	if backJump == nil {
		t.Fatalf("no backward jump in loop: %v", opsOf(chunk))
	}
	if exitJump == nil {
		t.Fatalf("no conditional exit in loop: %v", opsOf(chunk))
	}
	// Exit lands just past the backward jump.
	if chunk.Code[exitJump.Operand-1].Op != OP_JUMP {
		t.Errorf("exit target %d does not follow the loop jump", exitJump.Operand)
	}
}

func TestCompileNestedStatementsPop(t *testing.T) {
	heap := object.NewHeap()

	// A global expression result stays; the same statement inside a block
	// is discarded.
	global := compile(t, heap, "1 + 2;")
	for _, inst := range global.Code {
		if inst.Op == OP_POP {
			t.Errorf("global expression statement compiled with POP")
		}
	}

	nested := compile(t, heap, "{ 1 + 2; }")
	found := false
	for _, inst := range nested.Code {
		if inst.Op == OP_POP {
			found = true
		}
	}
	if !found {
		t.Errorf("nested expression statement compiled without POP: %v", opsOf(nested))
	}
}

func TestCompileFunctionConstant(t *testing.T) {
	heap := object.NewHeap()
	chunk := compile(t, heap, "func double(x) { return x * 2; }")

	var fn *CompiledFunction
	for _, c := range chunk.Constants {
		if c.IsGCPtr() {
			if f, ok := c.AsGCPtr().(*CompiledFunction); ok {
				fn = f
			}
		}
	}
	if fn == nil {
		t.Fatalf("no function constant in chunk")
	}
	if fn.Name != "double" || fn.Arity() != 1 {
		t.Errorf("function = %s/%d, want double/1", fn.Name, fn.Arity())
	}

	body := opsOf(fn.Chunk)
	if body[len(body)-1] != OP_RETURN {
		t.Errorf("function body does not end in RETURN: %v", body)
	}
}

func TestCompileVariableNameInterning(t *testing.T) {
	heap := object.NewHeap()
	chunk := compile(t, heap, "var x = 1; x = x + x;")

	if got := len(chunk.VariableNames); got != 1 {
		t.Errorf("variable table has %d entries, want 1: %v", got, chunk.VariableNames)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"for loop", "for x in [1, 2] { print(x); }", "for loops are not supported"},
		{"top-level return", "return 1;", "return outside of function"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := compileErr(t, tt.input)
			if !strings.Contains(errs[0].Message, tt.message) {
				t.Errorf("error = %q, want %q", errs[0].Message, tt.message)
			}
			if errs[0].Line == 0 {
				t.Errorf("error carries no line number")
			}
		})
	}
}

func TestDisassemble(t *testing.T) {
	heap := object.NewHeap()
	chunk := compile(t, heap, `let x = 1; func inc(n) { return n + 1; } inc(x);`)

	out := Disassemble(chunk, "main")
	for _, want := range []string{"== main ==", "LOAD_CONST", "DEFINE_VAR", "'x' (let)", "CALL", "== inc ==", "RETURN"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestCompileDiagnosticsAccumulate(t *testing.T) {
	errs := compileErr(t, "for x in a { }\nreturn 1;\nfor y in b { }")
	if len(errs) != 3 {
		t.Fatalf("got %d diagnostics, want 3: %v", len(errs), errs)
	}
	for i, wantLine := range []int{1, 2, 3} {
		if errs[i].Line != wantLine {
			t.Errorf("diagnostic %d at line %d, want %d", i, errs[i].Line, wantLine)
		}
	}
}

func TestCompileBlockContinuesAfterError(t *testing.T) {
	errs := compileErr(t, "{ for x in a { } return 1; }")
	if len(errs) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(errs), errs)
	}
}
