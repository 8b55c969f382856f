package vm

import (
	"fmt"
	"strings"

	"github.com/pebbl-lang/pebbl/internal/object"
)

// Disassemble returns a human-readable representation of the bytecode,
// followed by the disassembly of every function constant.
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	for i := range chunk.Code {
		disassembleInstruction(&sb, chunk, i)
	}

	for _, c := range chunk.Constants {
		if !c.IsGCPtr() {
			continue
		}
		if fn, ok := c.AsGCPtr().(*CompiledFunction); ok {
			sb.WriteByte('\n')
			sb.WriteString(Disassemble(fn.Chunk, fn.Name))
		}
	}

	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, i int) {
	sb.WriteString(fmt.Sprintf("%04d ", i))

	if i > 0 && chunk.Lines[i] == chunk.Lines[i-1] {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.Lines[i]))
	}

	inst := chunk.Code[i]
	sb.WriteString(fmt.Sprintf("%-14s", inst.Op))

	switch inst.Op {
	case OP_LOAD_CONST:
		if int(inst.Operand) < len(chunk.Constants) {
			sb.WriteString(fmt.Sprintf(" %4d  '%s'", inst.Operand,
				object.Stringify(chunk.Constants[inst.Operand])))
		} else {
			sb.WriteString(fmt.Sprintf(" %4d  <invalid>", inst.Operand))
		}
	case OP_LOAD_VAR, OP_STORE_VAR:
		sb.WriteString(fmt.Sprintf(" %4d  '%s'", inst.Operand, chunk.VariableName(inst.Operand)))
	case OP_DEFINE_VAR:
		idx := inst.Operand & ^defineMutableFlag
		kind := "let"
		if inst.Operand&defineMutableFlag != 0 {
			kind = "var"
		}
		sb.WriteString(fmt.Sprintf(" %4d  '%s' (%s)", idx, chunk.VariableName(idx), kind))
	default:
		if inst.Op.hasOperand() {
			sb.WriteString(fmt.Sprintf(" %4d", inst.Operand))
		}
	}
	sb.WriteByte('\n')
}
