package vm

import (
	"fortio.org/safecast"

	"github.com/pebbl-lang/pebbl/internal/object"
)

// Instruction is one fixed-width VM instruction: an opcode and a 32-bit
// operand. Opcodes without an operand leave it zero. Jump operands are
// absolute instruction indices.
type Instruction struct {
	Op      Opcode
	Operand uint32
}

// defineMutableFlag is set on an OP_DEFINE_VAR operand when the binding may
// be reassigned; the low 31 bits are the variable name index.
const defineMutableFlag uint32 = 1 << 31

// Chunk is a compiled instruction sequence with its constant pool and
// variable name table. The main program and every function body compile to
// separate chunks.
type Chunk struct {
	// Code is the instruction sequence
	Code []Instruction

	// Constants pool - literals and nested function chunks
	Constants []object.Value

	// VariableNames backs the name-index operands of the variable opcodes
	VariableNames []string

	// Lines maps instruction index to source line number (for errors)
	Lines []int

	// File is the source file name
	File string
}

func NewChunk(file string) *Chunk {
	return &Chunk{
		Code:      make([]Instruction, 0, 64),
		Constants: make([]object.Value, 0, 16),
		File:      file,
	}
}

// Emit appends an instruction and returns its index.
func (c *Chunk) Emit(op Opcode, operand uint32, line int) int {
	c.Code = append(c.Code, Instruction{Op: op, Operand: operand})
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// AddConstant adds a value to the constant pool and returns its index.
// Identical constants are not deduplicated.
func (c *Chunk) AddConstant(v object.Value) (uint32, error) {
	c.Constants = append(c.Constants, v)
	return safecast.Convert[uint32](len(c.Constants) - 1)
}

// AddVariableName interns a name in the variable table and returns its
// index. Repeated names share one entry.
func (c *Chunk) AddVariableName(name string) (uint32, error) {
	for i, existing := range c.VariableNames {
		if existing == name {
			return safecast.Convert[uint32](i)
		}
	}
	c.VariableNames = append(c.VariableNames, name)
	return safecast.Convert[uint32](len(c.VariableNames) - 1)
}

// VariableName returns the name at index, or "" when out of range.
func (c *Chunk) VariableName(index uint32) string {
	if int(index) >= len(c.VariableNames) {
		return ""
	}
	return c.VariableNames[index]
}

// PatchJump rewrites the operand of a previously emitted jump to target.
func (c *Chunk) PatchJump(at int, target uint32) {
	c.Code[at].Operand = target
}

// Len returns the number of instructions in the chunk.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// Line returns the source line recorded for the instruction at index, or 0.
func (c *Chunk) Line(index int) int {
	if index < 0 || index >= len(c.Lines) {
		return 0
	}
	return c.Lines[index]
}
