// Package vm implements the PEBBL bytecode compiler and stack virtual
// machine.
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Constants and literals
	OP_LOAD_CONST Opcode = iota // Push constant pool entry [operand: index]
	OP_LOAD_NULL                // Push nil
	OP_LOAD_TRUE                // Push true
	OP_LOAD_FALSE               // Push false

	// Variables (by name, through the environment chain)
	OP_LOAD_VAR   // Push variable value [operand: name index]
	OP_STORE_VAR  // Assign to existing variable, value stays on stack [operand: name index]
	OP_DEFINE_VAR // Bind new variable from top of stack [operand: name index, mutability in high bit]

	// Arithmetic
	OP_ADD      // +
	OP_SUBTRACT // -
	OP_MULTIPLY // *
	OP_DIVIDE   // / (always produces a float)
	OP_NEGATE   // Unary minus

	// Comparison
	OP_EQUAL         // ==
	OP_NOT_EQUAL     // !=
	OP_LESS          // <
	OP_GREATER       // >
	OP_LESS_EQUAL    // <=
	OP_GREATER_EQUAL // >=

	// Logic (both operands evaluated)
	OP_NOT // !
	OP_AND // &&
	OP_OR  // ||

	// Control flow (absolute instruction targets)
	OP_JUMP          // Unconditional [operand: target]
	OP_JUMP_IF_FALSE // Pop condition, jump when falsy [operand: target]
	OP_JUMP_IF_TRUE  // Pop condition, jump when truthy [operand: target]

	// Calls
	OP_CALL   // Call top-of-stack callee [operand: argument count]
	OP_RETURN // Return top of stack from the current frame

	// Aggregates
	OP_BUILD_ARRAY // Collect N stack values into an array [operand: count]
	OP_BUILD_DICT  // Collect N key/value pairs into a dict [operand: pair count]

	// Stack and scope management
	OP_POP      // Discard top of stack
	OP_DUP      // Duplicate top of stack
	OP_PUSH_ENV // Enter a block scope
	OP_POP_ENV  // Leave a block scope

	OP_HALT // Stop execution
)

var opcodeNames = map[Opcode]string{
	OP_LOAD_CONST:    "LOAD_CONST",
	OP_LOAD_NULL:     "LOAD_NULL",
	OP_LOAD_TRUE:     "LOAD_TRUE",
	OP_LOAD_FALSE:    "LOAD_FALSE",
	OP_LOAD_VAR:      "LOAD_VAR",
	OP_STORE_VAR:     "STORE_VAR",
	OP_DEFINE_VAR:    "DEFINE_VAR",
	OP_ADD:           "ADD",
	OP_SUBTRACT:      "SUBTRACT",
	OP_MULTIPLY:      "MULTIPLY",
	OP_DIVIDE:        "DIVIDE",
	OP_NEGATE:        "NEGATE",
	OP_EQUAL:         "EQUAL",
	OP_NOT_EQUAL:     "NOT_EQUAL",
	OP_LESS:          "LESS",
	OP_GREATER:       "GREATER",
	OP_LESS_EQUAL:    "LESS_EQUAL",
	OP_GREATER_EQUAL: "GREATER_EQUAL",
	OP_NOT:           "NOT",
	OP_AND:           "AND",
	OP_OR:            "OR",
	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_JUMP_IF_TRUE:  "JUMP_IF_TRUE",
	OP_CALL:          "CALL",
	OP_RETURN:        "RETURN",
	OP_BUILD_ARRAY:   "BUILD_ARRAY",
	OP_BUILD_DICT:    "BUILD_DICT",
	OP_POP:           "POP",
	OP_DUP:           "DUP",
	OP_PUSH_ENV:      "PUSH_ENV",
	OP_POP_ENV:       "POP_ENV",
	OP_HALT:          "HALT",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// hasOperand reports whether the disassembler should print the operand.
func (op Opcode) hasOperand() bool {
	switch op {
	case OP_LOAD_CONST, OP_LOAD_VAR, OP_STORE_VAR, OP_DEFINE_VAR,
		OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE,
		OP_CALL, OP_BUILD_ARRAY, OP_BUILD_DICT:
		return true
	}
	return false
}
