// Package token defines the lexical tokens of the PEBBL language.
package token

type Type uint8

const (
	ILLEGAL Type = iota
	EOF

	// Delimiters
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	DOT
	COLON
	SEMICOLON

	// Operators
	PLUS
	MINUS
	ASTERISK
	SLASH
	BANG
	ASSIGN
	EQUAL
	NOT_EQUAL
	LESS
	GREATER
	LESS_EQUAL
	GREATER_EQUAL
	AND
	OR

	// Literals and identifiers
	IDENTIFIER
	STRING
	INTEGER
	FLOAT

	// Keywords
	IF
	ELSE
	TRUE
	FALSE
	FOR
	IN
	WHILE
	FUNC
	RETURN
	LET
	VAR
	NIL
)

var names = map[Type]string{
	ILLEGAL:       "ILLEGAL",
	EOF:           "EOF",
	LPAREN:        "(",
	RPAREN:        ")",
	LBRACE:        "{",
	RBRACE:        "}",
	LBRACKET:      "[",
	RBRACKET:      "]",
	COMMA:         ",",
	DOT:           ".",
	COLON:         ":",
	SEMICOLON:     ";",
	PLUS:          "+",
	MINUS:         "-",
	ASTERISK:      "*",
	SLASH:         "/",
	BANG:          "!",
	ASSIGN:        "=",
	EQUAL:         "==",
	NOT_EQUAL:     "!=",
	LESS:          "<",
	GREATER:       ">",
	LESS_EQUAL:    "<=",
	GREATER_EQUAL: ">=",
	AND:           "&&",
	OR:            "||",
	IDENTIFIER:    "IDENTIFIER",
	STRING:        "STRING",
	INTEGER:       "INTEGER",
	FLOAT:         "FLOAT",
	IF:            "if",
	ELSE:          "else",
	TRUE:          "true",
	FALSE:         "false",
	FOR:           "for",
	IN:            "in",
	WHILE:         "while",
	FUNC:          "func",
	RETURN:        "return",
	LET:           "let",
	VAR:           "var",
	NIL:           "nil",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// Token is a single lexical unit with its source position.
type Token struct {
	Type   Type
	Lexeme string
	Line   int
	Column int
}

var keywords = map[string]Type{
	"if":     IF,
	"else":   ELSE,
	"true":   TRUE,
	"false":  FALSE,
	"for":    FOR,
	"in":     IN,
	"while":  WHILE,
	"func":   FUNC,
	"return": RETURN,
	"let":    LET,
	"var":    VAR,
	"nil":    NIL,
}

// LookupIdentifier maps an identifier to its keyword token type, or IDENTIFIER
// if it is not a reserved word.
func LookupIdentifier(name string) Type {
	if t, ok := keywords[name]; ok {
		return t
	}
	return IDENTIFIER
}
