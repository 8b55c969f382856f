package lexer

import (
	"testing"

	"github.com/pebbl-lang/pebbl/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `let five = 5;
var pi = 3.14;
func add(a, b) { return a + b; }
if (five <= 10 && pi != 3) { print("ok\n"); } else { five = five - 1; }
[1, 2]; {"k": nil};
while (!false || true) { five * 2 / 1; }
for (x in items) {}
`

	tests := []struct {
		typ    token.Type
		lexeme string
	}{
		{token.LET, "let"},
		{token.IDENTIFIER, "five"},
		{token.ASSIGN, "="},
		{token.INTEGER, "5"},
		{token.SEMICOLON, ";"},

		{token.VAR, "var"},
		{token.IDENTIFIER, "pi"},
		{token.ASSIGN, "="},
		{token.FLOAT, "3.14"},
		{token.SEMICOLON, ";"},

		{token.FUNC, "func"},
		{token.IDENTIFIER, "add"},
		{token.LPAREN, "("},
		{token.IDENTIFIER, "a"},
		{token.COMMA, ","},
		{token.IDENTIFIER, "b"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENTIFIER, "a"},
		{token.PLUS, "+"},
		{token.IDENTIFIER, "b"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},

		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENTIFIER, "five"},
		{token.LESS_EQUAL, "<="},
		{token.INTEGER, "10"},
		{token.AND, "&&"},
		{token.IDENTIFIER, "pi"},
		{token.NOT_EQUAL, "!="},
		{token.INTEGER, "3"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENTIFIER, "print"},
		{token.LPAREN, "("},
		{token.STRING, "ok\n"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.IDENTIFIER, "five"},
		{token.ASSIGN, "="},
		{token.IDENTIFIER, "five"},
		{token.MINUS, "-"},
		{token.INTEGER, "1"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},

		{token.LBRACKET, "["},
		{token.INTEGER, "1"},
		{token.COMMA, ","},
		{token.INTEGER, "2"},
		{token.RBRACKET, "]"},
		{token.SEMICOLON, ";"},
		{token.LBRACE, "{"},
		{token.STRING, "k"},
		{token.COLON, ":"},
		{token.NIL, "nil"},
		{token.RBRACE, "}"},
		{token.SEMICOLON, ";"},

		{token.WHILE, "while"},
		{token.LPAREN, "("},
		{token.BANG, "!"},
		{token.FALSE, "false"},
		{token.OR, "||"},
		{token.TRUE, "true"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENTIFIER, "five"},
		{token.ASTERISK, "*"},
		{token.INTEGER, "2"},
		{token.SLASH, "/"},
		{token.INTEGER, "1"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},

		{token.FOR, "for"},
		{token.LPAREN, "("},
		{token.IDENTIFIER, "x"},
		{token.IN, "in"},
		{token.IDENTIFIER, "items"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},

		{token.EOF, ""},
	}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want.typ {
			t.Fatalf("token %d: type = %v, want %v (lexeme %q)", i, tok.Type, want.typ, tok.Lexeme)
		}
		if tok.Lexeme != want.lexeme {
			t.Fatalf("token %d: lexeme = %q, want %q", i, tok.Lexeme, want.lexeme)
		}
	}
}

func TestPositions(t *testing.T) {
	input := "let x = 1;\n  x = 2;"
	toks := Tokenize(input)

	// let on line 1, the indented x on line 2 column 3.
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("let at %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	if toks[5].Lexeme != "x" || toks[5].Line != 2 || toks[5].Column != 3 {
		t.Errorf("x at %d:%d, want 2:3", toks[5].Line, toks[5].Column)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	input := "// leading\nlet x = 1; // trailing\n// only\n"
	toks := Tokenize(input)

	want := []token.Type{token.LET, token.IDENTIFIER, token.ASSIGN, token.INTEGER, token.SEMICOLON, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token %d: type = %v, want %v", i, toks[i].Type, typ)
		}
	}
	if toks[0].Line != 2 {
		t.Errorf("let at line %d, want 2", toks[0].Line)
	}
}

func TestStringEscapes(t *testing.T) {
	toks := Tokenize(`"a\tb\\c\"d"`)
	if toks[0].Type != token.STRING {
		t.Fatalf("type = %v, want STRING", toks[0].Type)
	}
	if toks[0].Lexeme != "a\tb\\c\"d" {
		t.Errorf("lexeme = %q", toks[0].Lexeme)
	}
}

func TestIllegalTokens(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"@", "@"},
		{"1 & 2", "&"},
		{`"open`, "unterminated string"},
	}
	for _, tt := range tests {
		toks := Tokenize(tt.input)
		found := false
		for _, tok := range toks {
			if tok.Type == token.ILLEGAL && tok.Lexeme == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("Tokenize(%q): no ILLEGAL token %q", tt.input, tt.want)
		}
	}
}

func TestNumberFollowedByDot(t *testing.T) {
	// A dot with no digit after it stays a separate token.
	toks := Tokenize("1.x")
	want := []token.Type{token.INTEGER, token.DOT, token.IDENTIFIER, token.EOF}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Fatalf("token %d: type = %v, want %v", i, toks[i].Type, typ)
		}
	}
}
