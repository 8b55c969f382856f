// Package lexer turns PEBBL source text into a stream of tokens.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/pebbl-lang/pebbl/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position (after current char)
	ch           rune // current char under examination
	line         int
	column       int
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	line, col := l.line, l.column

	var tok token.Token
	switch l.ch {
	case '(':
		tok = l.newToken(token.LPAREN, line, col)
	case ')':
		tok = l.newToken(token.RPAREN, line, col)
	case '{':
		tok = l.newToken(token.LBRACE, line, col)
	case '}':
		tok = l.newToken(token.RBRACE, line, col)
	case '[':
		tok = l.newToken(token.LBRACKET, line, col)
	case ']':
		tok = l.newToken(token.RBRACKET, line, col)
	case ',':
		tok = l.newToken(token.COMMA, line, col)
	case '.':
		tok = l.newToken(token.DOT, line, col)
	case ':':
		tok = l.newToken(token.COLON, line, col)
	case ';':
		tok = l.newToken(token.SEMICOLON, line, col)
	case '+':
		tok = l.newToken(token.PLUS, line, col)
	case '-':
		tok = l.newToken(token.MINUS, line, col)
	case '*':
		tok = l.newToken(token.ASTERISK, line, col)
	case '/':
		tok = l.newToken(token.SLASH, line, col)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.EQUAL, Lexeme: "==", Line: line, Column: col}
		} else {
			tok = l.newToken(token.ASSIGN, line, col)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NOT_EQUAL, Lexeme: "!=", Line: line, Column: col}
		} else {
			tok = l.newToken(token.BANG, line, col)
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.LESS_EQUAL, Lexeme: "<=", Line: line, Column: col}
		} else {
			tok = l.newToken(token.LESS, line, col)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GREATER_EQUAL, Lexeme: ">=", Line: line, Column: col}
		} else {
			tok = l.newToken(token.GREATER, line, col)
		}
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			tok = token.Token{Type: token.AND, Lexeme: "&&", Line: line, Column: col}
		} else {
			tok = token.Token{Type: token.ILLEGAL, Lexeme: "&", Line: line, Column: col}
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token.Token{Type: token.OR, Lexeme: "||", Line: line, Column: col}
		} else {
			tok = token.Token{Type: token.ILLEGAL, Lexeme: "|", Line: line, Column: col}
		}
	case '"':
		return l.readString(line, col)
	case 0:
		return token.Token{Type: token.EOF, Lexeme: "", Line: line, Column: col}
	default:
		if isLetter(l.ch) {
			return l.readIdentifier(line, col)
		}
		if unicode.IsDigit(l.ch) {
			return l.readNumber(line, col)
		}
		tok = token.Token{Type: token.ILLEGAL, Lexeme: string(l.ch), Line: line, Column: col}
	}

	l.readChar()
	return tok
}

func (l *Lexer) newToken(t token.Type, line, col int) token.Token {
	return token.Token{Type: t, Lexeme: string(l.ch), Line: line, Column: col}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier(line, col int) token.Token {
	start := l.position
	for isLetter(l.ch) || unicode.IsDigit(l.ch) {
		l.readChar()
	}
	name := l.input[start:l.position]
	return token.Token{Type: token.LookupIdentifier(name), Lexeme: name, Line: line, Column: col}
}

func (l *Lexer) readNumber(line, col int) token.Token {
	start := l.position
	typ := token.INTEGER
	for unicode.IsDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		typ = token.FLOAT
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	return token.Token{Type: typ, Lexeme: l.input[start:l.position], Line: line, Column: col}
}

func (l *Lexer) readString(line, col int) token.Token {
	l.readChar() // consume opening quote
	var out []rune
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			switch l.peekChar() {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				out = append(out, l.peekChar())
			}
			l.readChar()
		} else {
			out = append(out, l.ch)
		}
		l.readChar()
	}
	if l.ch == 0 {
		return token.Token{Type: token.ILLEGAL, Lexeme: "unterminated string", Line: line, Column: col}
	}
	l.readChar() // consume closing quote
	return token.Token{Type: token.STRING, Lexeme: string(out), Line: line, Column: col}
}

// Tokenize scans the whole input, always ending with an EOF token.
func Tokenize(input string) []token.Token {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}
