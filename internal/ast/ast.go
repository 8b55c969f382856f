// Package ast defines the abstract syntax tree produced by the parser and
// consumed by the tree-walking evaluator and the bytecode compiler.
package ast

import "github.com/pebbl-lang/pebbl/internal/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// GetToken returns the node's primary token, used for diagnostics.
	GetToken() token.Token
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of every parsed source file.
type Program struct {
	File       string
	Statements []Statement
}

// Identifier is a bare name reference.
type Identifier struct {
	Token token.Token
	Name  string
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) GetToken() token.Token { return i.Token }

// VariableStatement is a `let name = expr;` or `var name = expr;` binding.
type VariableStatement struct {
	Token token.Token // the let or var token
	Name  *Identifier
	Value Expression
}

func (vs *VariableStatement) statementNode()        {}
func (vs *VariableStatement) GetToken() token.Token { return vs.Token }

// IsMutable reports whether the binding may be reassigned (`var` vs `let`).
func (vs *VariableStatement) IsMutable() bool { return vs.Token.Type == token.VAR }

// ReturnStatement is `return expr;` or a bare `return;`.
type ReturnStatement struct {
	Token token.Token
	Value Expression // nil for a bare return
}

func (rs *ReturnStatement) statementNode()        {}
func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }

// BlockStatement is a braced statement list introducing a new scope.
type BlockStatement struct {
	Token      token.Token // the { token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()        {}
func (bs *BlockStatement) GetToken() token.Token { return bs.Token }

// WhileLoop is `while cond { ... }`.
type WhileLoop struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (wl *WhileLoop) statementNode()        {}
func (wl *WhileLoop) GetToken() token.Token { return wl.Token }

// ForLoop is `for x in iterable { ... }`. Arrays iterate elements, dicts
// iterate keys.
type ForLoop struct {
	Token    token.Token
	Variable *Identifier
	Iterable Expression
	Body     *BlockStatement
}

func (fl *ForLoop) statementNode()        {}
func (fl *ForLoop) GetToken() token.Token { return fl.Token }

// FunctionStatement is `func name(params) { ... }`.
type FunctionStatement struct {
	Token      token.Token
	Name       *Identifier
	Parameters []*Identifier
	Body       *BlockStatement
}

func (fs *FunctionStatement) statementNode()        {}
func (fs *FunctionStatement) GetToken() token.Token { return fs.Token }

// ExpressionStatement wraps an expression appearing in statement position.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()        {}
func (es *ExpressionStatement) GetToken() token.Token { return es.Token }

// Binary is `left op right`.
type Binary struct {
	Token    token.Token // the operator token
	Operator token.Type
	Left     Expression
	Right    Expression
}

func (b *Binary) expressionNode()       {}
func (b *Binary) GetToken() token.Token { return b.Token }

// Unary is `op operand` (prefix - or !).
type Unary struct {
	Token    token.Token
	Operator token.Type
	Operand  Expression
}

func (u *Unary) expressionNode()       {}
func (u *Unary) GetToken() token.Token { return u.Token }

// Assignment is `target = value`; the target must be an identifier.
type Assignment struct {
	Token  token.Token // the = token
	Target Expression
	Value  Expression
}

func (a *Assignment) expressionNode()       {}
func (a *Assignment) GetToken() token.Token { return a.Token }

// IfElse is an if expression: it yields the value of whichever branch ran,
// or nil when the condition is false and there is no else branch.
type IfElse struct {
	Token     token.Token
	Condition Expression
	Then      Expression
	Else      Expression // nil when absent
}

func (ie *IfElse) expressionNode()       {}
func (ie *IfElse) GetToken() token.Token { return ie.Token }

// Call is `callee(args...)`.
type Call struct {
	Token     token.Token // the ( token
	Callee    Expression
	Arguments []Expression
}

func (c *Call) expressionNode()       {}
func (c *Call) GetToken() token.Token { return c.Token }

// BlockExpression adapts a braced block to expression position: its value is
// the value of the final expression statement inside, or nil when the block
// ends with a non-expression statement. If/else branches use it.
type BlockExpression struct {
	Token token.Token
	Block *BlockStatement
}

func (be *BlockExpression) expressionNode()       {}
func (be *BlockExpression) GetToken() token.Token { return be.Token }

// IntegerLiteral is a decimal integer literal.
type IntegerLiteral struct {
	Token token.Token
	Value int32
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }

// FloatLiteral is a decimal floating-point literal.
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()       {}
func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }

// StringLiteral is a double-quoted string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()       {}
func (bl *BooleanLiteral) GetToken() token.Token { return bl.Token }

// NilLiteral is the `nil` keyword.
type NilLiteral struct {
	Token token.Token
}

func (nl *NilLiteral) expressionNode()       {}
func (nl *NilLiteral) GetToken() token.Token { return nl.Token }

// ArrayLiteral is `[e0, e1, ...]`.
type ArrayLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()       {}
func (al *ArrayLiteral) GetToken() token.Token { return al.Token }

// DictEntry is a single `key: value` pair of a dict literal.
type DictEntry struct {
	Key   Expression
	Value Expression
}

// DictLiteral is `{"k": v, ...}`. Keys must evaluate to strings.
type DictLiteral struct {
	Token   token.Token
	Entries []DictEntry
}

func (dl *DictLiteral) expressionNode()       {}
func (dl *DictLiteral) GetToken() token.Token { return dl.Token }
