package pipeline

import (
	"testing"

	"github.com/pebbl-lang/pebbl/internal/token"
)

func TestParseProducesTokensAndAST(t *testing.T) {
	ctx := Parse("main.pebbl", "let x = 1;")

	if len(ctx.Errors) > 0 {
		t.Fatalf("errors: %v", ctx.Errors)
	}
	if len(ctx.Tokens) == 0 || ctx.Tokens[len(ctx.Tokens)-1].Type != token.EOF {
		t.Errorf("token stream missing or not EOF-terminated")
	}
	if ctx.AstRoot == nil || len(ctx.AstRoot.Statements) != 1 {
		t.Fatalf("AST not built: %+v", ctx.AstRoot)
	}
	if ctx.AstRoot.File != "main.pebbl" {
		t.Errorf("File = %q, want main.pebbl", ctx.AstRoot.File)
	}
}

func TestParseCollectsErrors(t *testing.T) {
	ctx := Parse("main.pebbl", "let = 1;\nlet y 2;")

	if len(ctx.Errors) < 2 {
		t.Errorf("got %d errors, want at least 2", len(ctx.Errors))
	}
	if ctx.AstRoot == nil {
		t.Errorf("AST root is nil even with errors")
	}
}

func TestCustomStageOrdering(t *testing.T) {
	// A pipeline without the lexer stage leaves the parser with no tokens.
	ctx := New(ParserProcessor{}).Run(NewPipelineContext("x.pebbl", "1;"))
	if len(ctx.AstRoot.Statements) != 0 {
		t.Errorf("parser produced statements without tokens")
	}
}
