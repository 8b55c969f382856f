// Package pipeline chains the source processing stages that turn PEBBL text
// into an executable AST.
package pipeline

import (
	"github.com/pebbl-lang/pebbl/internal/ast"
	"github.com/pebbl-lang/pebbl/internal/lexer"
	"github.com/pebbl-lang/pebbl/internal/parser"
	"github.com/pebbl-lang/pebbl/internal/token"
)

// PipelineContext carries the artifacts and diagnostics of every stage.
type PipelineContext struct {
	File   string
	Source string

	Tokens  []token.Token
	AstRoot *ast.Program

	Errors []error
}

func NewPipelineContext(file, source string) *PipelineContext {
	return &PipelineContext{File: file, Source: source}
}

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages run even after errors so diagnostics
// accumulate across the whole front end.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// LexerProcessor tokenizes the source.
type LexerProcessor struct{}

func (LexerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.Tokens = lexer.Tokenize(ctx.Source)
	return ctx
}

// ParserProcessor builds the AST from the token stream.
type ParserProcessor struct{}

func (ParserProcessor) Process(ctx *PipelineContext) *PipelineContext {
	p := parser.New(ctx.Tokens)
	ctx.AstRoot = p.ParseProgram()
	ctx.AstRoot.File = ctx.File
	for _, err := range p.Errors() {
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}

// Parse runs the front-end stages over source and returns the context.
func Parse(file, source string) *PipelineContext {
	return New(LexerProcessor{}, ParserProcessor{}).Run(NewPipelineContext(file, source))
}
