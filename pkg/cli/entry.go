// Package cli wires the front end, the execution engines and the terminal
// together for the pebbl command.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/pebbl-lang/pebbl/internal/ast"
	"github.com/pebbl-lang/pebbl/internal/config"
	"github.com/pebbl-lang/pebbl/internal/evaluator"
	"github.com/pebbl-lang/pebbl/internal/object"
	"github.com/pebbl-lang/pebbl/internal/pipeline"
	"github.com/pebbl-lang/pebbl/internal/vm"
)

// Exit codes, following the sysexits convention for data and software
// failures.
const (
	ExitOK         = 0
	ExitDataErr    = 65 // syntax or compile errors
	ExitSoftware   = 70 // runtime errors
	ExitNoInput    = 66 // missing source file
	ExitUsageError = 64
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

// Runner executes parsed programs with one engine and one persistent heap.
type Runner struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer

	heap    *object.Heap
	machine *vm.VM
	interp  *evaluator.Interpreter
}

func NewRunner(cfg *config.Config, stdout, stderr io.Writer) *Runner {
	r := &Runner{
		cfg:    cfg,
		stdout: stdout,
		stderr: stderr,
		heap:   object.NewHeap(),
	}
	if cfg.Engine == config.EngineTree {
		r.interp = evaluator.New(r.heap)
		r.interp.SetOutput(stdout)
	} else {
		r.machine = vm.New(r.heap)
		r.machine.SetOutput(stdout)
	}
	return r
}

// RunFile loads, parses and executes a source file.
func (r *Runner) RunFile(path string) int {
	if !config.IsSourceFile(path) {
		errColor.Fprintf(r.stderr, "error: %s is not a PEBBL source file\n", path)
		return ExitUsageError
	}
	source, err := os.ReadFile(path)
	if err != nil {
		errColor.Fprintf(r.stderr, "error: %v\n", err)
		return ExitNoInput
	}
	code, _ := r.RunSource(path, string(source))
	return code
}

// RunSource parses and executes source, returning the exit code and the
// program's result value.
func (r *Runner) RunSource(file, source string) (int, object.Value) {
	ctx := pipeline.Parse(file, source)
	if len(ctx.Errors) > 0 {
		for _, err := range ctx.Errors {
			errColor.Fprintf(r.stderr, "syntax error: %v\n", err)
		}
		return ExitDataErr, object.MakeNull()
	}

	code, result := r.execute(ctx.AstRoot)
	if r.cfg.GCStats {
		r.printGCStats()
	}
	return code, result
}

func (r *Runner) execute(program *ast.Program) (int, object.Value) {
	if r.interp != nil {
		result, err := r.interp.Run(program)
		if err != nil {
			errColor.Fprintf(r.stderr, "%v\n", err)
			return ExitSoftware, object.MakeNull()
		}
		return ExitOK, result
	}

	chunk, err := vm.NewCompiler(r.heap).Compile(program)
	if err != nil {
		errColor.Fprintf(r.stderr, "%v\n", err)
		return ExitDataErr, object.MakeNull()
	}
	if r.cfg.ShowBytecode {
		infoColor.Fprint(r.stderr, vm.Disassemble(chunk, program.File))
	}

	if err := r.machine.Execute(chunk); err != nil {
		errColor.Fprintf(r.stderr, "%v\n", err)
		return ExitSoftware, object.MakeNull()
	}
	return ExitOK, r.machine.Result()
}

// Disassemble compiles a file and writes its bytecode listing to stdout.
func (r *Runner) Disassemble(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		errColor.Fprintf(r.stderr, "error: %v\n", err)
		return ExitNoInput
	}

	ctx := pipeline.Parse(path, string(source))
	if len(ctx.Errors) > 0 {
		for _, err := range ctx.Errors {
			errColor.Fprintf(r.stderr, "syntax error: %v\n", err)
		}
		return ExitDataErr
	}

	chunk, err := vm.NewCompiler(r.heap).Compile(ctx.AstRoot)
	if err != nil {
		errColor.Fprintf(r.stderr, "%v\n", err)
		return ExitDataErr
	}
	fmt.Fprint(r.stdout, vm.Disassemble(chunk, path))
	return ExitOK
}

func (r *Runner) printGCStats() {
	fmt.Fprintf(r.stderr, "gc: %d live, %d allocated, %d collections\n",
		r.heap.Live(), r.heap.TotalAllocated(), r.heap.Collections())
}
