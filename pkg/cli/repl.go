package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/pebbl-lang/pebbl/internal/object"
	"github.com/pebbl-lang/pebbl/internal/pipeline"
)

const replFileName = "<repl>"

// REPL reads statements line by line and evaluates them against the runner's
// persistent globals. Prompts appear only on interactive terminals.
func (r *Runner) REPL(in io.Reader) int {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	if interactive {
		fmt.Fprintln(r.stdout, "PEBBL repl, :quit to exit")
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			infoColor.Fprint(r.stdout, ">> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":q" {
			break
		}

		r.evalLine(line)
	}
	if err := scanner.Err(); err != nil {
		errColor.Fprintf(r.stderr, "error: %v\n", err)
		return ExitSoftware
	}
	return ExitOK
}

// evalLine runs one input and echoes its value, the way the bare program
// result would read. Definitions and nil results stay quiet.
func (r *Runner) evalLine(line string) {
	ctx := pipeline.Parse(replFileName, line)
	if len(ctx.Errors) > 0 {
		for _, err := range ctx.Errors {
			errColor.Fprintf(r.stderr, "syntax error: %v\n", err)
		}
		return
	}

	code, result := r.execute(ctx.AstRoot)
	if code == ExitOK && !result.IsNull() {
		fmt.Fprintln(r.stdout, object.Stringify(result))
	}
}
