package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pebbl-lang/pebbl/internal/config"
	"github.com/pebbl-lang/pebbl/pkg/cli"
)

// Version is stamped at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	flagEngine       string
	flagShowBytecode bool
	flagGCStats      bool
)

var rootCmd = &cobra.Command{
	Use:   "pebbl",
	Short: "PEBBL language interpreter",
	Long:  "pebbl runs PEBBL programs on a bytecode virtual machine or a tree-walking interpreter.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			os.Exit(runner.REPL(os.Stdin))
		}
		os.Exit(runner.RunFile(args[0]))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a PEBBL source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		os.Exit(runner.RunFile(args[0]))
		return nil
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		os.Exit(runner.REPL(os.Stdin))
		return nil
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Show the compiled bytecode of a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		os.Exit(runner.Disassemble(args[0]))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pebbl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pebbl %s\n", Version)
	},
}

// newRunner resolves pebbl.yaml and applies flag overrides.
func newRunner() (*cli.Runner, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Discover(wd)
	if err != nil {
		return nil, err
	}

	if flagEngine != "" {
		if flagEngine != config.EngineVM && flagEngine != config.EngineTree {
			return nil, fmt.Errorf("unknown engine %q, want vm or tree", flagEngine)
		}
		cfg.Engine = flagEngine
	}
	if flagShowBytecode {
		cfg.ShowBytecode = true
	}
	if flagGCStats {
		cfg.GCStats = true
	}

	return cli.NewRunner(cfg, os.Stdout, os.Stderr), nil
}

func main() {
	rootCmd.Version = Version
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "", "execution engine (vm|tree), overrides pebbl.yaml")
	rootCmd.PersistentFlags().BoolVar(&flagShowBytecode, "show-bytecode", false, "dump the disassembly before running")
	rootCmd.PersistentFlags().BoolVar(&flagGCStats, "gc-stats", false, "print heap statistics after the run")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
