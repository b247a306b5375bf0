package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/jvlmtest/internal/config"
	"github.com/danmuck/jvlmtest/internal/lang"
	"github.com/danmuck/jvlmtest/internal/logging"
	"github.com/danmuck/jvlmtest/internal/orchestrator"
	"github.com/danmuck/jvlmtest/internal/tools"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// usageError marks a bad invocation; it exits with ExitUsage after printing
// help.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

type options struct {
	root string
}

func main() {
	logging.ConfigureRuntime()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, tools.ExecRunner{})
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, runner tools.CommandRunner) int {
	cmd := newRootCmd(runner)
	// cobra falls back to os.Args when handed nil.
	cmd.SetArgs(append([]string{}, args...))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return orchestrator.ExitSuccess
	}
	var exitErr *orchestrator.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var usage *usageError
	if errors.As(err, &usage) || isCobraUsage(err) {
		fmt.Fprintf(stderr, "jvlmtest: %v\n\n%s", err, cmd.UsageString())
		return orchestrator.ExitUsage
	}
	fmt.Fprintf(stderr, "jvlmtest: %v\n", err)
	return orchestrator.ExitUsage
}

func newRootCmd(runner tools.CommandRunner) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "jvlmtest <mode> [specifier...]",
		Short: "Compile and check the JVLM test corpus",
		Long: `jvlmtest selects tests from the corpus and runs one pipeline mode over them.

Specifiers look like c, c/basic_ternary, c/nested/*, c/nested/**/* or
rust/adder. Paths typed from outside the test root are re-based onto it.
With no specifiers every test of every language is selected.

Exit codes: 0 success, 1 usage or fatal error, 2 stage failures.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return &usageError{msg: "missing mode"}
			}
			return &usageError{msg: fmt.Sprintf("unknown mode %q", args[0])}
		},
	}
	root.PersistentFlags().StringVar(&opts.root, "root", "", "test corpus root (default: search upward for "+config.FileName+")")
	root.CompletionOptions.DisableDefaultCmd = true
	// help is not a mode; --help still works.
	root.SetHelpCommand(&cobra.Command{
		Use:    "help",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return &usageError{msg: `unknown mode "help"`}
		},
	})

	for _, mode := range orchestrator.Modes {
		root.AddCommand(newModeCmd(mode, opts, runner))
	}
	return root
}

var modeSummaries = map[orchestrator.Mode]string{
	orchestrator.ModeDryRun: "List the selected tests without running anything",
	orchestrator.ModeShowIR: "Print the intermediate representation of each selected test",
	orchestrator.ModeJar:    "Build each selected test and print its archive path",
	orchestrator.ModeJavap:  "Build the selected tests and disassemble their classes",
	orchestrator.ModeTest:   "Build the selected tests and run their declared checks",
}

func newModeCmd(mode orchestrator.Mode, opts *options, runner tools.CommandRunner) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode) + " [specifier...]",
		Short: modeSummaries[mode],
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, err := os.Getwd()
			if err != nil {
				return err
			}
			testRoot := opts.root
			if testRoot == "" {
				testRoot = config.FindTestRoot(workDir, lang.CName, lang.RustName)
			}
			cfg, err := config.Load(testRoot)
			if err != nil {
				return err
			}
			log.Debug().Str("root", cfg.TestRoot).Str("out", cfg.OutDir).Msg("config loaded")

			oc := orchestrator.NewConfig(cfg, workDir, runner)
			oc.Stdout = cmd.OutOrStdout()
			oc.Stderr = cmd.ErrOrStderr()
			return orchestrator.New(oc).Run(cmd.Context(), mode, args)
		},
	}
}

// isCobraUsage reports flag and command parse errors raised by cobra itself.
func isCobraUsage(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.HasPrefix(msg, "flag needs an argument") ||
		strings.HasPrefix(msg, "invalid argument") ||
		strings.HasPrefix(msg, "unknown command")
}
