// Command ash is the entrypoint of spec.md §6: interactive mode, `-c
// STRING`, and `FILE [ARG...]` script mode, all driven by
// github.com/spf13/cobra the way the teacher's cli/main.go wires its own
// single-command opal CLI.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/aledsdavies/ash/internal/alias"
	"github.com/aledsdavies/ash/internal/builtin"
	"github.com/aledsdavies/ash/internal/debug"
	"github.com/aledsdavies/ash/internal/history"
	"github.com/aledsdavies/ash/internal/job"
	"github.com/aledsdavies/ash/internal/parser"
	"github.com/aledsdavies/ash/internal/shellstate"
	"github.com/aledsdavies/ash/internal/vars"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	// The re-exec builtin sentinel (execctx.ReexecBuiltinFlag) must be
	// checked before cobra ever sees argv — it is not a user-facing flag,
	// just the mechanism by which a builtin running as a pipeline stage
	// gets its own forked process (spec.md §4.6).
	if len(os.Args) > 1 && os.Args[1] == "__ash_builtin__" {
		os.Exit(runBuiltinChild(os.Args[2:]))
	}

	var (
		cFlag    string
		debugOut bool
		noColor  bool
	)

	root := &cobra.Command{
		Use:           "ash [FILE [ARG...]]",
		Short:         "ash is a small interactive Unix-like shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			color.NoColor = noColor
			lvl := debug.Off
			if debugOut {
				lvl = debug.Detailed
			}
			status := run(cFlag, args, lvl)
			if status != 0 {
				os.Exit(status)
			}
			return nil
		},
	}

	root.Flags().StringVarP(&cFlag, "command", "c", "", "execute STRING and exit")
	root.Flags().BoolVar(&debugOut, "debug", false, "enable debug diagnostics")
	root.Flags().BoolVar(&noColor, "no-color", false, "disable colored prompt output")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ash: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches the three invocation modes of spec.md §6 and returns the
// process exit status: the last_status of the last executed command, or 0
// for empty input; a parse error yields a nonzero exit in -c/script mode.
func run(cFlag string, args []string, lvl debug.Level) int {
	exePath, err := os.Executable()
	if err != nil {
		exePath = os.Args[0]
	}

	switch {
	case cFlag != "":
		sh := shellstate.New(exePath, false, args)
		sh.Debug = lvl
		lines := strings.Split(strings.ReplaceAll(cFlag, ";", "\n"), "\n")
		return sh.Run(parser.NewSliceSource(lines))

	case len(args) > 0:
		sh := shellstate.New(exePath, false, args[1:])
		sh.Debug = lvl
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "ash: %v\n", err)
			return 1
		}
		return sh.Run(parser.NewSliceSource(strings.Split(string(data), "\n")))

	default:
		return runInteractive(exePath, lvl)
	}
}

// runInteractive implements spec.md §4.9's terminal-ownership startup and
// the prompt-driven read-eval loop, backed by a parser.FuncSource so
// compound statements can pull as many continuation lines as they need.
func runInteractive(exePath string, lvl debug.Level) int {
	sh := shellstate.New(exePath, true, nil)
	sh.Debug = lvl

	if err := sh.Term.Init(); err != nil && sh.Term.Interactive() {
		fmt.Fprintf(os.Stderr, "ash: %v\n", err)
	}
	reader := bufio.NewReader(os.Stdin)
	sh.Term.InstallPromptRedraw(func() {
		fmt.Fprint(os.Stdout, "\n"+prompt(sh.Term))
	})
	defer sh.Term.Stop()

	first := true
	src := parser.FuncSource(func() (string, bool) {
		if first {
			first = false
		} else {
			fmt.Fprint(os.Stdout, "> ")
		}
		if sh.Exec != nil {
			sh.Exec.Reap()
		}
		fmt.Fprint(os.Stdout, prompt(sh.Term))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", false
		}
		sh.History.Add(strings.TrimRight(line, "\n"))
		return strings.TrimRight(line, "\n"), true
	})

	status := sh.Run(src)
	return status
}

// prompt renders spec.md §6's `ash:CWD> ` form, truncating a long CWD with
// a leading "...".
func prompt(term interface{ TerminalWidth() int }) string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "?"
	}
	if home, ok := os.LookupEnv("HOME"); ok && home != "" && strings.HasPrefix(cwd, home) {
		cwd = "~" + strings.TrimPrefix(cwd, home)
	}
	width := term.TerminalWidth()
	budget := width - len("ash:> ")
	if budget > 0 && len(cwd) > budget {
		cwd = "..." + cwd[len(cwd)-budget+3:]
	}
	return color.CyanString("ash:") + cwd + color.CyanString("> ")
}

// runBuiltinChild is the re-exec target for a builtin confined to a
// forked pipeline stage (spec.md §4.6): it inherits the process
// environment (so only exported variables are visible, per spec.md §3) and
// runs exactly one builtin before exiting with its status.
func runBuiltinChild(args []string) int {
	if len(args) == 0 {
		return 127
	}
	fn, ok := builtin.Lookup(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "ash: %s: not a builtin\n", args[0])
		return 127
	}
	exit := false
	ctx := &builtin.Context{
		Vars:       vars.New(),
		Aliases:    alias.New(),
		Positional: vars.NewPositional(args[1:]),
		Jobs:       job.New(),
		History:    history.New(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Cwd:        os.Getwd,
		Chdir:      os.Chdir,
		Exit:       &exit,
	}
	return fn(ctx, args[1:])
}
