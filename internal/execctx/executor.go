// Package execctx implements the executor of spec.md §4.7: builtin
// dispatch, external fork/exec, N-stage pipeline construction, redirection
// application and background/foreground dispatch.
//
// Go has no fork(): os/exec.Cmd plus SysProcAttr{Setpgid: true, Pgid: pgid}
// asks the runtime to call setpgid(2) in the forked child between clone and
// exec, which is the same place the original's fork-then-setpgid-then-exec
// sequence does it. The parent still independently calls setpgid after
// Start() returns, covering the race spec.md §9's design note requires
// ("the parent and the child both call setpgid... this must remain").
//
// Waiting is done directly against the process group via unix.Wait4 rather
// than through exec.Cmd.Wait, so a job can be waited on piecemeal across
// separate calls (foreground wait, then later `fg`/`bg`, then the async
// reaper) the way spec.md §4.8 describes — one pgid, polled from several
// entry points over its lifetime, not one single blocking join.
package execctx

import (
	"fmt"
	"os"
	"strings"

	"github.com/aledsdavies/ash/internal/alias"
	"github.com/aledsdavies/ash/internal/ast"
	"github.com/aledsdavies/ash/internal/builtin"
	"github.com/aledsdavies/ash/internal/debug"
	"github.com/aledsdavies/ash/internal/expand"
	"github.com/aledsdavies/ash/internal/history"
	"github.com/aledsdavies/ash/internal/job"
	"github.com/aledsdavies/ash/internal/redirect"
	"github.com/aledsdavies/ash/internal/termctl"
	"github.com/aledsdavies/ash/internal/vars"
	"golang.org/x/sys/unix"
)

// ReexecBuiltinFlag is the hidden argv[1] sentinel cmd/ash recognizes,
// before any flag parsing, to run a single builtin inside a genuine forked
// child — so its effects stay confined to that child (spec.md §4.6) even
// though Go's os/exec has no way to run existing in-process code "forked".
const ReexecBuiltinFlag = "__ash_builtin__"

// Executor ties the expander, job table and terminal manager together to
// run Pipeline statements (spec.md §4.7).
type Executor struct {
	Vars       *vars.Store
	Aliases    *alias.Store
	Positional *vars.Positional
	Jobs       *job.Table
	Term       *termctl.Manager
	History    *history.Ring
	Debug      debug.Level

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// SourceFile wires the `source` builtin back to shellstate's
	// parse+evaluate loop without execctx importing shellstate.
	SourceFile builtin.Source

	// ExePath is the running ash binary's own path, used to re-exec a
	// builtin confined to a pipeline child.
	ExePath string

	// Evaluate parses and runs a full command line for command
	// substitution, writing its stdout to out (spec.md §4.3). Wired in by
	// shellstate, which owns the parser; execctx cannot import it without
	// a cycle (shellstate already imports execctx).
	Evaluate func(cmdline string, out *os.File) (status int, err error)

	// LookupFunc and CallFunc let a simple command's first word resolve to
	// a user-defined function (spec.md §3 FuncDef) instead of a builtin or
	// external command. Only consulted on the single-command fast path —
	// a function call inside a multi-stage pipeline or background job
	// would need its own forked process image to run, which a `NAME()
	// {...}` body has no way to re-exec into (spec.md §4.6 scopes function
	// definitions among the parent-process-only builtins for the same
	// reason).
	LookupFunc func(name string) (body []ast.Stmt, ok bool)
	CallFunc   func(body []ast.Stmt, args []string) (status int, err error)

	shellExit bool
}

// NewExpander builds an expand.Expander whose command-substitution Runner
// captures a nested invocation's stdout through this same executor.
func (x *Executor) NewExpander() *expand.Expander {
	return &expand.Expander{
		Vars:       x.Vars,
		Positional: x.Positional,
		Run:        x.capture,
	}
}

// RunPipeline executes one Pipeline statement end to end: expansion,
// assignment detection, builtin dispatch, or fork/exec of 1..N stages
// sharing a process group, foreground or backgrounded as requested.
func (x *Executor) RunPipeline(p *ast.Pipeline) (status int, err error) {
	if len(p.Stages) == 1 && !p.Background {
		return x.runSingleForeground(&p.Stages[0])
	}
	return x.runForked(p.Stages, p.Background, pipelineText(p))
}

func pipelineText(p *ast.Pipeline) string {
	parts := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		parts[i] = commandText(s)
	}
	text := strings.Join(parts, " | ")
	if p.Background {
		text += " &"
	}
	return text
}

func commandText(c ast.Command) string {
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// runSingleForeground is spec.md §4.7's "single-command path" fast case:
// variable-assignment-only commands and shell-state builtins run directly
// in this process, with no fork at all.
func (x *Executor) runSingleForeground(c *ast.Command) (int, error) {
	expander := x.NewExpander()
	words, err := expander.Words(c.Words)
	if err != nil {
		fmt.Fprintf(x.Stderr, "ash: %v\n", err)
		return 1, nil
	}
	if len(words) == 0 {
		return 0, nil
	}

	if assignments, ok := expand.IsAssignment(words); ok {
		for name, val := range assignments {
			x.Vars.Set(name, val)
		}
		return 0, nil
	}

	if fn, ok := builtin.Lookup(words[0]); ok {
		_, out, applied, rerr := redirect.Apply(c.Redirects, x.Stdin, x.Stdout)
		if rerr != nil {
			fmt.Fprintf(x.Stderr, "ash: %v\n", rerr)
			return 1, nil
		}
		ctx := x.builtinContext(out, x.Stderr)
		status := fn(ctx, words[1:])
		applied.Close()
		if ctx.Exit != nil && *ctx.Exit {
			x.shellExit = true
		}
		return status, nil
	}

	if x.LookupFunc != nil {
		if body, ok := x.LookupFunc(words[0]); ok {
			return x.CallFunc(body, words[1:])
		}
	}

	return x.runForked([]ast.Command{*c}, false, commandText(*c))
}

// shellExit is set once an `exit` builtin ran directly in this process
// (runSingleForeground, no fork); shellstate checks Executor.ShouldExit
// after every statement.
func (x *Executor) ShouldExit() bool { return x.shellExit }
