// Package builtin implements the shell-state builtins of spec.md §4.6:
// cd, exit, export, alias, unalias, source, let, history, jobs, fg, bg.
//
// Every builtin sees the same Context, the way the teacher's runtime
// packages thread a single execution context through their decorator
// implementations (runtime/decorators/*.go take a *execution.Context
// rather than rebuilding state per call); here that context is the shell's
// own stores instead of opal's plan-execution state.
package builtin

import (
	"io"

	"github.com/aledsdavies/ash/internal/alias"
	"github.com/aledsdavies/ash/internal/history"
	"github.com/aledsdavies/ash/internal/job"
	"github.com/aledsdavies/ash/internal/vars"
)

// Func runs one builtin invocation and returns its exit status.
type Func func(ctx *Context, args []string) int

// Source parses and evaluates a script file in the current shell (used by
// the `source` builtin), wired in by shellstate to avoid an import cycle
// (shellstate already imports builtin).
type Source func(path string) (status int, err error)

// RunLine evaluates one already-assembled command line as if typed at the
// prompt. No builtin uses it, and the executor leaves Context.RunLine nil.
type RunLine func(line string) (status int, err error)

// Context bundles every piece of shell state a builtin may touch. Builtins
// that run as a pipeline stage (a forked child, per spec.md §4.6: "its
// effect is confined to that child") still get a Context — just one
// belonging to that child process, so mutations never reach the parent.
type Context struct {
	Vars       *vars.Store
	Aliases    *alias.Store
	Positional *vars.Positional
	Jobs       *job.Table
	History    *history.Ring
	LastStatus int

	Stdout io.Writer
	Stderr io.Writer

	// Cwd reports the process's current working directory (os.Getwd by
	// default; tests may stub it).
	Cwd func() (string, error)
	// Chdir changes the process's working directory (os.Chdir by default).
	Chdir func(dir string) error

	// Exit is set by the `exit` builtin to request shell termination;
	// shellstate checks it after every statement.
	Exit *bool

	SourceFile Source
	RunLine    RunLine

	// Continue implements spec.md §4.8's continue_job: mark the job
	// Running and SIGCONT its process group; when foreground is true, grant
	// it the terminal before the SIGCONT and block until it stops or exits
	// (returning its resulting status). Wired in by the executor
	// (internal/execctx), which owns the termctl.Manager and job reaper
	// this requires.
	Continue func(j *job.Job, foreground bool) (status int, err error)
}

// Registry maps a builtin name to its implementation.
var Registry = map[string]Func{
	"cd":      cd,
	"exit":    exitBuiltin,
	"export":  export,
	"alias":   aliasBuiltin,
	"unalias": unalias,
	"source":  source,
	".":       source,
	"let":     let,
	"history": historyBuiltin,
	"jobs":    jobsBuiltin,
	"fg":      fg,
	"bg":      bg,
}

// Lookup reports whether name is a recognized builtin.
func Lookup(name string) (Func, bool) {
	f, ok := Registry[name]
	return f, ok
}
