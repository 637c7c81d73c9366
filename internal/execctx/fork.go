package execctx

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/aledsdavies/ash/internal/ast"
	"github.com/aledsdavies/ash/internal/builtin"
	"github.com/aledsdavies/ash/internal/job"
	"github.com/aledsdavies/ash/internal/redirect"
	"github.com/aledsdavies/ash/internal/termctl"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// runForked implements both the single external command and the N-stage
// pipeline paths of spec.md §4.7: build N-1 pipes, start every stage with
// its own redirections and pgid membership, register one job for the
// group, then foreground-wait or background-detach as a unit.
func (x *Executor) runForked(stages []ast.Command, background bool, commandLine string) (int, error) {
	n := len(stages)
	if n == 0 {
		return 0, nil
	}

	readEnds := make([]*os.File, n)
	writeEnds := make([]*os.File, n)
	var pipeFiles []*os.File
	for i := 0; i < n-1; i++ {
		r, w, perr := os.Pipe()
		if perr != nil {
			for _, f := range pipeFiles {
				f.Close()
			}
			return 1, perr
		}
		pipeFiles = append(pipeFiles, r, w)
		writeEnds[i] = w
		readEnds[i+1] = r
	}
	closeAllPipes := func() {
		for _, f := range pipeFiles {
			f.Close()
		}
	}

	expander := x.NewExpander()
	pids := make([]int, 0, n)
	var pgid int
	var startErr error

	for i := range stages {
		stage := stages[i]
		words, werr := expander.Words(stage.Words)
		if werr != nil {
			startErr = werr
			break
		}
		if len(words) == 0 {
			startErr = fmt.Errorf("empty command in pipeline")
			break
		}

		stdin, stdout := x.Stdin, x.Stdout
		if readEnds[i] != nil {
			stdin = readEnds[i]
		}
		if writeEnds[i] != nil {
			stdout = writeEnds[i]
		}
		in, out, applied, rerr := redirect.Apply(stage.Redirects, stdin, stdout)
		if rerr != nil {
			startErr = rerr
			break
		}

		pid, berr := x.startStage(words, in, out, pgid)
		applied.Close()
		if berr != nil {
			startErr = berr
			break
		}
		if i == 0 {
			pgid = pid
		}
		_ = termctl.SetpgidChild(pid, pgid)
		pids = append(pids, pid)
	}

	closeAllPipes()

	if startErr != nil {
		fmt.Fprintf(x.Stderr, "ash: %v\n", startErr)
		if pgid != 0 {
			x.killGroup(pgid)
			x.reapGroup(pgid, len(pids))
		}
		return 127, nil
	}

	j, jerr := x.Jobs.Add(pgid, pids[0], pids, commandLine, !background)
	if jerr != nil {
		fmt.Fprintf(x.Stderr, "ash: %v\n", jerr)
		x.killGroup(pgid)
		x.reapGroup(pgid, len(pids))
		return 1, nil
	}

	if background {
		fmt.Fprintf(x.Stdout, "[%d] %d\n", j.ID, j.LeaderPID)
		return 0, nil
	}

	return x.waitForeground(j)
}

// startStage launches one pipeline stage: a recognized builtin is re-exec'd
// as this same binary with a hidden sentinel argv[1] (spec.md §4.6: its
// effect is then confined to that child), anything else is a normal PATH
// lookup and exec.
func (x *Executor) startStage(words []string, stdin, stdout *os.File, pgid int) (pid int, err error) {
	var cmd *exec.Cmd
	if _, ok := builtin.Lookup(words[0]); ok && x.ExePath != "" {
		cmd = exec.Command(x.ExePath, append([]string{ReexecBuiltinFlag}, words...)...)
	} else {
		path, lerr := exec.LookPath(words[0])
		if lerr != nil {
			return 0, fmt.Errorf("%s: command not found", words[0])
		}
		cmd = exec.Command(path, words[1:]...)
	}
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = x.Stderr
	cmd.Env = x.Vars.Environ()
	cmd.SysProcAttr = &unix.SysProcAttr{
		Setpgid: true,
		Pgid:    pgid, // 0 when this stage is the group leader
	}
	if x.Term.Interactive() {
		termctl.ResetChildSignals()
	}
	startErr := cmd.Start()
	if x.Term.Interactive() {
		termctl.IgnoreJobControlSignals()
	}
	if startErr != nil {
		return 0, startErr
	}
	pid = cmd.Process.Pid
	// Release detaches Go's *os.Process bookkeeping for this pid without
	// waiting on it — the process table, not Cmd, is the source of truth
	// from here on, since a job can be waited on piecemeal from several
	// call sites (foreground wait, fg/bg, the async reaper).
	_ = cmd.Process.Release()
	return pid, nil
}

func (x *Executor) killGroup(pgid int) {
	_ = unix.Kill(-pgid, unix.SIGTERM)
}

// capture runs cmdline to completion with its stdout captured, for command
// substitution (spec.md §4.3): it is parsed and evaluated through the
// Evaluate hook shellstate installs (execctx cannot import shellstate's
// parser without a cycle), with the executor's stdout swapped for a pipe.
// The command line runs in the shell process itself, not in a forked
// subshell, so variable assignments, function definitions and `exit`
// inside it act on the shell.
func (x *Executor) capture(cmdline string) (string, error) {
	if x.Evaluate == nil {
		return "", fmt.Errorf("ash: command substitution unavailable")
	}
	r, w, perr := os.Pipe()
	if perr != nil {
		return "", perr
	}

	var buf strings.Builder
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&buf, r)
		return err
	})

	_, evalErr := x.Evaluate(cmdline, w)
	w.Close()
	copyErr := g.Wait()
	r.Close()

	if evalErr != nil {
		return buf.String(), evalErr
	}
	return buf.String(), copyErr
}

func (x *Executor) builtinContext(stdout, stderr io.Writer) *builtin.Context {
	exitFlag := false
	return &builtin.Context{
		Vars:       x.Vars,
		Aliases:    x.Aliases,
		Positional: x.Positional,
		Jobs:       x.Jobs,
		History:    x.History,
		Stdout:     stdout,
		Stderr:     stderr,
		Cwd:        os.Getwd,
		Chdir:      os.Chdir,
		Exit:       &exitFlag,
		SourceFile: x.SourceFile,
		Continue:   x.continueJob,
	}
}

// continueJob implements spec.md §4.8's continue_job: when foreground is
// true, grant the group the terminal first; then SIGCONT the group, and in
// the foreground case block until it stops or exits.
func (x *Executor) continueJob(j *job.Job, foreground bool) (int, error) {
	j.State = job.Running
	j.Notified = false
	if foreground {
		j.Foreground = true
		if err := x.Term.GrantForeground(j.PGID); err != nil && x.Debug != 0 {
			fmt.Fprintf(x.Stderr, "ash: debug: GrantForeground: %v\n", err)
		}
	}
	if err := unix.Kill(-j.PGID, unix.SIGCONT); err != nil {
		if foreground {
			x.Term.ReclaimForeground()
		}
		return 0, err
	}
	if !foreground {
		fmt.Fprintf(x.Stdout, "[%d] %s\n", j.ID, j.CommandText)
		return 0, nil
	}
	return x.waitForeground(j)
}
