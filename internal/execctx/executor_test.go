package execctx

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aledsdavies/ash/internal/alias"
	"github.com/aledsdavies/ash/internal/ast"
	"github.com/aledsdavies/ash/internal/history"
	"github.com/aledsdavies/ash/internal/job"
	"github.com/aledsdavies/ash/internal/lexer"
	"github.com/aledsdavies/ash/internal/termctl"
	"github.com/aledsdavies/ash/internal/vars"
)

func newTestExecutor(t *testing.T) (*Executor, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer
	devnull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("open devnull: %v", err)
	}
	t.Cleanup(func() { devnull.Close() })
	return &Executor{
		Vars:       vars.New(),
		Aliases:    alias.New(),
		Positional: vars.NewPositional(nil),
		Jobs:       job.New(),
		Term:       termctl.New(int(devnull.Fd())),
		History:    history.New(),
		Stdin:      devnull,
		Stdout:     devnull,
		Stderr:     devnull,
	}, &stdout
}

func mustCommand(t *testing.T, line string, redirects []ast.Redirect) *ast.Command {
	t.Helper()
	l, err := lexer.Tokenize(line)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", line, err)
	}
	return &ast.Command{Words: l.Words, Redirects: redirects}
}

func TestRunSingleForegroundBuiltinHonorsRedirOut(t *testing.T) {
	x, _ := newTestExecutor(t)
	x.Jobs.Add(100, 100, []int{100}, "sleep 5", false)

	out := filepath.Join(t.TempDir(), "jobs.out")
	cmd := mustCommand(t, "jobs", []ast.Redirect{{Op: ast.RedirOut, Target: out}})

	status, err := x.runSingleForeground(cmd)
	if err != nil {
		t.Fatalf("runSingleForeground: %v", err)
	}
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}

	got, rerr := os.ReadFile(out)
	if rerr != nil {
		t.Fatalf("ReadFile: %v", rerr)
	}
	want := "[1] Running sleep 5\n"
	if string(got) != want {
		t.Errorf("redirected file = %q, want %q", string(got), want)
	}
}

func TestRunSingleForegroundBuiltinHonorsRedirAppend(t *testing.T) {
	x, _ := newTestExecutor(t)
	x.History.Add("echo one")

	out := filepath.Join(t.TempDir(), "history.out")
	if err := os.WriteFile(out, []byte("preexisting\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cmd := mustCommand(t, "history", []ast.Redirect{{Op: ast.RedirAppend, Target: out}})

	if status, err := x.runSingleForeground(cmd); err != nil || status != 0 {
		t.Fatalf("runSingleForeground: status=%d err=%v", status, err)
	}

	got, rerr := os.ReadFile(out)
	if rerr != nil {
		t.Fatalf("ReadFile: %v", rerr)
	}
	want := "preexisting\n1: echo one\n"
	if string(got) != want {
		t.Errorf("redirected file = %q, want %q", string(got), want)
	}
}
