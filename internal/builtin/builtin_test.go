package builtin

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aledsdavies/ash/internal/alias"
	"github.com/aledsdavies/ash/internal/history"
	"github.com/aledsdavies/ash/internal/job"
	"github.com/aledsdavies/ash/internal/vars"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (*Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	exit := false
	cwd := t.TempDir()
	ctx := &Context{
		Vars:       &vars.Store{},
		Aliases:    alias.New(),
		Positional: vars.NewPositional(nil),
		Jobs:       job.New(),
		History:    history.New(),
		Stdout:     &stdout,
		Stderr:     &stderr,
		Cwd:        func() (string, error) { return cwd, nil },
		Chdir:      func(dir string) error { return os.Chdir(dir) },
		Exit:       &exit,
	}
	return ctx, &stdout, &stderr
}

func TestCdChangesToHome(t *testing.T) {
	ctx, _, stderr := newTestContext(t)
	home := t.TempDir()
	ctx.Vars = vars.New()
	ctx.Vars.Set("HOME", home)

	orig, _ := os.Getwd()
	defer os.Chdir(orig)
	ctx.Cwd = os.Getwd

	require.Equal(t, 0, cd(ctx, nil), "stderr: %s", stderr.String())

	got, _ := os.Getwd()
	want, _ := filepath.EvalSymlinks(home)
	gotReal, _ := filepath.EvalSymlinks(got)
	require.Equal(t, want, gotReal)

	pwd, _ := ctx.Vars.Get("PWD")
	require.Equal(t, got, pwd)
}

func TestCdMissingHome(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.Vars = vars.New()
	ctx.Vars.Unset("HOME")
	require.NotEqual(t, 0, cd(ctx, nil), "cd with no HOME and no argument should fail")
}

func TestExitSetsFlagAndStatus(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.LastStatus = 7
	require.Equal(t, 7, exitBuiltin(ctx, nil))
	require.True(t, *ctx.Exit)
	require.Equal(t, 3, exitBuiltin(ctx, []string{"3"}))
}

func TestExportSetsAndMirrors(t *testing.T) {
	ctx, _, stderr := newTestContext(t)
	ctx.Vars = vars.New()
	require.Equal(t, 0, export(ctx, []string{"FOO=bar"}), "stderr: %s", stderr.String())
	require.True(t, ctx.Vars.IsExported("FOO"))
	v, _ := ctx.Vars.Get("FOO")
	require.Equal(t, "bar", v)
}

func TestExportInvalidName(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.Vars = vars.New()
	require.NotEqual(t, 0, export(ctx, []string{"not-valid"}))
}

func TestAliasBuiltinSetAndList(t *testing.T) {
	ctx, stdout, _ := newTestContext(t)
	require.Equal(t, 0, aliasBuiltin(ctx, []string{"ll=ls -l"}))
	stdout.Reset()
	require.Equal(t, 0, aliasBuiltin(ctx, nil))
	require.Equal(t, "ll=ls -l\n", stdout.String())
}

func TestAliasBuiltinUnquotesValue(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	aliasBuiltin(ctx, []string{`ll='ls -l'`})
	text, ok := ctx.Aliases.Get("ll")
	require.True(t, ok)
	require.Equal(t, "ls -l", text)
}

func TestUnaliasRemoves(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.Aliases.Set("ll", "ls -l")
	unalias(ctx, []string{"ll"})
	_, ok := ctx.Aliases.Get("ll")
	require.False(t, ok)
}

func TestLetTruthConvention(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.Vars = vars.New()
	require.Equal(t, 0, let(ctx, []string{"1 + 1"}), "nonzero result is truth")
	require.Equal(t, 1, let(ctx, []string{"1 - 1"}), "zero result is false")
}

func TestLetMissingExpression(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	require.Equal(t, 1, let(ctx, nil))
}

func TestHistoryBuiltinPrints1Indexed(t *testing.T) {
	ctx, stdout, _ := newTestContext(t)
	ctx.History.Add("echo one")
	ctx.History.Add("echo two")
	historyBuiltin(ctx, nil)
	require.Equal(t, "1: echo one\n2: echo two\n", stdout.String())
}

func TestJobsBuiltinLists(t *testing.T) {
	ctx, stdout, _ := newTestContext(t)
	ctx.Jobs.Add(100, 100, []int{100}, "sleep 5", false)
	jobsBuiltin(ctx, nil)
	require.Equal(t, "[1] Running sleep 5\n", stdout.String())
}

func TestFgBgResolveJobAndCallContinue(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	j, err := ctx.Jobs.Add(100, 100, []int{100}, "sleep 5", false)
	require.NoError(t, err)

	var gotJob *job.Job
	var gotForeground bool
	ctx.Continue = func(jb *job.Job, foreground bool) (int, error) {
		gotJob = jb
		gotForeground = foreground
		return 0, nil
	}

	require.Equal(t, 0, fg(ctx, nil))
	require.Same(t, j, gotJob)
	require.True(t, gotForeground, "fg must Continue(job, true)")

	require.Equal(t, 0, bg(ctx, []string{"%1"}))
	require.Same(t, j, gotJob)
	require.False(t, gotForeground, "bg must Continue(job, false)")
}

func TestFgNoSuchJob(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.Continue = func(*job.Job, bool) (int, error) { return 0, nil }
	require.NotEqual(t, 0, fg(ctx, []string{"42"}))
}

func TestLookup(t *testing.T) {
	_, ok := Lookup("cd")
	require.True(t, ok, "cd should be a registered builtin")
	_, ok = Lookup("not-a-builtin")
	require.False(t, ok)
}
