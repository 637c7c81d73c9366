// Package shellstate implements spec.md §2's control flow: a read-eval
// loop that feeds logical lines to the parser, tree-walks the resulting
// ast.Stmt, and tracks last_status, loop-control flags and the function
// table across statements.
//
// The evaluator re-enters internal/parser for each compound statement's
// already-collected body (spec.md §2: "compound statements drive
// themselves through the evaluator which re-enters for each body line"),
// the way the teacher's runtime/interpreter walks a plan tree rather than
// re-deriving control flow from source text at run time.
package shellstate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aledsdavies/ash/internal/alias"
	"github.com/aledsdavies/ash/internal/ast"
	"github.com/aledsdavies/ash/internal/debug"
	"github.com/aledsdavies/ash/internal/execctx"
	"github.com/aledsdavies/ash/internal/glob"
	"github.com/aledsdavies/ash/internal/history"
	"github.com/aledsdavies/ash/internal/job"
	"github.com/aledsdavies/ash/internal/parser"
	"github.com/aledsdavies/ash/internal/termctl"
	"github.com/aledsdavies/ash/internal/vars"
)

// control reports a loop-control request propagating up out of a body's
// statement sequence (spec.md §4.4: break/continue "consumed by the
// nearest enclosing loop").
type control int

const (
	ctrlNone control = iota
	ctrlBreak
	ctrlContinue
)

// Shell is the top-level interpreter state: every store plus the executor
// that actually runs commands.
type Shell struct {
	Vars       *vars.Store
	Aliases    *alias.Store
	Positional *vars.Positional
	Jobs       *job.Table
	Term       *termctl.Manager
	History    *history.Ring
	Exec       *execctx.Executor
	Debug      debug.Level

	funcs map[string][]ast.Stmt

	LastStatus int
	exit       bool
}

// New wires up a Shell with fresh stores, ready to evaluate statements.
// exePath is the running ash binary's own path (for builtin re-exec inside
// pipeline children, spec.md §4.6); it is os.Args[0] resolved by the
// caller.
func New(exePath string, interactive bool, args []string) *Shell {
	v := vars.New()
	a := alias.New()
	pos := vars.NewPositional(args)
	jobs := job.New()
	term := termctl.New(int(os.Stdin.Fd()))
	hist := history.New()

	s := &Shell{
		Vars:       v,
		Aliases:    a,
		Positional: pos,
		Jobs:       jobs,
		Term:       term,
		History:    hist,
		funcs:      make(map[string][]ast.Stmt),
	}

	s.Exec = &execctx.Executor{
		Vars:       v,
		Aliases:    a,
		Positional: pos,
		Jobs:       jobs,
		Term:       term,
		History:    hist,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		ExePath:    exePath,
		SourceFile: s.sourceFile,
		Evaluate:   s.evaluateCapture,
		LookupFunc: s.lookupFunc,
		CallFunc:   s.callFunc,
	}
	return s
}

func (s *Shell) lookupFunc(name string) ([]ast.Stmt, bool) {
	body, ok := s.funcs[name]
	return body, ok
}

// callFunc pushes a new positional-parameter frame, runs the function's
// body, and pops it on return (spec.md §3: "Functions share the global
// variable namespace; positional parameters are set on entry").
func (s *Shell) callFunc(body []ast.Stmt, args []string) (int, error) {
	s.Positional.Push(args)
	defer s.Positional.Pop()
	status, _, err := s.runBody(body)
	return status, err
}

// sourceFile implements the `source`/`.` builtin: parse and evaluate a
// script file in this same Shell (spec.md §4.6).
func (s *Shell) sourceFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 1, err
	}
	return s.Run(parser.NewSliceSource(strings.Split(string(data), "\n"))), nil
}

// evaluateCapture parses and runs a full command line for command
// substitution, writing its stdout to out instead of the shell's own
// (spec.md §4.3).
func (s *Shell) evaluateCapture(cmdline string, out *os.File) (int, error) {
	saved := s.Exec.Stdout
	s.Exec.Stdout = out
	defer func() { s.Exec.Stdout = saved }()
	status := s.Run(parser.NewSliceSource(strings.Split(cmdline, "\n")))
	return status, nil
}

// Run drives the read-eval loop to completion over one PhysicalSource
// (a script, `-c` string, or interactive line source) and returns the
// final last_status.
func (s *Shell) Run(src parser.PhysicalSource) int {
	s.Exec.Debug = s.Debug
	p := parser.New(src, s.Aliases)
	for {
		if s.Exec != nil {
			s.Exec.Reap()
		}
		stmt, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			s.LastStatus = 1
			continue
		}
		status, _, err := s.execStmt(stmt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ash: %v\n", err)
			status = 1
		}
		s.LastStatus = status
		if s.exit || s.Exec.ShouldExit() {
			s.exit = true
			break
		}
	}
	return s.LastStatus
}

// Exited reports whether an `exit` builtin ran during the last Run call.
func (s *Shell) Exited() bool { return s.exit || s.Exec.ShouldExit() }

func (s *Shell) execStmt(stmt ast.Stmt) (status int, ctrl control, err error) {
	switch st := stmt.(type) {
	case *ast.Command:
		return s.execPipeline(&ast.Pipeline{Stages: []ast.Command{*st}})

	case *ast.Pipeline:
		return s.execPipeline(st)

	case *ast.Chain:
		return s.execChain(st)

	case *ast.If:
		return s.execIf(st)

	case *ast.While:
		return s.execWhile(st)

	case *ast.For:
		return s.execFor(st)

	case *ast.Case:
		return s.execCase(st)

	case *ast.FuncDef:
		s.funcs[st.Name] = st.Body
		return 0, ctrlNone, nil

	case *ast.Break:
		return s.LastStatus, ctrlBreak, nil

	case *ast.Continue:
		return s.LastStatus, ctrlContinue, nil

	default:
		return 1, ctrlNone, fmt.Errorf("unhandled statement type %T", stmt)
	}
}

func (s *Shell) execPipeline(p *ast.Pipeline) (int, control, error) {
	status, err := s.Exec.RunPipeline(p)
	return status, ctrlNone, err
}

func (s *Shell) execChain(c *ast.Chain) (int, control, error) {
	status, ctrl, err := s.execStmt(c.First)
	if err != nil || ctrl != ctrlNone {
		return status, ctrl, err
	}
	for _, link := range c.Rest {
		shortCircuit := (link.Op == ast.ChainAnd && status != 0) || (link.Op == ast.ChainOr && status == 0)
		if shortCircuit {
			continue
		}
		status, ctrl, err = s.execStmt(link.Stmt)
		if err != nil || ctrl != ctrlNone {
			return status, ctrl, err
		}
	}
	return status, ctrlNone, nil
}

// runBody runs a statement sequence, stopping early and propagating a
// break/continue request if one is encountered (used for If/func bodies,
// which do not themselves consume loop control).
func (s *Shell) runBody(body []ast.Stmt) (int, control, error) {
	status := 0
	for _, stmt := range body {
		var err error
		var ctrl control
		status, ctrl, err = s.execStmt(stmt)
		if err != nil || ctrl != ctrlNone {
			return status, ctrl, err
		}
	}
	return status, ctrlNone, nil
}

func (s *Shell) execIf(st *ast.If) (int, control, error) {
	condStatus, ctrl, err := s.runBody(st.Cond)
	if err != nil || ctrl != ctrlNone {
		return condStatus, ctrl, err
	}
	if condStatus == 0 {
		return s.runBody(st.Then)
	}
	return s.runBody(st.Else)
}

func (s *Shell) execWhile(st *ast.While) (int, control, error) {
	status := 0
	for {
		condStatus, ctrl, err := s.runBody(st.Cond)
		if err != nil || ctrl != ctrlNone {
			return condStatus, ctrl, err
		}
		if condStatus != 0 {
			return status, ctrlNone, nil
		}
		bodyStatus, bctrl, err := s.runBody(st.Body)
		if err != nil {
			return bodyStatus, ctrlNone, err
		}
		status = bodyStatus
		if bctrl == ctrlBreak {
			return status, ctrlNone, nil
		}
		// ctrlContinue and ctrlNone both fall through to re-test Cond.
	}
}

func (s *Shell) execFor(st *ast.For) (int, control, error) {
	expander := s.Exec.NewExpander()
	items, err := expander.Words(st.Items)
	if err != nil {
		return 1, ctrlNone, err
	}
	status := 0
	for _, item := range items {
		s.Vars.Set(st.Name, item)
		bodyStatus, bctrl, err := s.runBody(st.Body)
		if err != nil {
			return bodyStatus, ctrlNone, err
		}
		status = bodyStatus
		if bctrl == ctrlBreak {
			break
		}
	}
	return status, ctrlNone, nil
}

func (s *Shell) execCase(st *ast.Case) (int, control, error) {
	expander := s.Exec.NewExpander()
	word, err := expander.ExpandScalar(st.Word)
	if err != nil {
		return 1, ctrlNone, err
	}
	for _, arm := range st.Arms {
		pattern, perr := expander.ExpandScalar(arm.Pattern)
		if perr != nil {
			return 1, ctrlNone, perr
		}
		if glob.MatchPattern(pattern, word) {
			return s.runBody(arm.Body)
		}
	}
	return 0, ctrlNone, nil
}
