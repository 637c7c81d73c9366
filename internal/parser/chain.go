package parser

import (
	"strings"

	"github.com/aledsdavies/ash/internal/ast"
	"github.com/aledsdavies/ash/internal/lexer"
	"github.com/aledsdavies/ash/internal/token"
)

// parseChain parses one logical line (no leading keyword) into a Chain of
// pipelines/commands joined by && / ||, per spec.md §4.4.
func (p *Parser) parseChain(line string) (ast.Stmt, error) {
	left, right, op := lexer.SplitLogical(line)
	if op == lexer.None {
		return p.parsePipelineStmt(line)
	}

	leftStmt, err := p.parsePipelineStmt(left)
	if err != nil {
		return nil, err
	}
	rightStmt, err := p.parseChain(right)
	if err != nil {
		return nil, err
	}

	chainOp := ast.ChainAnd
	if op == lexer.OrOr {
		chainOp = ast.ChainOr
	}
	if rc, ok := rightStmt.(*ast.Chain); ok {
		links := append([]ast.ChainLink{{Op: chainOp, Stmt: rc.First}}, rc.Rest...)
		return &ast.Chain{First: leftStmt, Rest: links}, nil
	}
	return &ast.Chain{First: leftStmt, Rest: []ast.ChainLink{{Op: chainOp, Stmt: rightStmt}}}, nil
}

// parsePipelineStmt strips a trailing background marker, splits on unquoted
// '|' (but not '||', already ruled out by the caller's SplitLogical pass),
// and builds a Pipeline of 1..N command stages (spec.md §4.1, §4.7).
func (p *Parser) parsePipelineStmt(line string) (ast.Stmt, error) {
	stripped, background := lexer.StripBackground(line)

	segments, err := lexer.SplitPipeline(stripped)
	if err != nil {
		return nil, err
	}

	stages := make([]ast.Command, 0, len(segments))
	for _, seg := range segments {
		cmd, err := p.parseCommand(seg)
		if err != nil {
			return nil, err
		}
		stages = append(stages, cmd)
	}
	for i := range stages {
		stages[i].Stage = i
		stages[i].StageCount = len(stages)
	}

	if len(stages) == 1 && !background {
		return &stages[0], nil
	}
	return &ast.Pipeline{Stages: stages, Background: background}, nil
}

// redirOpFor identifies a redirection token by its literal text.
func redirOpFor(text string) (ast.RedirectOp, string, bool) {
	switch {
	case strings.HasPrefix(text, "<<"):
		return ast.RedirHeredoc, strings.TrimPrefix(text, "<<"), true
	case strings.HasPrefix(text, ">>"):
		return ast.RedirAppend, strings.TrimPrefix(text, ">>"), true
	case strings.HasPrefix(text, "<"):
		return ast.RedirIn, strings.TrimPrefix(text, "<"), true
	case strings.HasPrefix(text, ">"):
		return ast.RedirOut, strings.TrimPrefix(text, ">"), true
	default:
		return 0, "", false
	}
}

// parseCommand tokenizes one pipeline-stage string, expands its first word
// through the alias store, pulls out redirection operators/targets
// (spec.md §4.5 — removed from argv before exec), and for a heredoc target
// reads the body lines from the source, unsplit and untrimmed, until one
// exactly matches the delimiter (spec.md §4.5, design note "heredoc
// buffering").
func (p *Parser) parseCommand(seg string) (ast.Command, error) {
	line, err := lexer.Tokenize(seg)
	if err != nil {
		return ast.Command{}, err
	}

	words := line.Words
	if p.Aliases != nil {
		words, err = p.Aliases.Expand(words)
		if err != nil {
			return ast.Command{}, err
		}
	}

	var remaining []token.Word
	var redirects []ast.Redirect

	for i := 0; i < len(words); i++ {
		w := words[i]
		op, rest, ok := redirOpFor(w.Text)
		if !ok {
			remaining = append(remaining, w)
			continue
		}
		target := rest
		if target == "" {
			if i+1 >= len(words) {
				return ast.Command{}, &SyntaxError{Msg: "missing target for redirection"}
			}
			i++
			target = words[i].Text
		}
		r := ast.Redirect{Op: op, Target: target}
		if op == ast.RedirHeredoc {
			body, err := p.readHeredoc(target)
			if err != nil {
				return ast.Command{}, err
			}
			r.Body = body
		}
		redirects = append(redirects, r)
	}

	return ast.Command{Words: remaining, Redirects: redirects}, nil
}

func (p *Parser) readHeredoc(delim string) (string, error) {
	var body strings.Builder
	for {
		// Once the current physical line's logical lines are used up, body
		// lines are taken as whole physical lines, bypassing the ';' split
		// and its whitespace trimming.
		var line string
		var ok bool
		if p.q.buffered == nil && len(p.q.pending) == 0 {
			line, ok = p.q.phys.NextPhysicalLine()
		} else {
			line, ok = p.q.next()
		}
		if !ok {
			return "", &SyntaxError{Msg: "unterminated heredoc, expected " + delim}
		}
		if line == delim {
			return body.String(), nil
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
}
