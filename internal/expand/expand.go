// Package expand implements the expander of spec.md §4.3: for each word,
// apply command substitution -> arithmetic expansion -> variable expansion
// -> (on words not entirely produced inside quotes) pathname expansion.
//
// Alias expansion (spec.md §4.2) happens earlier, in the parser, since it
// only ever touches the first word of a command and must happen before
// this per-word pipeline runs.
package expand

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/ash/internal/arith"
	"github.com/aledsdavies/ash/internal/glob"
	"github.com/aledsdavies/ash/internal/token"
	"github.com/aledsdavies/ash/internal/vars"
)

// Runner executes a command line and returns its captured stdout, for
// command substitution. The executor supplies this, so expand stays
// decoupled from process management.
type Runner func(cmdline string) (string, error)

// Expander holds the variable store and positional-parameter frame used to
// resolve $NAME / $1.. references, plus the Runner for command
// substitution.
type Expander struct {
	Vars       *vars.Store
	Positional *vars.Positional
	Run        Runner
}

// Word expands a single tokenized word into zero or more resulting argv
// words (glob expansion can fan one word out into many).
func (e *Expander) Word(w token.Word) ([]string, error) {
	text, err := e.ExpandScalar(w.Text)
	if err != nil {
		return nil, err
	}

	if w.EntirelyQuoted() || !glob.HasMeta(text) {
		return []string{text}, nil
	}
	return glob.Expand(text), nil
}

// ExpandScalar applies command substitution, arithmetic expansion and
// variable expansion to a raw string, without pathname expansion — for
// contexts like a `case` word that are never eligible for globbing
// regardless of quoting (spec.md §4.4).
func (e *Expander) ExpandScalar(text string) (string, error) {
	text, err := e.expandCommandSubstitution(text)
	if err != nil {
		return "", err
	}
	text, err = e.expandArithmetic(text)
	if err != nil {
		return "", err
	}
	return e.expandVariables(text), nil
}

// Words expands an entire word vector, in order, flattening glob fan-out.
func (e *Expander) Words(ws []token.Word) ([]string, error) {
	var out []string
	for _, w := range ws {
		expanded, err := e.Word(w)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// expandCommandSubstitution replaces every $(...) and `...` construct with
// its captured output, one trailing newline stripped. Nested $(...) is
// recognized via paren depth (spec.md §4.3).
func (e *Expander) expandCommandSubstitution(text string) (string, error) {
	for {
		// "$((" opens an arithmetic expansion, not a command substitution;
		// skip past it so expandArithmetic sees it intact.
		start := -1
		for off := 0; ; {
			i := strings.Index(text[off:], "$(")
			if i == -1 {
				break
			}
			i += off
			if i+2 < len(text) && text[i+2] == '(' {
				off = i + 3
				continue
			}
			start = i
			break
		}
		backtick := strings.IndexByte(text, '`')
		if start == -1 && backtick == -1 {
			return text, nil
		}
		if start != -1 && (backtick == -1 || start < backtick) {
			end, depth := -1, 0
			for i := start + 1; i < len(text); i++ {
				switch text[i] {
				case '(':
					depth++
				case ')':
					depth--
					if depth == 0 {
						end = i
					}
				}
				if end != -1 {
					break
				}
			}
			if end == -1 {
				return "", fmt.Errorf("ash: unterminated command substitution")
			}
			inner := text[start+2 : end]
			out, err := e.runCaptured(inner)
			if err != nil {
				return "", err
			}
			text = text[:start] + out + text[end+1:]
			continue
		}
		// backtick form
		end := strings.IndexByte(text[backtick+1:], '`')
		if end == -1 {
			return "", fmt.Errorf("ash: unterminated command substitution")
		}
		end += backtick + 1
		inner := text[backtick+1 : end]
		out, err := e.runCaptured(inner)
		if err != nil {
			return "", err
		}
		text = text[:backtick] + out + text[end+1:]
	}
}

func (e *Expander) runCaptured(cmdline string) (string, error) {
	if e.Run == nil {
		return "", fmt.Errorf("ash: command substitution unavailable")
	}
	out, err := e.Run(cmdline)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(out, "\n"), nil
}

// expandArithmetic replaces $((expr)) constructs with their evaluated
// decimal value.
func (e *Expander) expandArithmetic(text string) (string, error) {
	for {
		start := strings.Index(text, "$((")
		if start == -1 {
			return text, nil
		}
		depth := 0
		end := -1
		for i := start + 3; i < len(text)-1; i++ {
			if text[i] == '(' {
				depth++
			}
			if text[i] == ')' && text[i+1] == ')' && depth == 0 {
				end = i
				break
			}
			if text[i] == ')' {
				depth--
			}
		}
		if end == -1 {
			return "", fmt.Errorf("ash: unterminated arithmetic expansion")
		}
		inner := text[start+3 : end]
		val, err := arith.Eval(inner, e.lookupInt)
		if err != nil {
			return "", err
		}
		text = fmt.Sprintf("%s%d%s", text[:start], val, text[end+2:])
	}
}

func (e *Expander) lookupInt(name string) (int64, bool) {
	var s string
	var ok bool
	if n := positionalIndex(name); n >= 0 {
		s, ok = e.Positional.Get(n)
	} else {
		s, ok = e.Vars.Get(name)
	}
	if !ok || s == "" {
		return 0, ok
	}
	var v int64
	_, err := fmt.Sscanf(s, "%d", &v)
	if err != nil {
		return 0, false
	}
	return v, true
}

// expandVariables replaces every $NAME (and embedded prefix$NAMEsuffix)
// reference with its value, undefined -> "".
func (e *Expander) expandVariables(text string) string {
	var out strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '$' || i+1 >= len(runes) {
			out.WriteRune(runes[i])
			continue
		}
		// ${NAME} form
		if runes[i+1] == '{' {
			end := i + 2
			for end < len(runes) && runes[end] != '}' {
				end++
			}
			if end < len(runes) {
				name := string(runes[i+2 : end])
				out.WriteString(e.resolve(name))
				i = end
				continue
			}
		}
		// $1..$9 positional reference: exactly one digit, so "$1x"
		// expands $1 and leaves "x" as literal text.
		if runes[i+1] >= '1' && runes[i+1] <= '9' {
			name := string(runes[i+1])
			out.WriteString(e.resolve(name))
			i++
			continue
		}
		if isNameStart(runes[i+1]) {
			j := i + 1
			for j < len(runes) && isNamePart(runes[j]) {
				j++
			}
			name := string(runes[i+1 : j])
			out.WriteString(e.resolve(name))
			i = j - 1
			continue
		}
		out.WriteRune(runes[i])
	}
	return out.String()
}

func (e *Expander) resolve(name string) string {
	if n := positionalIndex(name); n >= 0 {
		v, _ := e.Positional.Get(n)
		return v
	}
	v, _ := e.Vars.Get(name)
	return v
}

func positionalIndex(name string) int {
	if len(name) != 1 || name[0] < '1' || name[0] > '9' {
		return -1
	}
	return int(name[0] - '0')
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNamePart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsAssignment reports whether every token of a simple command has the
// shape NAME=VALUE, in which case the command is a sequence of variable
// assignments with no external execution (spec.md §4.3).
func IsAssignment(words []string) (assignments map[string]string, ok bool) {
	if len(words) == 0 {
		return nil, false
	}
	out := make(map[string]string, len(words))
	for _, w := range words {
		idx := strings.IndexByte(w, '=')
		if idx <= 0 {
			return nil, false
		}
		name := w[:idx]
		if !vars.ValidName(name) {
			return nil, false
		}
		out[name] = w[idx+1:]
	}
	return out, true
}
