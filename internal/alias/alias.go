// Package alias implements the alias store and first-word expansion of
// spec.md §3 and §4.2: name→replacement-text substitution that only ever
// triggers on the first word of a command, bounded to 10 iterations.
package alias

import (
	"sort"
	"sync"

	"github.com/aledsdavies/ash/internal/lexer"
	"github.com/aledsdavies/ash/internal/token"
)

// MaxExpansions is the recursion bound from spec.md §4.2.
const MaxExpansions = 10

// Store is the process-wide name->replacement-text table.
type Store struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// New returns an empty alias store.
func New() *Store {
	return &Store{aliases: make(map[string]string)}
}

// Set records or replaces an alias definition.
func (s *Store) Set(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[name] = text
}

// Unset removes an alias definition.
func (s *Store) Unset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.aliases, name)
}

// Get returns an alias's replacement text.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.aliases[name]
	return text, ok
}

// All returns every (name, text) pair sorted by name, for the `alias`
// builtin with no arguments (spec.md §4.6).
func (s *Store) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.aliases))
	for n := range s.aliases {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n+"="+s.aliases[n])
	}
	return out
}

// Expand replaces the first word of words with its alias expansion,
// retrying until no alias matches or MaxExpansions iterations have run
// (spec.md §4.2, Testable Properties: "Alias expansion terminates in at
// most 10 substitutions for any definition graph").
//
// Expansion is suppressed when the first word was quoted, since quoting is
// the only way the source text could escape being treated as an alias
// trigger (spec.md §4.2, §9 Open Questions: "alias expansion does not
// honor quoting of the first word" in the original — ash fixes this
// ambiguity by checking the was-quoted bit the tokenizer already carries).
func (s *Store) Expand(words []token.Word) ([]token.Word, error) {
	for i := 0; i < MaxExpansions; i++ {
		if len(words) == 0 || words[0].WasQuoted() {
			return words, nil
		}
		text, ok := s.Get(words[0].Text)
		if !ok {
			return words, nil
		}
		replacement, err := tokenizeReplacement(text)
		if err != nil {
			return nil, err
		}
		words = append(replacement, words[1:]...)
	}
	return words, nil
}

func tokenizeReplacement(text string) ([]token.Word, error) {
	line, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return line.Words, nil
}
