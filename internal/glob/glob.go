// Package glob implements the pathname-expansion rules of spec.md §4.3: a
// word containing any of `* ? [` is expanded against the filesystem; no
// match is not an error, the literal word is kept. Grounded on
// original_source/src/globbing.c, which supports exactly these three
// constructs — no `**`, no brace expansion, no extended globs.
package glob

import (
	"path/filepath"
	"sort"
	"strings"
)

// HasMeta reports whether word contains any glob metacharacter.
func HasMeta(word string) bool {
	return strings.ContainsAny(word, "*?[")
}

// Expand matches word (a path possibly containing glob metacharacters)
// against the filesystem, returning the sorted set of matches. If nothing
// matches, it returns the literal word unchanged, per spec.md §4.3.
func Expand(word string) []string {
	if !HasMeta(word) {
		return []string{word}
	}
	matches, err := filepath.Glob(word)
	if err != nil || len(matches) == 0 {
		return []string{word}
	}
	sort.Strings(matches)
	return matches
}

// MatchPattern reports whether name matches a glob-style pattern using the
// same `*`, `?`, and bracket-class constructs, for `case` arm matching
// (spec.md §4.4).
func MatchPattern(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
