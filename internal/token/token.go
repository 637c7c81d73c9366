// Package token defines the word/token representation produced by the
// tokenizer (spec.md §3 Word, §4.1 Tokenizer/Splitter).
package token

// Kind classifies a Word by how the tokenizer built it, which is all the
// provenance the expander needs to decide whether a word participates in
// later splitting/globbing (spec.md §3, design note "was-quoted provenance").
type Kind int

const (
	// Bare is a word with no quoting at all.
	Bare Kind = iota
	// SingleQuoted is a word built entirely from within '...'.
	SingleQuoted
	// DoubleQuoted is a word built entirely from within "...".
	DoubleQuoted
	// Mixed is a word assembled from more than one quoting state
	// (e.g. foo"bar"baz or foo'bar'$x), or with unquoted segments mixed
	// with quoted ones.
	Mixed
)

// Word is one whitespace-delimited unit produced by the tokenizer.
//
// Quoted tracks, per rune of Text, whether that rune came from inside a
// quoted region. The expander consults it through EntirelyQuoted: a word
// whose every rune was quoted is never globbed, while a word with any
// unquoted rune is globbed as a whole (spec.md §4.3). No field splitting
// is done on expansion results.
type Word struct {
	Text   string
	Kind   Kind
	Quoted []bool // len(Quoted) == len([]rune(Text))
}

// WasQuoted reports whether the word was built from any quoted input at
// all. Alias expansion (spec.md §4.2) is suppressed for a first word that
// was quoted, since quoting could only have come from the user explicitly
// escaping what would otherwise be an alias trigger.
func (w Word) WasQuoted() bool {
	return w.Kind != Bare
}

// EntirelyQuoted reports whether every rune of the word came from inside a
// quoted region. Such words are never eligible for glob expansion
// (spec.md §4.3: "a word containing any of * ? [ is expanded... on words
// not entirely produced inside quotes").
func (w Word) EntirelyQuoted() bool {
	if len(w.Quoted) == 0 {
		return false
	}
	for _, q := range w.Quoted {
		if !q {
			return false
		}
	}
	return true
}

// Line is an ordered sequence of words produced from one raw pipeline-stage
// string by the tokenizer (spec.md §4.1).
type Line struct {
	Words []Word
}
