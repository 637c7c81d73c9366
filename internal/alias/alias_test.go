package alias

import (
	"testing"

	"github.com/aledsdavies/ash/internal/lexer"
	"github.com/aledsdavies/ash/internal/token"
)

func wordsOf(t *testing.T, line string) []token.Word {
	t.Helper()
	l, err := lexer.Tokenize(line)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", line, err)
	}
	return l.Words
}

func textsOf(words []token.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}

func TestSetGetUnset(t *testing.T) {
	s := New()
	if _, ok := s.Get("ll"); ok {
		t.Fatalf("unset alias should not be found")
	}
	s.Set("ll", "ls -l")
	text, ok := s.Get("ll")
	if !ok || text != "ls -l" {
		t.Fatalf("Get(ll) = %q, %v, want ls -l, true", text, ok)
	}
	s.Unset("ll")
	if _, ok := s.Get("ll"); ok {
		t.Fatalf("ll should be gone after Unset")
	}
}

func TestAll(t *testing.T) {
	s := New()
	s.Set("b", "2")
	s.Set("a", "1")
	got := s.All()
	want := []string{"a=1", "b=2"}
	if len(got) != len(want) {
		t.Fatalf("All() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandFirstWordOnly(t *testing.T) {
	s := New()
	s.Set("ll", "ls -l")

	in := wordsOf(t, "ll /tmp")
	out, err := s.Expand(in)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	got := textsOf(out)
	want := []string{"ls", "-l", "/tmp"}
	if len(got) != len(want) {
		t.Fatalf("Expand = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expand()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandRecursive(t *testing.T) {
	s := New()
	s.Set("a", "b")
	s.Set("b", "echo hi")

	out, err := s.Expand(wordsOf(t, "a"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	got := textsOf(out)
	want := []string{"echo", "hi"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Expand = %v, want %v", got, want)
	}
}

func TestExpandBoundedAtMaxExpansions(t *testing.T) {
	s := New()
	// A definition cycle: a -> a, must not loop forever.
	s.Set("a", "a")

	out, err := s.Expand(wordsOf(t, "a"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 1 || out[0].Text != "a" {
		t.Fatalf("Expand of a self-referential alias = %v, want [a] after hitting the bound", textsOf(out))
	}
}

func TestExpandSuppressedWhenQuoted(t *testing.T) {
	s := New()
	s.Set("ll", "ls -l")

	in := wordsOf(t, `'ll' /tmp`)
	out, err := s.Expand(in)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	got := textsOf(out)
	want := []string{"ll", "/tmp"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("Expand of a quoted first word = %v, want %v (unexpanded)", got, want)
	}
}

func TestExpandNoMatchIsNoop(t *testing.T) {
	s := New()
	in := wordsOf(t, "echo hi")
	out, err := s.Expand(in)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("Expand with no alias match changed word count: %v", textsOf(out))
	}
}
