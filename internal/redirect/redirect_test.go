package redirect

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aledsdavies/ash/internal/ast"
)

func TestApplyNoRedirectsReturnsDefaults(t *testing.T) {
	in, out := os.Stdin, os.Stdout
	stdin, stdout, applied, err := Apply(nil, in, out)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer applied.Close()
	if stdin != in || stdout != out {
		t.Errorf("Apply with no redirects should return the defaults unchanged")
	}
}

func TestApplyRedirOut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	redirects := []ast.Redirect{{Op: ast.RedirOut, Target: path}}

	_, stdout, applied, err := Apply(redirects, os.Stdin, os.Stdout)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	stdout.WriteString("hello")
	applied.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("file content = %q, want hello", data)
	}
}

func TestApplyRedirAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("first-"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	redirects := []ast.Redirect{{Op: ast.RedirAppend, Target: path}}

	_, stdout, applied, err := Apply(redirects, os.Stdin, os.Stdout)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	stdout.WriteString("second")
	applied.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "first-second" {
		t.Errorf("file content = %q, want first-second", data)
	}
}

func TestApplyRedirIn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	redirects := []ast.Redirect{{Op: ast.RedirIn, Target: path}}

	stdin, _, applied, err := Apply(redirects, os.Stdin, os.Stdout)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer applied.Close()
	data, err := io.ReadAll(stdin)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("read = %q, want payload", data)
	}
}

func TestApplyRedirInMissingFile(t *testing.T) {
	redirects := []ast.Redirect{{Op: ast.RedirIn, Target: "/nonexistent/path/surely"}}
	_, _, applied, err := Apply(redirects, os.Stdin, os.Stdout)
	if err == nil {
		applied.Close()
		t.Fatal("expected an error opening a nonexistent file")
	}
}

func TestApplyHeredoc(t *testing.T) {
	redirects := []ast.Redirect{{Op: ast.RedirHeredoc, Target: "EOF", Body: "line one\nline two\n"}}
	stdin, _, applied, err := Apply(redirects, os.Stdin, os.Stdout)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer applied.Close()
	data, err := io.ReadAll(stdin)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "line one\nline two\n" {
		t.Errorf("heredoc content = %q, want line one\\nline two\\n", data)
	}
}

func TestApplyLaterRedirectWins(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "first.txt")
	p2 := filepath.Join(dir, "second.txt")
	redirects := []ast.Redirect{
		{Op: ast.RedirOut, Target: p1},
		{Op: ast.RedirOut, Target: p2},
	}
	_, stdout, applied, err := Apply(redirects, os.Stdin, os.Stdout)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	stdout.WriteString("data")
	applied.Close()

	if _, err := os.Stat(p2); err != nil {
		t.Fatalf("second.txt should exist: %v", err)
	}
	data, _ := os.ReadFile(p2)
	if string(data) != "data" {
		t.Errorf("second.txt content = %q, want data", data)
	}
}
