// Package redirect implements the redirection applier of spec.md §4.5:
// opening files or heredoc buffers and returning the stdin/stdout a stage
// should start with; the caller binds them before exec.
package redirect

import (
	"fmt"
	"os"

	"github.com/aledsdavies/ash/internal/ast"
)

// Applied holds resources opened while applying redirections, so the
// caller can close them once the command has started (or failed to).
type Applied struct {
	files []*os.File
}

// Close releases every file opened while applying redirections. Safe to
// call after cmd.Start(): the child has its own fd table by then.
func (a *Applied) Close() {
	for _, f := range a.files {
		_ = f.Close()
	}
}

// Apply opens files/heredoc buffers for each redirection and rebinds the
// returned stdin/stdout onto them, falling back to the supplied defaults
// when a given descriptor isn't redirected. The heredoc body is written to
// a temp file and rewound before exec — not a live pipe — precisely so it
// is "fully populated... before the child execs" per the design note in
// spec.md §9 ("heredoc buffering"): a temp file can never make the child
// block on an empty/unfilled pipe.
func Apply(redirects []ast.Redirect, defaultIn, defaultOut *os.File) (stdin, stdout *os.File, applied *Applied, err error) {
	stdin, stdout = defaultIn, defaultOut
	applied = &Applied{}

	for _, r := range redirects {
		switch r.Op {
		case ast.RedirIn:
			f, oerr := os.OpenFile(r.Target, os.O_RDONLY, 0)
			if oerr != nil {
				applied.Close()
				return nil, nil, nil, fmt.Errorf("ash: %w", oerr)
			}
			applied.files = append(applied.files, f)
			stdin = f

		case ast.RedirOut:
			f, oerr := os.OpenFile(r.Target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if oerr != nil {
				applied.Close()
				return nil, nil, nil, fmt.Errorf("ash: %w", oerr)
			}
			applied.files = append(applied.files, f)
			stdout = f

		case ast.RedirAppend:
			f, oerr := os.OpenFile(r.Target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if oerr != nil {
				applied.Close()
				return nil, nil, nil, fmt.Errorf("ash: %w", oerr)
			}
			applied.files = append(applied.files, f)
			stdout = f

		case ast.RedirHeredoc:
			f, terr := os.CreateTemp("", "ash-heredoc-*")
			if terr != nil {
				applied.Close()
				return nil, nil, nil, fmt.Errorf("ash: %w", terr)
			}
			_ = os.Remove(f.Name()) // unlink now; fd stays valid until closed
			if _, werr := f.WriteString(r.Body); werr != nil {
				f.Close()
				applied.Close()
				return nil, nil, nil, fmt.Errorf("ash: %w", werr)
			}
			if _, serr := f.Seek(0, 0); serr != nil {
				f.Close()
				applied.Close()
				return nil, nil, nil, fmt.Errorf("ash: %w", serr)
			}
			applied.files = append(applied.files, f)
			stdin = f
		}
	}

	return stdin, stdout, applied, nil
}
