package vars

// Positional holds the current positional-parameter vector ($1..$N). The
// script's own ARG1.. live at the bottom frame (spec.md §6); a function
// call pushes a new frame so returning restores the caller's parameters
// (spec.md §3: "Functions share the global variable namespace; positional
// parameters are set on entry").
type Positional struct {
	frames [][]string
}

// NewPositional seeds the bottom frame from the script/-c invocation args.
func NewPositional(args []string) *Positional {
	return &Positional{frames: [][]string{args}}
}

// Push enters a function call with its own argument vector.
func (p *Positional) Push(args []string) {
	p.frames = append(p.frames, args)
}

// Pop returns from a function call, restoring the caller's parameters.
func (p *Positional) Pop() {
	if len(p.frames) > 1 {
		p.frames = p.frames[:len(p.frames)-1]
	}
}

// Get resolves $1..$9 (1-indexed) from the current frame; out-of-range
// resolves to "" with ok=false, same as an undefined variable.
func (p *Positional) Get(n int) (string, bool) {
	frame := p.frames[len(p.frames)-1]
	if n < 1 || n > len(frame) {
		return "", false
	}
	return frame[n-1], true
}

// All returns the current frame's full argument vector.
func (p *Positional) All() []string {
	return p.frames[len(p.frames)-1]
}
