package builtin

import "fmt"

// source implements spec.md §4.6 `source FILE` (and its `.` alias): parse
// and evaluate FILE in the current shell process, so its assignments and
// function definitions persist.
func source(ctx *Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(ctx.Stderr, "ash: source: missing file operand")
		return 1
	}
	if ctx.SourceFile == nil {
		fmt.Fprintln(ctx.Stderr, "ash: source: unavailable")
		return 1
	}
	status, err := ctx.SourceFile(args[0])
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "ash: source: %v\n", err)
		return 1
	}
	return status
}
