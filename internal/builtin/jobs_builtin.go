package builtin

import "fmt"

// jobsBuiltin implements spec.md §4.6 `jobs`: list every job currently in
// the table with its id, state and command text.
func jobsBuiltin(ctx *Context, args []string) int {
	for _, j := range ctx.Jobs.All() {
		fmt.Fprintf(ctx.Stdout, "[%d] %s %s\n", j.ID, j.State, j.CommandText)
	}
	return 0
}
