package builtin

import "fmt"

// historyBuiltin implements spec.md §4.6 `history`: print every recorded
// entry, 1-indexed, matching original_source/src/history.c's show_history.
func historyBuiltin(ctx *Context, args []string) int {
	for i, line := range ctx.History.List() {
		fmt.Fprintf(ctx.Stdout, "%d: %s\n", i+1, line)
	}
	return 0
}
