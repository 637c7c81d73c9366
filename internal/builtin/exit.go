package builtin

import "strconv"

// exitBuiltin implements spec.md §4.6 `exit`: terminate the shell with the
// current last_status, or an explicit status if given.
func exitBuiltin(ctx *Context, args []string) int {
	status := ctx.LastStatus
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			status = n
		}
	}
	if ctx.Exit != nil {
		*ctx.Exit = true
	}
	return status
}
