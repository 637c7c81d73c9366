package builtin

import (
	"fmt"
	"strconv"

	"github.com/aledsdavies/ash/internal/arith"
)

// let implements spec.md §4.6 `let EXPR...`: evaluate each argument as an
// arithmetic expression; last_status is 0 iff the final value is nonzero,
// matching the shell convention that "let" reports truth, not exit success.
func let(ctx *Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(ctx.Stderr, "ash: let: missing expression")
		return 1
	}
	var last int64
	for _, expr := range args {
		v, err := arith.Eval(expr, func(name string) (int64, bool) {
			s, ok := ctx.Vars.Get(name)
			if !ok || s == "" {
				return 0, ok
			}
			n, perr := strconv.ParseInt(s, 10, 64)
			return n, perr == nil
		})
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "ash: let: %v\n", err)
			return 1
		}
		last = v
	}
	if last != 0 {
		return 0
	}
	return 1
}
