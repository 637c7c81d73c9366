package builtin

import (
	"fmt"
	"strings"
)

// aliasBuiltin implements spec.md §4.6 `alias`: with no arguments, list
// every alias; each `NAME=TEXT` argument defines or replaces one, with
// surrounding quotes stripped if present.
func aliasBuiltin(ctx *Context, args []string) int {
	if len(args) == 0 {
		for _, a := range ctx.Aliases.All() {
			fmt.Fprintln(ctx.Stdout, a)
		}
		return 0
	}
	status := 0
	for _, a := range args {
		idx := strings.IndexByte(a, '=')
		if idx <= 0 {
			text, ok := ctx.Aliases.Get(a)
			if !ok {
				fmt.Fprintf(ctx.Stderr, "ash: alias: %s: not found\n", a)
				status = 1
				continue
			}
			fmt.Fprintf(ctx.Stdout, "%s=%s\n", a, text)
			continue
		}
		name, text := a[:idx], a[idx+1:]
		ctx.Aliases.Set(name, unquote(text))
	}
	return status
}

// unalias implements spec.md §4.6 `unalias`.
func unalias(ctx *Context, args []string) int {
	for _, name := range args {
		ctx.Aliases.Unset(name)
	}
	return 0
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
