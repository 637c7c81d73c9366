package builtin

import (
	"fmt"
	"strings"
)

// export implements spec.md §4.6 `export NAME[=VAL]...`: set and mark
// exported, mirroring into the process environment. With no VAL, the
// variable's existing value (or empty, if it was never set) is exported.
func export(ctx *Context, args []string) int {
	for _, a := range args {
		if idx := strings.IndexByte(a, '='); idx >= 0 {
			name, val := a[:idx], a[idx+1:]
			ctx.Vars.Export(name, &val)
			continue
		}
		if !isValidExportName(a) {
			fmt.Fprintf(ctx.Stderr, "ash: export: %q: not a valid identifier\n", a)
			return 1
		}
		ctx.Vars.Export(a, nil)
	}
	return 0
}

func isValidExportName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
