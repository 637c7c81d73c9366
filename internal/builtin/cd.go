package builtin

import "fmt"

// cd implements spec.md §4.6 `cd [DIR]`: DIR defaults to $HOME.
func cd(ctx *Context, args []string) int {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	} else {
		home, ok := ctx.Vars.Get("HOME")
		if !ok || home == "" {
			fmt.Fprintln(ctx.Stderr, "ash: cd: HOME not set")
			return 1
		}
		dir = home
	}
	if err := ctx.Chdir(dir); err != nil {
		fmt.Fprintf(ctx.Stderr, "ash: cd: %v\n", err)
		return 1
	}
	if cwd, err := ctx.Cwd(); err == nil {
		ctx.Vars.Set("PWD", cwd)
	}
	return 0
}
