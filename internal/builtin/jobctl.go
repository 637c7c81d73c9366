package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aledsdavies/ash/internal/job"
)

// fg implements spec.md §4.6/§4.8 `fg ID`: continue_job(foreground) — mark
// the job Running, grant it the terminal, SIGCONT the group, then block
// until it stops or exits.
func fg(ctx *Context, args []string) int {
	j, err := ctx.resolveJob(args)
	if err != nil {
		fmt.Fprintln(ctx.Stderr, err)
		return 1
	}
	if ctx.Continue == nil {
		fmt.Fprintln(ctx.Stderr, "ash: fg: unavailable")
		return 1
	}
	status, err := ctx.Continue(j, true)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "ash: fg: %v\n", err)
		return 1
	}
	return status
}

// bg implements spec.md §4.6/§4.8 `bg ID`: continue_job(background) — mark
// Running and SIGCONT the group, without waiting or touching the terminal.
func bg(ctx *Context, args []string) int {
	j, err := ctx.resolveJob(args)
	if err != nil {
		fmt.Fprintln(ctx.Stderr, err)
		return 1
	}
	if ctx.Continue == nil {
		fmt.Fprintln(ctx.Stderr, "ash: bg: unavailable")
		return 1
	}
	if _, err := ctx.Continue(j, false); err != nil {
		fmt.Fprintf(ctx.Stderr, "ash: bg: %v\n", err)
		return 1
	}
	return 0
}

func (ctx *Context) resolveJob(args []string) (*job.Job, error) {
	var id int
	var err error
	if len(args) == 0 {
		id, err = latestJobID(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		arg := strings.TrimPrefix(args[0], "%")
		id, err = strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("ash: %s: no such job", args[0])
		}
	}
	j := ctx.Jobs.Get(id)
	if j == nil {
		return nil, fmt.Errorf("ash: %d: no such job", id)
	}
	return j, nil
}

func latestJobID(ctx *Context) (int, error) {
	all := ctx.Jobs.All()
	if len(all) == 0 {
		return 0, fmt.Errorf("ash: no current job")
	}
	return all[len(all)-1].ID, nil
}
