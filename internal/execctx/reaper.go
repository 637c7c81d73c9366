package execctx

import (
	"fmt"

	"github.com/aledsdavies/ash/internal/job"
	"golang.org/x/sys/unix"
)

// waitForeground implements the foreground half of spec.md §4.8: grant the
// group the terminal, block on its pgid until a member stops or every
// member has exited, and reclaim the terminal unconditionally on every
// exit path (spec.md §4.9, §8 Testable Properties).
func (x *Executor) waitForeground(j *job.Job) (int, error) {
	if err := x.Term.GrantForeground(j.PGID); err != nil && x.Debug != 0 {
		fmt.Fprintf(x.Stderr, "ash: debug: GrantForeground: %v\n", err)
	}
	defer x.Term.ReclaimForeground()

	lastPID := j.MemberPIDs[len(j.MemberPIDs)-1]
	remaining := len(j.MemberPIDs)
	lastStatus := 0
	for remaining > 0 {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-j.PGID, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			break
		}
		if ws.Stopped() {
			j.State = job.Stopped
			j.Notified = true
			fmt.Fprintf(x.Stderr, "[%d] Stopped: %s\n", j.ID, j.CommandText)
			return 128 + int(unix.SIGTSTP), nil
		}
		remaining--
		if pid == lastPID {
			lastStatus = statusFrom(ws)
		}
	}

	x.Jobs.Remove(j.ID)
	return lastStatus, nil
}

func statusFrom(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		return 0
	}
}

// reapGroup blocks until count members of pgid have been reaped, used to
// clean up after a failed pipeline start (spec.md §7: process-management
// errors never leave zombies behind).
func (x *Executor) reapGroup(pgid int, count int) {
	for count > 0 {
		var ws unix.WaitStatus
		_, err := unix.Wait4(-pgid, &ws, 0, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return
		}
		if ws.Stopped() {
			continue
		}
		count--
	}
}

// Reap implements spec.md §4.8's async reaper: a single non-blocking poll
// of every child, invoked at the top of each read-eval iteration. Each
// transition is reported at most once: a stop is reported only for a job
// not already in the Stopped state, and a Done job's slot is released
// immediately after its notice is printed.
func (x *Executor) Reap() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED, nil)
		if err != nil || pid <= 0 {
			return
		}
		j := x.Jobs.ByPID(pid)
		if j == nil {
			continue
		}
		switch {
		case ws.Stopped():
			if j.State != job.Stopped {
				j.State = job.Stopped
				fmt.Fprintf(x.Stderr, "[%d] Stopped: %s\n", j.ID, j.CommandText)
			}
		case ws.Exited() || ws.Signaled():
			if pid != j.LeaderPID {
				continue
			}
			j.State = job.Done
			fmt.Fprintf(x.Stderr, "[%d] Done: %s\n", j.ID, j.CommandText)
			x.Jobs.Remove(j.ID)
		}
	}
}
