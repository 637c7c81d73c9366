// Package termctl implements the terminal/signal manager of spec.md §4.9:
// it owns the controlling terminal's foreground process group, snapshots
// and restores termios around every foreground wait, and installs the
// interactive handlers that may only redraw the prompt (spec.md §5: "no
// shared state beyond what the readline-equivalent requires").
//
// golang.org/x/sys/unix supplies the primitives the teacher repo's own
// go.mod already pulls in transitively (pgid/termios ioctls have no stdlib
// surface); golang.org/x/term (direct dependency in toba-jig and
// tmc-covutil) is used for the terminal-size/IsTerminal queries that back
// the prompt rendering in spec.md §6.
package termctl

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Manager owns the shell's terminal-ownership discipline.
type Manager struct {
	fd         int
	interactive bool
	shellPGID  int
	saved      *unix.Termios
	sigCh      chan os.Signal
	onRedraw   func()
}

// New builds a Manager for the given file descriptor (normally
// os.Stdin.Fd()). interactive is false when stdin is not a tty (script or
// -c mode), in which case most of the discipline below is a no-op.
func New(fd int) *Manager {
	return &Manager{fd: fd, interactive: term.IsTerminal(fd)}
}

// Interactive reports whether the manager is driving a real terminal.
func (m *Manager) Interactive() bool { return m.interactive }

// Init performs spec.md §4.9's startup sequence: loop sending SIGTTIN to
// our own pgid until we are the foreground group, ignore the job-control
// signals, place the shell in its own pgid, grab the terminal, and
// snapshot termios.
func (m *Manager) Init() error {
	if !m.interactive {
		return nil
	}

	for {
		fg, err := unix.IoctlGetInt(m.fd, unix.TIOCGPGRP)
		if err != nil {
			return err
		}
		pgid := unix.Getpgrp()
		if fg == pgid {
			break
		}
		_ = unix.Kill(-pgid, unix.SIGTTIN)
	}

	IgnoreJobControlSignals()

	pid := unix.Getpid()
	if err := unix.Setpgid(pid, pid); err != nil {
		return err
	}
	m.shellPGID = pid

	if err := unix.IoctlSetInt(m.fd, unix.TIOCSPGRP, pid); err != nil {
		return err
	}

	termios, err := unix.IoctlGetTermios(m.fd, unix.TCGETS)
	if err != nil {
		return err
	}
	m.saved = termios
	return nil
}

// InstallPromptRedraw wires SIGINT/SIGTSTP, while the shell itself (not a
// foreground job) holds the terminal, to redraw the prompt and nothing
// else (spec.md §4.9, §5 — "signal handlers... set no shared state").
func (m *Manager) InstallPromptRedraw(redraw func()) {
	if !m.interactive {
		return
	}
	m.onRedraw = redraw
	m.sigCh = make(chan os.Signal, 4)
	signal.Notify(m.sigCh, unix.SIGINT, unix.SIGTSTP)
	go func() {
		for range m.sigCh {
			if m.onRedraw != nil {
				m.onRedraw()
			}
		}
	}()
}

// Stop tears down the prompt-redraw signal relay.
func (m *Manager) Stop() {
	if m.sigCh != nil {
		signal.Stop(m.sigCh)
		close(m.sigCh)
		m.sigCh = nil
	}
}

// ShellPGID returns the shell process's own process group id.
func (m *Manager) ShellPGID() int { return m.shellPGID }

// GrantForeground sets pgid as the terminal's foreground process group.
func (m *Manager) GrantForeground(pgid int) error {
	if !m.interactive {
		return nil
	}
	return unix.IoctlSetInt(m.fd, unix.TIOCSPGRP, pgid)
}

// ReclaimForeground restores the shell's own pgid as the terminal's
// foreground group and restores the saved termios, unconditionally, on
// every exit path from a foreground wait (spec.md §4.9, §8 Testable
// Properties).
func (m *Manager) ReclaimForeground() {
	if !m.interactive {
		return
	}
	_ = unix.IoctlSetInt(m.fd, unix.TIOCSPGRP, m.shellPGID)
	if m.saved != nil {
		_ = unix.IoctlSetTermios(m.fd, unix.TCSETS, m.saved)
	}
}

// ForegroundPGID reports the terminal's current foreground process group,
// for the "background jobs never occupy the terminal" testable property
// (spec.md §8).
func (m *Manager) ForegroundPGID() (int, error) {
	return unix.IoctlGetInt(m.fd, unix.TIOCGPGRP)
}

// ResetChildSignals restores the five job-control signals to their default
// disposition in a freshly forked child, before exec (spec.md §4.9: "Every
// forked child, before exec, restores these five signals to their default
// disposition"). Go gives no hook to run code between fork and exec, so the
// caller runs this in the parent immediately before Start(): the kernel
// copies the process's signal disposition table at fork time, so a child
// forked while dispositions read SIG_DFL inherits SIG_DFL (which, like
// SIG_IGN, survives execve), and IgnoreJobControlSignals puts the shell's
// own ignore back once Start() returns.
func ResetChildSignals() {
	for _, sig := range []os.Signal{unix.SIGINT, unix.SIGQUIT, unix.SIGTSTP, unix.SIGTTIN, unix.SIGTTOU} {
		signal.Reset(sig)
	}
}

// IgnoreJobControlSignals re-installs the shell's own ignore disposition
// for the five job-control signals; paired with ResetChildSignals around a
// fork/exec (see above) and used by Init to establish it at startup.
func IgnoreJobControlSignals() {
	for _, sig := range []os.Signal{unix.SIGINT, unix.SIGQUIT, unix.SIGTSTP, unix.SIGTTIN, unix.SIGTTOU} {
		signal.Ignore(sig)
	}
}

// TerminalWidth returns the terminal's column count, or a sane default for
// non-interactive use (spec.md §6 prompt truncation).
func (m *Manager) TerminalWidth() int {
	if !m.interactive {
		return 80
	}
	w, _, err := term.GetSize(m.fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// SetpgidChild is the parent-side half of the process-group race: the
// parent calls this right after starting a stage to place it in pgid,
// which is the stage's own pid when it is the pipeline leader. The child
// makes the same move itself before exec (SysProcAttr Setpgid/Pgid), so
// the race is covered regardless of scheduling order (spec.md §9 design
// note "process-group race" — this call is idempotent and must remain in
// any port).
func SetpgidChild(pid, pgid int) error {
	err := unix.Setpgid(pid, pgid)
	if err == syscall.EACCES || err == syscall.EPERM {
		// Benign: the child may already have exec'd and changed its own
		// pgid, or the parent already won the race.
		return nil
	}
	return err
}
