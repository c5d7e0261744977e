//go:build unix

package logtee

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// interruptSignals are relayed to the command. The first is also sent when
// the context is cancelled.
var interruptSignals = []os.Signal{unix.SIGINT, unix.SIGTERM}

// startInGroup makes the command lead a process group of its own, so a
// signal reaches everything it spawned.
func startInGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup delivers sig to the group led by p.
func signalGroup(p *os.Process, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return p.Signal(sig)
	}
	return unix.Kill(-p.Pid, s)
}

// signalExit maps death by signal n to the shell's 128+n.
func signalExit(ps *os.ProcessState) (int, bool) {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return 128 + int(ws.Signal()), true
}
