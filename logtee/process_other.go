//go:build !unix

package logtee

import (
	"os"
	"os/exec"
)

var interruptSignals = []os.Signal{os.Interrupt}

// startInGroup does nothing; signals go to the command alone.
func startInGroup(*exec.Cmd) {}

func signalGroup(p *os.Process, sig os.Signal) error {
	return p.Signal(sig)
}

func signalExit(*os.ProcessState) (int, bool) {
	return 0, false
}
