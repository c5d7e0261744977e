package logtee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dkoosis/logtee/internal/logging"
)

// DefaultGracePeriod is how long a signalled command gets before it is killed.
const DefaultGracePeriod = 2 * time.Second

// ErrNonZeroExit is returned when a command completes but exits with a non-zero code.
// Use errors.Is(err, ErrNonZeroExit) to check for this condition.
var ErrNonZeroExit = errors.New("command exited with non-zero code")

// ExitCodeError wraps an exit code for programmatic access.
// Use errors.As(err, &ExitCodeError{}) to extract the exit code.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Command describes a process whose output is recorded.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // nil inherits the environment

	Stdin  io.Reader
	Stdout io.Writer // pass-through copy of stdout; nil discards
	Stderr io.Writer // pass-through copy of stderr; nil discards

	// ForwardSignals relays interrupts received by this process to the
	// command's process group.
	ForwardSignals bool

	// GracePeriod is how long a signalled command gets before SIGKILL.
	GracePeriod time.Duration
}

// Run executes name with args, passing its output through to this
// process's stdout and stderr while recording it in s. It returns the exit
// code; a non-zero exit is reported as ErrNonZeroExit wrapping ExitCodeError.
func Run(ctx context.Context, s *Session, name string, args ...string) (int, error) {
	return RunCommand(ctx, s, Command{
		Name:           name,
		Args:           args,
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		ForwardSignals: true,
	})
}

// RunCommand executes c with its output recorded in s. Cancelling ctx
// interrupts the command's process group, then kills it after the grace
// period.
func RunCommand(ctx context.Context, s *Session, c Command) (int, error) {
	log := logging.For("run")
	grace := c.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	out := &recordingWriter{w: s.Tee(Stdout, c.Stdout)}
	errOut := &recordingWriter{w: s.Tee(Stderr, c.Stderr)}

	cmd := exec.Command(c.Name, c.Args...) // #nosec G204 - running the caller's command is the point
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.Stdout = out
	cmd.Stderr = errOut
	startInGroup(cmd)

	if err := cmd.Start(); err != nil {
		_ = s.Stderr(fmt.Sprintf("logtee: starting %s: %v\n", c.Name, err))
		return exitCode(err), fmt.Errorf("starting %s: %w", c.Name, err)
	}
	log.Debug("command started", "cmd", commandLine(c), "pid", cmd.Process.Pid)

	var sigChan chan os.Signal
	if c.ForwardSignals {
		sigChan = make(chan os.Signal, 1)
		signal.Notify(sigChan, interruptSignals...)
		defer signal.Stop(sigChan)
	}

	cmdDone := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		var sig os.Signal
		select {
		case sig = <-sigChan:
			log.Debug("forwarding signal", "signal", sig, "pid", cmd.Process.Pid)
		case <-ctx.Done():
			sig = interruptSignals[0]
			log.Debug("context done, interrupting command", "pid", cmd.Process.Pid)
		case <-cmdDone:
			return
		}
		if err := signalGroup(cmd.Process, sig); err != nil {
			log.Debug("signalling process group failed", "err", err)
		}
		select {
		case <-cmdDone:
		case <-time.After(grace):
			log.Debug("grace period over, killing command", "pid", cmd.Process.Pid)
			_ = signalGroup(cmd.Process, os.Kill)
		}
	}()

	waitErr := cmd.Wait()
	close(cmdDone)
	<-watcherDone

	docErr := errors.Join(out.err, errOut.err, out.w.Flush(), errOut.w.Flush())
	code := exitCode(waitErr)
	log.Debug("command finished", "cmd", commandLine(c), "code", code)

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return code, errors.Join(fmt.Errorf("running %s: %w", c.Name, waitErr), docErr)
	}
	if code != 0 {
		_ = s.Stderr(fmt.Sprintf("%s exited with code %d\n", c.Name, code))
		return code, errors.Join(fmt.Errorf("%w: %w", ErrNonZeroExit, ExitCodeError{Code: code}), docErr)
	}
	return 0, docErr
}

// recordingWriter keeps a command's pipe drained when the document can no
// longer be written, remembering the first failure.
type recordingWriter struct {
	mu  sync.Mutex
	w   *TeeWriter
	err error
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		if r.w.orig != nil {
			_, _ = r.w.orig.Write(p)
		}
		return len(p), nil
	}
	if _, err := r.w.Write(p); err != nil {
		r.err = err
	}
	return len(p), nil
}

func commandLine(c Command) string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := signalExit(exitErr.ProcessState); ok {
			return code
		}
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
		return 1
	}

	if isCommandNotFoundError(err) {
		return 127
	}
	return 1
}

// isCommandNotFoundError checks if the error indicates the command was not found.
func isCommandNotFoundError(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "executable file not found") {
		return true
	}
	if runtime.GOOS != "windows" && strings.Contains(errStr, "no such file or directory") {
		return true
	}
	return false
}
