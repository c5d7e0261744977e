//go:build unix

package logtee

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_RecordsBothStreams(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	var out, errOut bytes.Buffer
	code, err := RunCommand(context.Background(), s, Command{
		Name:   "sh",
		Args:   []string{"-c", "echo out; echo err >&2"},
		Stdout: &out,
		Stderr: &errOut,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "out\n", out.String())
	assert.Equal(t, "err\n", errOut.String())

	got := body(t, s)
	assert.Contains(t, got, `<div class="stdout"><pre>out`+"\n")
	assert.Contains(t, got, `<div class="stderr"><pre>err`+"\n")
}

func TestRunCommand_ReportsExitCode_When_CommandFails(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	code, err := RunCommand(context.Background(), s, Command{
		Name: "sh",
		Args: []string{"-c", "exit 3"},
	})
	assert.Equal(t, 3, code)
	require.ErrorIs(t, err, ErrNonZeroExit)
	var exitErr ExitCodeError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Contains(t, body(t, s), "sh exited with code 3\n")
}

func TestRunCommand_Returns127_When_CommandMissing(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	code, err := RunCommand(context.Background(), s, Command{Name: "logtee-no-such-command"})
	require.Error(t, err)
	assert.Equal(t, 127, code)
	assert.Contains(t, body(t, s), "logtee: starting logtee-no-such-command")
}

func TestRunCommand_InterruptsCommand_When_ContextCancelled(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	code, err := RunCommand(ctx, s, Command{
		Name:        "sh",
		Args:        []string{"-c", "sleep 30"},
		GracePeriod: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.NotEqual(t, 0, code)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunCommand_KeepsDraining_When_DocumentFails(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	require.NoError(t, s.Close())
	var out bytes.Buffer
	_, err := RunCommand(context.Background(), s, Command{
		Name:   "sh",
		Args:   []string{"-c", "echo one; echo two"},
		Stdout: &out,
	})
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, strings.HasSuffix(out.String(), "two\n"))
}

func TestRunCommand_Returns128PlusSignal_When_CommandKilled(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	code, err := RunCommand(context.Background(), s, Command{
		Name: "sh",
		Args: []string{"-c", "kill -TERM $$"},
	})
	assert.ErrorIs(t, err, ErrNonZeroExit)
	assert.Equal(t, 143, code)
}
