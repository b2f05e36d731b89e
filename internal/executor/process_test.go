package executor

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startShell(t *testing.T) *Process {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	p, err := StartProcess("/bin/sh", nil, 200*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestProcess_Execute(t *testing.T) {
	p := startShell(t)
	assert.Positive(t, p.Pid())
	assert.Equal(t, "/bin/sh", p.Target())

	out, err := p.Execute(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	out, err = p.Execute(context.Background(), "echo oops >&2")
	require.NoError(t, err)
	assert.Equal(t, "oops\n", out)
}

func TestProcess_StatePersists(t *testing.T) {
	p := startShell(t)

	_, err := p.Execute(context.Background(), "X=42")
	require.NoError(t, err)
	out, err := p.Execute(context.Background(), "echo $X")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestProcess_Exit(t *testing.T) {
	p := startShell(t)

	_, err := p.Execute(context.Background(), "exit")
	assert.Error(t, err)
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

func TestStartProcess_Missing(t *testing.T) {
	_, err := StartProcess("/nonexistent/shell", nil, 0)
	assert.Error(t, err)
}

func TestStartProcess_PipeFailure(t *testing.T) {
	fds, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd")
	}
	before := len(fds)

	boom := errors.New("too many open files")
	newPipe = func() (*os.File, *os.File, error) { return nil, nil, boom }
	t.Cleanup(func() { newPipe = os.Pipe })

	_, err = StartProcess("/bin/sh", nil, 0)
	require.ErrorIs(t, err, boom)

	fds, err = os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	assert.Equal(t, before, len(fds), "descriptors leaked")
}
