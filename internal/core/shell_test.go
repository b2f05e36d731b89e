package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gimmeashell/internal/capability"
	"gimmeashell/util"
)

// fakeShell plays the remote end of a bind or reverse shell.  It knows
// the bootstrap probe, "id", and "exit"; anything else echoes back.
type fakeShell struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func newFakeShell() *fakeShell { return &fakeShell{done: make(chan struct{})} }

func (f *fakeShell) serve(rw io.ReadWriteCloser) {
	defer close(f.done)
	defer rw.Close()
	sc := bufio.NewScanner(rw)
	for sc.Scan() {
		line := sc.Text()
		f.mu.Lock()
		f.sent = append(f.sent, line)
		f.mu.Unlock()
		switch {
		case strings.Contains(line, "whoami"):
			fmt.Fprint(rw, "ctf\r\n---next---\r\n/tmp\r\n---next---\r\nbox\r\n")
		case strings.HasSuffix(line, "exit"):
			return
		case strings.HasSuffix(line, "&& id"):
			fmt.Fprint(rw, "uid=0(root)\n")
		default:
			fmt.Fprintf(rw, "echo: %s\n", line)
		}
	}
}

func (f *fakeShell) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeShell) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(3 * time.Second):
		t.Fatal("shell was never told to exit")
	}
}

// batchRunner runs cmds after bootstrapping and collects the output.
func batchRunner(out *bytes.Buffer, cmds ...string) Runner {
	return Runner{
		Capability: &capability.Batch{Commands: cmds, Out: out, Bootstrap: true},
		Logger:     util.NewLogger(0),
	}
}

const testIdle = 100 * time.Millisecond
