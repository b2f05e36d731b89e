package executor

import (
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// newPipe is replaced in tests.
var newPipe = os.Pipe

// Process drives a local program (normally /bin/sh) over its standard
// streams.  stdout and stderr share one pipe so output interleaves the
// way it would on a terminal.  It is mostly useful for rehearsing
// against a local shell before pointing the tool at a real target.
type Process struct {
	*Drain
	cmd *exec.Cmd
}

// StartProcess launches program with args.  The process lives until
// Close; it is not tied to any context.
func StartProcess(program string, args []string, idle time.Duration) (*Process, error) {
	cmd := exec.Command(program, args...)

	pr, pw, err := newPipe()
	if err != nil {
		return nil, err
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}
	pw.Close()

	rw := &procRW{Reader: pr, Writer: stdin, stdin: stdin, out: pr, cmd: cmd}
	target := strings.TrimSpace(program + " " + strings.Join(args, " "))
	return &Process{Drain: NewDrain(rw, target, idle), cmd: cmd}, nil
}

// Pid returns the child's process id.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

type procRW struct {
	io.Reader
	io.Writer
	stdin io.Closer
	out   *os.File
	cmd   *exec.Cmd
	once  sync.Once
}

func (p *procRW) Close() error {
	p.once.Do(func() {
		p.stdin.Close()
		done := make(chan struct{})
		go func() {
			p.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			p.cmd.Process.Kill()
			<-done
		}
		p.out.Close()
	})
	return nil
}
