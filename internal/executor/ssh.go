package executor

import (
	"context"
	"errors"

	"golang.org/x/crypto/ssh"

	ncerr "gimmeashell/internal/errors"
	"gimmeashell/tunnel"
)

// Runner is the part of *ssh.Session the SSH executor needs.
type Runner interface {
	CombinedOutput(cmd string) ([]byte, error)
	Close() error
}

// SSH runs every command in its own exec channel on an established SSH
// connection.  Non-zero exit statuses are not errors; the combined
// stdout and stderr is returned as the command's output.
type SSH struct {
	open   func() (Runner, error)
	close  func() error
	target string
}

// NewSSH wraps a connected tunnel.  Closing the executor closes the
// tunnel.
func NewSSH(t tunnel.Tunnel) *SSH {
	return &SSH{
		open: func() (Runner, error) {
			sess, err := t.NewSession()
			if err != nil {
				return nil, err
			}
			return sess, nil
		},
		close:  t.Close,
		target: t.Addr(),
	}
}

// Execute opens a session, runs cmd and waits for it to finish or for
// ctx to be cancelled.
func (s *SSH) Execute(ctx context.Context, cmd string) (string, error) {
	sess, err := s.open()
	if err != nil {
		return "", ncerr.Transport("exec", s.target, err)
	}
	defer sess.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			sess.Close()
		case <-done:
		}
	}()

	out, err := sess.CombinedOutput(cmd)
	if err != nil {
		var exitErr *ssh.ExitError
		var missing *ssh.ExitMissingError
		switch {
		case errors.As(err, &exitErr), errors.As(err, &missing):
			return string(out), nil
		case ctx.Err() != nil:
			return string(out), ncerr.Transport("exec", s.target, ctx.Err())
		}
		return string(out), ncerr.Transport("exec", s.target, err)
	}
	return string(out), nil
}

// Target returns "host:port" of the SSH server.
func (s *SSH) Target() string { return s.target }

// Close closes the SSH connection.
func (s *SSH) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
