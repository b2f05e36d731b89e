package core

import (
	"context"
	"fmt"

	ncerr "gimmeashell/internal/errors"
	"gimmeashell/internal/executor"
	"gimmeashell/internal/retry"
	"gimmeashell/tunnel"
)

// SSHMode runs every command in its own exec channel on an SSH server,
// for targets where credentials are known but no PTY is wanted.
type SSHMode struct {
	Runner
	Tunnel  tunnel.Tunnel
	User    string
	Backoff *retry.Backoff
}

// Run connects, with retries on network errors, and runs the session.
func (m *SSHMode) Run(ctx context.Context) error {
	t := m.Tunnel

	b := *m.Backoff
	err := b.Do(ctx, func(attempt int) error {
		err := t.Connect(ctx)
		if err != nil && !ncerr.IsRetryable(err) {
			return retry.Permanent(err)
		}
		if err != nil {
			m.Logger.Verbose("ssh attempt %d: %v", attempt, err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("ssh %s: %w", t.Addr(), err)
	}

	m.Logger.Info("connected to %s as %s", t.Addr(), m.User)
	return m.run(ctx, executor.NewSSH(t))
}
