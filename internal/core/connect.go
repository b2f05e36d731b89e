package core

import (
	"context"
	"fmt"
	"time"

	"gimmeashell/internal/executor"
	"gimmeashell/internal/transport"
)

// ConnectMode dials a bind shell and runs a session over the
// connection.
type ConnectMode struct {
	Runner
	Dialer      transport.Dialer
	Address     string
	IdleTimeout time.Duration
}

// Run dials the target, creates a session, and hands it to the
// capability.  The dialer is closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s", m.Address)

	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}

	m.Logger.Info("connected to %s", conn.RemoteAddr())
	return m.run(ctx, executor.NewConnDrain(conn, m.IdleTimeout))
}
