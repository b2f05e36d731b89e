package core

import (
	"context"
	"fmt"
	"time"

	"gimmeashell/internal/executor"
)

// ProcessMode drives a local program over its stdio.
type ProcessMode struct {
	Runner
	Program     string
	Args        []string
	IdleTimeout time.Duration
}

// Run starts the program and runs the session.  The program is stopped
// when the session closes.
func (m *ProcessMode) Run(ctx context.Context) error {
	p, err := executor.StartProcess(m.Program, m.Args, m.IdleTimeout)
	if err != nil {
		return fmt.Errorf("start %s: %w", m.Program, err)
	}
	m.Logger.Verbose("started %s (pid %d)", p.Target(), p.Pid())
	return m.run(ctx, p)
}
