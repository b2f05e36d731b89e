package capability

import (
	"context"
	"fmt"
	"io"

	"gimmeashell/internal/session"
)

// Batch runs Commands in order through the session's dispatcher and
// prints each result.  It stops early if a command closes the session.
type Batch struct {
	Commands  []string
	Out       io.Writer
	Bootstrap bool // discover user, host and cwd first
}

// Handle runs the batch.
func (b *Batch) Handle(ctx context.Context, sess *session.Session) error {
	if b.Bootstrap {
		sess.Bootstrap(ctx)
	}
	for _, cmd := range b.Commands {
		if sess.Closed() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		sess.Logger().Verbose("batch: %s", cmd)
		if err := writeResult(b.Out, sess.Command(ctx, cmd)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
