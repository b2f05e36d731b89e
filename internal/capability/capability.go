// Package capability defines what is done with an established shell
// session: drive it from a terminal (Interactive) or run a fixed list
// of commands (Batch).  Capabilities only talk to the session, never to
// the transport behind it.
package capability

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"gimmeashell/internal/session"
)

// Capability drives a session.
type Capability interface {
	// Handle runs the capability against the given session.  It
	// blocks until the capability is done, the session is closed or
	// the context is cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}

// writeResult prints res, forcing a trailing newline.
func writeResult(w io.Writer, res string) error {
	if res == "" || res[len(res)-1] != '\n' {
		res += "\n"
	}
	_, err := io.WriteString(w, res)
	return err
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
