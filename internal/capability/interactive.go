package capability

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"gimmeashell/internal/session"
	"gimmeashell/util"
)

// Interactive is the read-eval-print loop.  It bootstraps the session,
// then prompts, reads a line, dispatches it and prints the result until
// input ends, the session is closed with exit, or ctx is cancelled.
type Interactive struct {
	In       io.Reader
	Out      io.Writer
	NoColour bool
}

// Handle runs the loop.  Cancellation is not an error: the loop logs
// "interrupted" and returns nil.
func (i *Interactive) Handle(ctx context.Context, sess *session.Session) error {
	log := sess.Logger()
	colour := !i.NoColour && IsTerminal(i.Out)

	sess.Bootstrap(ctx)

	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(i.In, done)

	for !sess.Closed() {
		if _, err := io.WriteString(i.Out, sess.Prompt(colour)); err != nil {
			return fmt.Errorf("write prompt: %w", err)
		}

		var line string
		select {
		case <-ctx.Done():
			io.WriteString(i.Out, "\n")
			log.Warn("interrupted")
			return nil
		case l, ok := <-lines:
			if !ok {
				io.WriteString(i.Out, "\n")
				if err := <-readErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				log.Info("got EOF on input")
				return nil
			}
			line = l
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := writeResult(i.Out, sess.Command(ctx, line)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

// readLines feeds lines from r into the returned channel from a single
// goroutine, so the loop can give up on a blocked read.  The error
// channel receives the scanner's error (nil at EOF) once lines closes.
func readLines(r io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, util.DefaultBufSize), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}
