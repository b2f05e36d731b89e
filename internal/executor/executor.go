// Package executor adapts raw transports to the one primitive a shell
// session is built on: send a command string, get back everything the
// remote side printed.
//
// Connection-oriented transports (bind shells, reverse shells, local
// processes) have no framing, so [Drain] decides a response is complete
// once the channel stays quiet for an idle window.  Request/response
// transports ([HTTP], [SSH]) return one reply per command and need no
// such heuristic.
//
// Executors that own a live connection also implement io.Closer.
package executor

import "context"

// Executor runs one command and returns its captured output.  Only
// transport failures are returned as errors; a command that fails on
// the remote side still produces (possibly empty) output.
type Executor interface {
	Execute(ctx context.Context, cmd string) (string, error)
}

// Func adapts an ordinary function to the Executor interface, e.g. a
// one-shot exploit that opens its own connection per command.
type Func func(ctx context.Context, cmd string) (string, error)

// Execute calls f(ctx, cmd).
func (f Func) Execute(ctx context.Context, cmd string) (string, error) {
	return f(ctx, cmd)
}
