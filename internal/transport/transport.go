// Package transport establishes the raw byte streams behind a shell
// session: dialing a bind shell, or accepting a reverse shell, either
// directly or through an SSH gateway.  What is sent over the stream is
// the executor layer's job.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound connections to a bind shell.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH client).  Stateless dialers return nil.
	Close() error
}

// Acceptor waits for a single reverse-shell callback.
type Acceptor interface {
	// Accept blocks until one peer connects or ctx is cancelled.
	Accept(ctx context.Context) (net.Conn, error)

	// Addr reports where the peer is expected to connect.
	Addr() string

	// Close stops listening and releases any gateway resources.
	Close() error
}
