// Package tunnel wraps an SSH client connection to a gateway or target
// host.  The same connection can forward a TCP dial to a bind shell,
// serve a remote listener for a reverse shell, or open exec sessions
// that act as a one-command-per-request shell.
package tunnel

import (
	"context"
	"net"

	"golang.org/x/crypto/ssh"
)

// Tunnel abstracts an encrypted channel through which shell traffic is
// carried.
type Tunnel interface {
	// Connect establishes the connection to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Listen asks the gateway to accept connections on bindAddr:port
	// and hand them to us.
	Listen(bindAddr string, port int) (net.Listener, error)

	// NewSession opens an exec session on the remote host.
	NewSession() (*ssh.Session, error)

	// Close tears down the tunnel and frees resources.
	Close() error

	// IsAlive reports whether the underlying connection is still up.
	IsAlive() bool

	// Addr is the gateway's "host:port".
	Addr() string
}

var _ Tunnel = (*SSHTunnel)(nil)
