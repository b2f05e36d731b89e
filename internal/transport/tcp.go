package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPDialer establishes plain TCP connections to a bind shell.
type TCPDialer struct {
	Timeout time.Duration
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}
	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }

// TCPAcceptor listens on a local address for one reverse shell.
type TCPAcceptor struct {
	ln net.Listener
}

// ListenTCP binds address and returns an acceptor for it.
func ListenTCP(address string) (*TCPAcceptor, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}
	return &TCPAcceptor{ln: ln}, nil
}

// NewAcceptor wraps an existing listener, e.g. one served by an SSH
// gateway's remote forward.
func NewAcceptor(ln net.Listener) *TCPAcceptor {
	return &TCPAcceptor{ln: ln}
}

// Accept waits for the first connection.  Cancelling ctx closes the
// listener so a blocked Accept returns.
func (a *TCPAcceptor) Accept(ctx context.Context) (net.Conn, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.ln.Close()
		case <-done:
		}
	}()

	conn, err := a.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	return conn, nil
}

// Addr returns the bound address.
func (a *TCPAcceptor) Addr() string { return a.ln.Addr().String() }

// Close stops listening.
func (a *TCPAcceptor) Close() error { return a.ln.Close() }
