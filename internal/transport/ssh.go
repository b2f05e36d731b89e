package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"gimmeashell/tunnel"
	"gimmeashell/util"
)

// SSHDialer reaches a bind shell through an SSH jump host.  The tunnel
// is connected lazily on the first Dial call and torn down on Close.
type SSHDialer struct {
	tunnel    *tunnel.SSHTunnel
	config    *tunnel.SSHConfig
	logger    *util.Logger
	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH tunnel.  The tunnel is not connected until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		tunnel: tunnel.NewSSHTunnel(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}

	d.logger.Verbose("establishing SSH tunnel to %s@%s:%d",
		d.config.User, d.config.Host, d.config.Port)

	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}

	d.connected = true
	d.logger.Verbose("SSH tunnel established")
	return nil
}

// Dial connects to address through the SSH tunnel.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d.tunnel.Dial(ctx, network, address)
}

// Close tears down the underlying SSH tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		d.connected = false
		return d.tunnel.Close()
	}
	return nil
}

// SSHAcceptor asks an SSH gateway to listen on its side and forward the
// reverse shell's callback to us.  Useful when the target can reach the
// gateway but not the operator.
type SSHAcceptor struct {
	tunnel *tunnel.SSHTunnel
	inner  *TCPAcceptor
	addr   string
}

// ListenSSH connects the tunnel and requests a remote forward of
// bindAddr:port on the gateway.
func ListenSSH(ctx context.Context, cfg *tunnel.SSHConfig, bindAddr string, port int, logger *util.Logger) (*SSHAcceptor, error) {
	t := tunnel.NewSSHTunnel(cfg, logger)
	if err := t.Connect(ctx); err != nil {
		return nil, fmt.Errorf("tunnel: %w", err)
	}
	ln, err := t.Listen(bindAddr, port)
	if err != nil {
		t.Close()
		return nil, err
	}
	return &SSHAcceptor{
		tunnel: t,
		inner:  NewAcceptor(ln),
		addr:   util.FormatAddr(cfg.Host, port),
	}, nil
}

// Accept waits for the forwarded callback.
func (a *SSHAcceptor) Accept(ctx context.Context) (net.Conn, error) {
	return a.inner.Accept(ctx)
}

// Addr reports the gateway-side address targets should call back to.
func (a *SSHAcceptor) Addr() string { return a.addr }

// Close cancels the remote forward and closes the SSH connection.  The
// accepted shell connection rides on the SSH client, so Close must only
// be called once the session is finished with it.
func (a *SSHAcceptor) Close() error {
	a.inner.Close()
	return a.tunnel.Close()
}
