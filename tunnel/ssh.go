package tunnel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "gimmeashell/internal/errors"
	"gimmeashell/util"
)

// SSHConfig holds everything needed to dial an SSH host.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	Password      string // used as-is when non-empty, never prompted
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration

	// AllowKeyboardInteractive adds keyboard-interactive with empty
	// answers as a fallback, which public forwarding services expect.
	AllowKeyboardInteractive bool
}

// SSHTunnel implements [Tunnel] on top of a single ssh.Client.
type SSHTunnel struct {
	config *SSHConfig
	client *ssh.Client
	logger *util.Logger
	mu     sync.RWMutex
	alive  bool
}

// NewSSHTunnel creates a tunnel that is ready to [Connect].
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHTunnel{config: cfg, logger: logger}
}

// Connect dials the SSH host and completes the handshake.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	authMethods, err := BuildAuthMethods(t.config)
	if err != nil {
		return ncerr.WrapSSH("auth", t.config.Host, t.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(t.config)
	if err != nil {
		return ncerr.WrapSSH("hostkey", t.config.Host, t.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         t.config.ConnTimeout,
	}

	addr := util.FormatAddr(t.config.Host, t.config.Port)
	t.logger.Debug("SSH: dialing %s as %s", addr, t.config.User)

	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return ncerr.Transport("dial", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return ncerr.WrapSSH("handshake", t.config.Host, t.config.Port, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	t.mu.Lock()
	t.client = client
	t.alive = true
	t.mu.Unlock()

	go t.monitor()

	return nil
}

func (t *SSHTunnel) liveClient() (*ssh.Client, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.alive || t.client == nil {
		return nil, ncerr.ErrNotConnected
	}
	return t.client, nil
}

// Dial forwards a connection through the tunnel.
func (t *SSHTunnel) Dial(_ context.Context, network, address string) (net.Conn, error) {
	client, err := t.liveClient()
	if err != nil {
		return nil, err
	}

	t.logger.Debug("tunnel: dialing %s %s", network, address)
	conn, err := client.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("tunnel dial %s: %w", address, err)
	}
	return conn, nil
}

// Listen requests a remote forward on the gateway.
func (t *SSHTunnel) Listen(bindAddr string, port int) (net.Listener, error) {
	client, err := t.liveClient()
	if err != nil {
		return nil, err
	}
	t.logger.Verbose("requesting remote forward %s on %s",
		util.FormatAddr(bindAddr, port), t.config.Host)
	ln, err := listenRemoteForward(client, bindAddr, port)
	if err != nil {
		return nil, ncerr.WrapSSH("forward", t.config.Host, t.config.Port, err)
	}
	return ln, nil
}

// NewSession opens an exec session on the connected host.
func (t *SSHTunnel) NewSession() (*ssh.Session, error) {
	client, err := t.liveClient()
	if err != nil {
		return nil, err
	}
	sess, err := client.NewSession()
	if err != nil {
		return nil, ncerr.WrapSSH("session", t.config.Host, t.config.Port, err)
	}
	return sess, nil
}

// Addr returns "host:port" of the SSH server.
func (t *SSHTunnel) Addr() string {
	return util.FormatAddr(t.config.Host, t.config.Port)
}

// Close shuts down the SSH connection.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the tunnel is still connected.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

// monitor blocks until the SSH connection closes and flips the alive flag.
func (t *SSHTunnel) monitor() {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	if client == nil {
		return
	}

	err := client.Wait()

	t.mu.Lock()
	t.alive = false
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("SSH connection closed: %v", err)
	} else {
		t.logger.Debug("SSH connection closed")
	}
}
