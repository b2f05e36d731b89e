package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, profile files, and environment variable loading.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultBindAddress is where listen mode waits for reverse shells.
	DefaultBindAddress = "0.0.0.0"

	// DefaultRemoteBindAddress is the gateway-side bind address for a
	// reverse-tunnel listener.  Empty lets the server decide, which on
	// OpenSSH means loopback unless GatewayPorts is enabled.
	DefaultRemoteBindAddress = ""

	// DefaultConnTimeout bounds dials, SSH handshakes and HTTP requests.
	DefaultConnTimeout = 30 * time.Second

	// DefaultIdleTimeout is how long a stream shell must stay quiet
	// before a response is considered complete.
	DefaultIdleTimeout = 50 * time.Millisecond

	// DefaultDialRetries is how many times the initial connect is
	// attempted.
	DefaultDialRetries = 3

	// DefaultDownloadDir is where :download writes archives.
	DefaultDownloadDir = "./downloads/"

	// DefaultMethod is the HTTP method for web targets.
	DefaultMethod = "GET"

	// DefaultShell is the program run by --exec when none is named.
	DefaultShell = "/bin/sh"
)

// Defaults returns a Config populated with every default value.
func Defaults() *Config {
	return &Config{
		BindAddress:       DefaultBindAddress,
		Method:            DefaultMethod,
		RemoteBindAddress: DefaultRemoteBindAddress,
		Timeout:           DefaultConnTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		DialRetries:       DefaultDialRetries,
		DownloadDir:       DefaultDownloadDir,
		Armor:             ArmorAuto,
		Verbose:           1,
	}
}
