// Package config defines the runtime configuration for gimmeashell and
// provides helpers for parsing target specifications, request
// parameters and hook settings.
package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	ncerr "gimmeashell/internal/errors"
	"gimmeashell/internal/hook"
)

// Mode names the kind of target a session talks to.
type Mode string

const (
	ModeConnect Mode = "connect" // bind shell: we dial the target
	ModeListen  Mode = "listen"  // reverse shell: the target dials us
	ModeWeb     Mode = "web"     // webshell or command injection over HTTP
	ModeSSH     Mode = "ssh"     // exec channel per command
	ModeProcess Mode = "process" // local program, e.g. /bin/sh
)

// Armour settings for binary payloads.
const (
	ArmorAuto = "auto" // on for web targets, off otherwise
	ArmorOn   = "on"
	ArmorOff  = "off"
)

// Config holds every tuneable for a single gimmeashell session.
type Config struct {
	// ── Target ───────────────────────────────────────────────────────
	Host        string // connect: bind shell host
	Port        int    // connect: bind shell port
	Listen      bool
	LocalPort   int    // listen: port reverse shells call back to
	BindAddress string // listen: local bind address
	URL         string
	Param       string
	Method      string
	Data        map[string]string // extra fixed request parameters
	Headers     map[string]string
	SSHSpec     string // raw user@host[:port] from --ssh
	SSHUser     string
	SSHHost     string
	SSHPort     int
	Exec        string   // process: program path
	ExecArgs    []string // process: program arguments

	// ── SSH tunnel and credentials ───────────────────────────────────
	TunnelSpec           string // -T: jump host for connect mode
	TunnelEnabled        bool
	TunnelUser           string
	TunnelHost           string
	TunnelPort           int
	ReverseTunnelSpec    string // -R: gateway that forwards callbacks to us
	ReverseTunnelEnabled bool
	ReverseTunnelUser    string
	ReverseTunnelHost    string
	ReverseTunnelPort    int
	RemotePort           int
	RemoteBindAddress    string
	SSHKeyPath           string
	SSHPassword          bool   // true → prompt interactively
	SSHPass              string // non-interactive password (env or profile only)
	UseSSHAgent          bool
	StrictHostKey        bool
	KnownHostsPath       string

	// ── Session ──────────────────────────────────────────────────────
	Timeout     time.Duration
	IdleTimeout time.Duration
	DialRetries int
	DownloadDir string
	Armor       string

	// ── Hooks ────────────────────────────────────────────────────────
	PrePrefix    string
	PreSuffix    string
	PostFromLine int
	PostToLine   int // 0 means "to the end"
	PostUnescape bool
	PostTrim     bool

	// ── Run ──────────────────────────────────────────────────────────
	Commands []string // -c: run these and exit instead of the REPL
	NoColour bool
	Verbose  int
}

// Mode reports which kind of target the configuration describes.
func (c *Config) Mode() Mode {
	switch {
	case c.URL != "":
		return ModeWeb
	case c.SSHHost != "":
		return ModeSSH
	case c.Exec != "":
		return ModeProcess
	case c.Listen:
		return ModeListen
	default:
		return ModeConnect
	}
}

// OnlyASCII reports whether downloads must be base64-armoured.
func (c *Config) OnlyASCII() bool {
	switch c.Armor {
	case ArmorOn:
		return true
	case ArmorOff:
		return false
	}
	return c.Mode() == ModeWeb
}

// PreHook builds the hook applied to outgoing commands, or nil.
func (c *Config) PreHook() hook.Func {
	var fs []hook.Func
	if c.PrePrefix != "" {
		fs = append(fs, hook.Prefix(c.PrePrefix))
	}
	if c.PreSuffix != "" {
		fs = append(fs, hook.Suffix(c.PreSuffix))
	}
	if len(fs) == 0 {
		return nil
	}
	return hook.Chain(fs...)
}

// PostHook builds the hook applied to responses, or nil.  Unescaping
// runs first so line slicing sees real newlines.
func (c *Config) PostHook() hook.Func {
	var fs []hook.Func
	if c.PostUnescape {
		fs = append(fs, hook.UnescapeNewlines())
	}
	switch {
	case c.PostToLine != 0:
		fs = append(fs, hook.LineRange(c.PostFromLine, c.PostToLine))
	case c.PostFromLine != 0:
		fs = append(fs, hook.FromLine(c.PostFromLine))
	}
	if c.PostTrim {
		fs = append(fs, hook.TrimSpace())
	}
	if len(fs) == 0 {
		return nil
	}
	return hook.Chain(fs...)
}

// ── Parsers ──────────────────────────────────────────────────────────

// ParsePort accepts a decimal port in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// targetRe matches [user@]host[:port].
var targetRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:@]+)(?::(\d+))?$`)

// ParseTargetSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTargetSpec(spec string) (user, host string, port int, err error) {
	m := targetRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid target %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = ParsePort(m[3])
		if err != nil {
			return "", "", 0, err
		}
	}
	return user, host, port, nil
}

// ParseHostPort splits "host:port" for bind-shell targets.
func ParseHostPort(spec string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(spec)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", spec, err)
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid address %q: host is required", spec)
	}
	port, err := ParsePort(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// ParseParams turns ["k=v", ...] into a map.  Later keys win.
func ParseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q – expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

// ParseHeaders turns ["Name: value", ...] into a map.
func ParseHeaders(lines []string) (map[string]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(lines))
	for _, l := range lines {
		k, v, ok := strings.Cut(l, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q – expected Name: value", l)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// ResolveSpecs parses the raw SSH, tunnel and reverse-tunnel specs into
// their component fields.
func (c *Config) ResolveSpecs() error {
	if c.SSHSpec != "" {
		user, host, port, err := ParseTargetSpec(c.SSHSpec)
		if err != nil {
			return &ncerr.ConfigError{Field: "ssh", Value: c.SSHSpec, Message: err.Error()}
		}
		c.SSHUser, c.SSHHost, c.SSHPort = user, host, port
	}
	if c.TunnelSpec != "" {
		user, host, port, err := ParseTargetSpec(c.TunnelSpec)
		if err != nil {
			return &ncerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: err.Error()}
		}
		c.TunnelEnabled = true
		c.TunnelUser, c.TunnelHost, c.TunnelPort = user, host, port
	}
	if c.ReverseTunnelSpec != "" {
		user, host, port, err := ParseTargetSpec(c.ReverseTunnelSpec)
		if err != nil {
			return &ncerr.ConfigError{Field: "reverse-tunnel", Value: c.ReverseTunnelSpec, Message: err.Error()}
		}
		c.ReverseTunnelEnabled = true
		c.ReverseTunnelUser, c.ReverseTunnelHost, c.ReverseTunnelPort = user, host, port
	}
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var targets []string
	if c.Host != "" {
		targets = append(targets, "host")
	}
	if c.Listen {
		targets = append(targets, "listen")
	}
	if c.URL != "" {
		targets = append(targets, "url")
	}
	if c.SSHHost != "" {
		targets = append(targets, "ssh")
	}
	if c.Exec != "" {
		targets = append(targets, "exec")
	}
	switch len(targets) {
	case 0:
		return &ncerr.ConfigError{
			Field:   "target",
			Message: "no target given",
			Hint:    "pass <host> <port>, -l -p <port>, --url, --ssh or --exec (see --help)",
		}
	case 1:
	default:
		return &ncerr.ConfigError{
			Field:   "target",
			Value:   strings.Join(targets, ","),
			Message: "only one target may be given",
		}
	}

	switch c.Mode() {
	case ModeConnect:
		if c.Port < 1 || c.Port > 65535 {
			return &ncerr.ConfigError{Field: "port", Value: c.Port, Message: "destination port is required"}
		}
	case ModeListen:
		if c.LocalPort < 1 || c.LocalPort > 65535 {
			return &ncerr.ConfigError{
				Field:   "port",
				Value:   c.LocalPort,
				Message: "listen mode requires a port",
				Hint:    "e.g. -l -p 4444",
			}
		}
	case ModeWeb:
		if c.Param == "" {
			return &ncerr.ConfigError{Field: "param", Message: "required with --url"}
		}
		if m := strings.ToUpper(c.Method); m != "GET" && m != "POST" {
			return &ncerr.ConfigError{
				Field:   "method",
				Value:   c.Method,
				Message: "unsupported HTTP method",
				Hint:    "use GET or POST",
			}
		}
	}

	if c.TunnelEnabled && c.Mode() != ModeConnect {
		return &ncerr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: "a jump host only applies to bind shells",
			Hint:    "use --reverse-tunnel with -l for reverse shells",
		}
	}
	if c.ReverseTunnelEnabled {
		if c.Mode() != ModeListen {
			return &ncerr.ConfigError{
				Field:   "reverse-tunnel",
				Value:   c.ReverseTunnelSpec,
				Message: "requires listen mode",
				Hint:    "add -l -p <port>",
			}
		}
		if c.RemotePort < 0 || c.RemotePort > 65535 {
			return &ncerr.ConfigError{Field: "remote-port", Value: c.RemotePort, Message: "out of range 0-65535"}
		}
	}

	switch c.Armor {
	case ArmorAuto, ArmorOn, ArmorOff:
	default:
		return &ncerr.ConfigError{
			Field:   "armor",
			Value:   c.Armor,
			Message: "unknown armour setting",
			Hint:    "use auto, on or off",
		}
	}
	if c.IdleTimeout <= 0 {
		return &ncerr.ConfigError{Field: "idle-timeout", Value: c.IdleTimeout, Message: "must be positive"}
	}
	if c.DialRetries < 1 {
		return &ncerr.ConfigError{Field: "retries", Value: c.DialRetries, Message: "must be at least 1"}
	}
	return nil
}
