package core

import (
	"os"
	"strconv"

	"gimmeashell/config"
	"gimmeashell/internal/capability"
	"gimmeashell/internal/executor"
	"gimmeashell/internal/metrics"
	"gimmeashell/internal/retry"
	"gimmeashell/internal/session"
	"gimmeashell/internal/transport"
	"gimmeashell/tunnel"
	"gimmeashell/util"
)

// Build constructs the appropriate Mode from a validated configuration.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	r := Runner{
		Capability: buildCapability(cfg),
		Options:    sessionOptions(cfg),
		Logger:     logger,
	}

	switch cfg.Mode() {
	case config.ModeWeb:
		return buildWeb(cfg, r), nil
	case config.ModeSSH:
		return buildSSH(cfg, r, logger), nil
	case config.ModeProcess:
		return buildProcess(cfg, r), nil
	case config.ModeListen:
		return buildListen(cfg, r), nil
	default:
		return buildConnect(cfg, r, logger), nil
	}
}

// ── mode builders ────────────────────────────────────────────────────

func buildConnect(cfg *config.Config, r Runner, logger *util.Logger) Mode {
	return &ConnectMode{
		Runner: r,
		Dialer: &transport.RetryDialer{
			Dialer:  buildDialer(cfg, logger),
			Backoff: retry.DefaultBackoff(cfg.DialRetries),
			Logger:  logger,
		},
		Address:     util.FormatAddr(cfg.Host, cfg.Port),
		IdleTimeout: cfg.IdleTimeout,
	}
}

func buildListen(cfg *config.Config, r Runner) Mode {
	m := &ListenMode{
		Runner:      r,
		Address:     util.ListenAddr(cfg.BindAddress, cfg.LocalPort),
		IdleTimeout: cfg.IdleTimeout,
	}
	if cfg.ReverseTunnelEnabled {
		gw := sshConfig(cfg, cfg.ReverseTunnelUser, cfg.ReverseTunnelHost, cfg.ReverseTunnelPort)
		gw.AllowKeyboardInteractive = true
		m.Gateway = gw
		m.RemoteBindAddress = cfg.RemoteBindAddress
		m.RemotePort = cfg.RemotePort
		if m.RemotePort == 0 {
			m.RemotePort = cfg.LocalPort
		}
	}
	return m
}

func buildWeb(cfg *config.Config, r Runner) Mode {
	return &WebMode{
		Runner: r,
		HTTP: executor.HTTPConfig{
			URL:     cfg.URL,
			Param:   cfg.Param,
			Method:  cfg.Method,
			Data:    cfg.Data,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout,
		},
	}
}

func buildSSH(cfg *config.Config, r Runner, logger *util.Logger) Mode {
	sc := sshConfig(cfg, cfg.SSHUser, cfg.SSHHost, cfg.SSHPort)
	return &SSHMode{
		Runner:  r,
		Tunnel:  tunnel.NewSSHTunnel(sc, logger),
		User:    sc.User,
		Backoff: retry.DefaultBackoff(cfg.DialRetries),
	}
}

func buildProcess(cfg *config.Config, r Runner) Mode {
	return &ProcessMode{
		Runner:      r,
		Program:     cfg.Exec,
		Args:        cfg.ExecArgs,
		IdleTimeout: cfg.IdleTimeout,
	}
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer picks a direct TCP dialer or one that goes through the
// -T jump host.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(
			sshConfig(cfg, cfg.TunnelUser, cfg.TunnelHost, cfg.TunnelPort), logger)
	}
	return &transport.TCPDialer{Timeout: cfg.Timeout}
}

// sshConfig fills the credential fields shared by every SSH use.
func sshConfig(cfg *config.Config, user, host string, port int) *tunnel.SSHConfig {
	return &tunnel.SSHConfig{
		User:          user,
		Host:          host,
		Port:          port,
		KeyPath:       cfg.SSHKeyPath,
		Password:      cfg.SSHPass,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   cfg.Timeout,
	}
}

// buildCapability runs the -c commands if any were given, otherwise
// the interactive prompt.
func buildCapability(cfg *config.Config) capability.Capability {
	if len(cfg.Commands) > 0 {
		return &capability.Batch{
			Commands:  cfg.Commands,
			Out:       os.Stdout,
			Bootstrap: true,
		}
	}
	return &capability.Interactive{
		In:       os.Stdin,
		Out:      os.Stdout,
		NoColour: cfg.NoColour,
	}
}

func sessionOptions(cfg *config.Config) []session.Option {
	opts := []session.Option{
		session.WithOnlyASCII(cfg.OnlyASCII()),
		session.WithDownloadDir(cfg.DownloadDir),
		session.WithMetrics(metrics.New()),
	}
	if pre := cfg.PreHook(); pre != nil {
		opts = append(opts, session.WithPre(pre))
	}
	if post := cfg.PostHook(); post != nil {
		opts = append(opts, session.WithPost(post))
	}
	return opts
}

// Describe is a one-line summary of what Build would do, for --dry-run.
func Describe(cfg *config.Config) string {
	switch cfg.Mode() {
	case config.ModeWeb:
		return cfg.Method + " " + cfg.URL + " param=" + cfg.Param
	case config.ModeSSH:
		return "ssh " + cfg.SSHUser + "@" + util.FormatAddr(cfg.SSHHost, cfg.SSHPort)
	case config.ModeProcess:
		return "exec " + cfg.Exec
	case config.ModeListen:
		s := "listen " + util.ListenAddr(cfg.BindAddress, cfg.LocalPort)
		if cfg.ReverseTunnelEnabled {
			remote := cfg.RemotePort
			if remote == 0 {
				remote = cfg.LocalPort
			}
			s += " via " + cfg.ReverseTunnelUser + "@" + cfg.ReverseTunnelHost +
				" remote port " + strconv.Itoa(remote)
		}
		return s
	default:
		s := "connect " + util.FormatAddr(cfg.Host, cfg.Port)
		if cfg.TunnelEnabled {
			s += " via " + cfg.TunnelUser + "@" + cfg.TunnelHost
		}
		return s
	}
}
