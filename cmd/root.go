// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"gimmeashell/config"
	"gimmeashell/internal/core"
	"gimmeashell/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X gimmeashell/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected mode.
//
// Settings are layered defaults → profile → environment → flags, so the
// profile and environment become the flag defaults shown by --help.
func Execute(ctx context.Context, args []string) error {
	configPath, profile, err := preParse(args)
	if err != nil {
		return err
	}

	cfg := config.Defaults()
	if err := applyProfile(cfg, configPath, profile); err != nil {
		return err
	}
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("gimmeashell", flag.ContinueOnError)

	// Registered again so the full parse accepts them.
	fs.String("config", configPath, "Profile file")
	fs.String("profile", profile, "Profile to use (default: currentProfile)")

	// ── target ───────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Wait for a reverse shell")
	fs.IntVarP(&cfg.LocalPort, "port", "p", cfg.LocalPort, "Listen port")
	fs.StringVar(&cfg.BindAddress, "bind", cfg.BindAddress, "Listen address")
	fs.StringVar(&cfg.URL, "url", cfg.URL, "Webshell or injectable URL")
	fs.StringVar(&cfg.Param, "param", cfg.Param, "Request parameter carrying the command")
	fs.StringVarP(&cfg.Method, "method", "X", cfg.Method, "HTTP method (GET or POST)")
	data := fs.StringArrayP("data", "d", nil, "Extra request parameter k=v (repeatable)")
	headers := fs.StringArrayP("header", "H", nil, "Extra header \"Name: value\" (repeatable)")
	fs.StringVar(&cfg.SSHSpec, "ssh", cfg.SSHSpec, "Run commands over SSH exec on [user@]host[:port]")
	fs.StringVarP(&cfg.Exec, "exec", "e", cfg.Exec, "Drive a local program (remaining args are passed to it)")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach a bind shell via [user@]host[:port]")
	fs.StringVarP(&cfg.ReverseTunnelSpec, "reverse-tunnel", "R", cfg.ReverseTunnelSpec,
		"Receive the reverse shell on a gateway [user@]host[:port]")
	fs.IntVar(&cfg.RemotePort, "remote-port", cfg.RemotePort, "Gateway-side port (default: same as -p)")
	fs.StringVar(&cfg.RemoteBindAddress, "remote-bind-address", cfg.RemoteBindAddress, "Gateway-side bind address")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── session ──────────────────────────────────────────────────
	timeoutSec := int(cfg.Timeout / time.Second)
	fs.IntVarP(&timeoutSec, "timeout", "w", timeoutSec, "Connect and request timeout in seconds")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Quiet period that ends a stream response")
	fs.IntVar(&cfg.DialRetries, "retries", cfg.DialRetries, "Connection attempts")
	fs.StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "Where :download writes archives")
	fs.StringVar(&cfg.Armor, "armor", cfg.Armor, "Base64 downloads: auto, on or off")

	// ── hooks ────────────────────────────────────────────────────
	fs.StringVar(&cfg.PrePrefix, "pre-prefix", cfg.PrePrefix, "Text prepended to every command")
	fs.StringVar(&cfg.PreSuffix, "pre-suffix", cfg.PreSuffix, "Text appended to every command")
	fs.IntVar(&cfg.PostFromLine, "post-from-line", cfg.PostFromLine, "Keep output from this line (negative counts from the end)")
	fs.IntVar(&cfg.PostToLine, "post-to-line", cfg.PostToLine, "Keep output up to this line (0 = end)")
	fs.BoolVar(&cfg.PostUnescape, "post-unescape", cfg.PostUnescape, `Turn literal "\n" into newlines`)
	fs.BoolVar(&cfg.PostTrim, "post-trim", cfg.PostTrim, "Trim surrounding whitespace from output")

	// ── run ──────────────────────────────────────────────────────
	fs.StringArrayVarP(&cfg.Commands, "command", "c", cfg.Commands, "Run command and exit (repeatable)")
	fs.BoolVar(&cfg.NoColour, "no-color", cfg.NoColour, "Plain prompt")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var quiet, dryRun, showVersion, showHelp bool
	fs.BoolVarP(&quiet, "quiet", "q", false, "Errors only")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate and print what would run")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(os.Stderr, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(os.Stderr, fs)
		return nil
	}
	if showVersion {
		fmt.Printf("gimmeashell %s\n", version)
		return nil
	}

	if fs.Changed("timeout") {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}
	if quiet {
		cfg.Verbose = 0
	}
	if len(*data) > 0 {
		if cfg.Data, err = config.ParseParams(*data); err != nil {
			return err
		}
	}
	if len(*headers) > 0 {
		if cfg.Headers, err = config.ParseHeaders(*headers); err != nil {
			return err
		}
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.ResolveSpecs(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dryRun {
		fmt.Println(core.Describe(cfg))
		return nil
	}

	// ── run ──────────────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// preParse pulls --config and --profile out ahead of the full parse so
// the profile can seed the flag defaults.
func preParse(args []string) (path, profile string, err error) {
	pre := flag.NewFlagSet("gimmeashell", flag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	pre.StringVar(&path, "config", "", "")
	pre.StringVar(&profile, "profile", "", "")
	pre.BoolP("help", "h", false, "")

	if err := pre.Parse(args); err != nil {
		return "", "", err
	}
	return path, profile, nil
}

// applyProfile loads the profile file and overlays the selected
// profile.  A missing default file is not an error; a missing explicit
// one is.
func applyProfile(cfg *config.Config, path, name string) error {
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}

	f, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if f == nil {
		if explicit {
			return fmt.Errorf("load %s: no such file", path)
		}
		if name != "" {
			return fmt.Errorf("%w: %s", config.ErrProfileNotFound, name)
		}
		return nil
	}

	p, _, err := f.Resolve(name)
	if err != nil {
		return err
	}
	return p.Apply(cfg)
}

// parsePositional handles <host> <port> for bind shells, an optional
// [address] <port> after -l, and the argument list after --exec.
func parsePositional(cfg *config.Config, remaining []string) error {
	switch {
	case cfg.Exec != "":
		if len(remaining) > 0 {
			cfg.ExecArgs = remaining
		}
		return nil

	case cfg.Listen:
		switch len(remaining) {
		case 0: // gimmeashell -l -p PORT
		case 1:
			port, err := config.ParsePort(remaining[0])
			if err != nil {
				return fmt.Errorf("port: %w", err)
			}
			cfg.LocalPort = port
		case 2:
			port, err := config.ParsePort(remaining[1])
			if err != nil {
				return fmt.Errorf("port: %w", err)
			}
			cfg.BindAddress, cfg.LocalPort = remaining[0], port
		default:
			return fmt.Errorf("too many arguments for listen mode")
		}
		return nil

	case cfg.URL != "" || cfg.SSHSpec != "":
		if len(remaining) > 0 {
			return fmt.Errorf("unexpected arguments: %q", remaining)
		}
		return nil
	}

	switch len(remaining) {
	case 0:
		return nil // Validate reports the missing target
	case 1:
		return fmt.Errorf("port required")
	case 2:
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port %q: %w", remaining[1], err)
		}
		cfg.Host, cfg.Port = remaining[0], port
		return nil
	default:
		return fmt.Errorf("too many arguments: %q", remaining)
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `gimmeashell v%s

Turns anything that runs one command and returns its output into a
shell with a working directory, file helpers and downloads.

Usage:
  gimmeashell [options] <host> <port>               Bind shell
  gimmeashell -l -p <port> [options]                Reverse shell
  gimmeashell --url <url> --param <name> [options]  Webshell / injection
  gimmeashell --ssh [user@]host[:port] [options]    SSH exec
  gimmeashell --exec <program> [-- args...]         Local program

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprint(w, `
Session commands:
  :download <path>            Fetch a file or directory as a tar.gz
  :printlike <regex> [dir]    Print every readable file matching regex
  :stats                      Session counters as JSON
  cd [dir] | pwd              Track the working directory locally
  exit | :exit                Close the session

Examples:
  gimmeashell 10.0.0.5 4444
  gimmeashell -l -p 9001 -R op@gateway
  gimmeashell --url http://t/x.php --param c --post-trim
  gimmeashell --exec /bin/sh -c id -c 'uname -a'
`)
}
