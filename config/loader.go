package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Profile file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GIMME_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	// Target
	if v := os.Getenv("GIMME_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("GIMME_PARAM"); v != "" {
		cfg.Param = v
	}
	if v := os.Getenv("GIMME_METHOD"); v != "" {
		cfg.Method = v
	}
	if v := os.Getenv("GIMME_SSH"); v != "" {
		cfg.SSHSpec = v
	}
	if v := os.Getenv("GIMME_EXEC"); v != "" {
		cfg.Exec = v
	}
	if envBool("GIMME_LISTEN") {
		cfg.Listen = true
	}
	if v := envInt("GIMME_PORT"); v > 0 {
		cfg.LocalPort = v
	}
	if v := os.Getenv("GIMME_BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}

	// SSH tunnel and credentials
	if v := os.Getenv("GIMME_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("GIMME_REVERSE_TUNNEL"); v != "" {
		cfg.ReverseTunnelSpec = v
	}
	if v := envInt("GIMME_REMOTE_PORT"); v > 0 {
		cfg.RemotePort = v
	}
	if v := os.Getenv("GIMME_REMOTE_BIND_ADDRESS"); v != "" {
		cfg.RemoteBindAddress = v
	}
	if v := os.Getenv("GIMME_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if v := os.Getenv("GIMME_SSH_PASS"); v != "" {
		cfg.SSHPass = v
	}
	if envBool("GIMME_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("GIMME_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("GIMME_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Session
	if v := envInt("GIMME_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v := envDuration("GIMME_IDLE_TIMEOUT"); v > 0 {
		cfg.IdleTimeout = v
	}
	if v := envInt("GIMME_RETRIES"); v > 0 {
		cfg.DialRetries = v
	}
	if v := os.Getenv("GIMME_DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}
	if v := os.Getenv("GIMME_ARMOR"); v != "" {
		cfg.Armor = strings.ToLower(v)
	}

	// Output
	if v := envInt("GIMME_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("GIMME_NO_COLOR") || os.Getenv("NO_COLOR") != "" {
		cfg.NoColour = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

// envDuration accepts Go durations ("100ms") or bare milliseconds.
func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return 0
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
