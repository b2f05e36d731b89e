package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// File models a profile file: named targets plus a default selection.
//
//	currentProfile: ping
//	profiles:
//	  ping:
//	    url: http://10.10.10.5/ping.php
//	    param: addr
//	    pre: {prefix: "127.0.0.1; "}
//	    post: {fromLine: 8}
type File struct {
	CurrentProfile string              `yaml:"currentProfile"`
	Profiles       map[string]*Profile `yaml:"profiles"`
}

// Profile is one saved target.  Zero values leave the corresponding
// setting untouched.
type Profile struct {
	Connect       string            `yaml:"connect"` // host:port
	Listen        int               `yaml:"listen"`  // local port
	BindAddress   string            `yaml:"bindAddress"`
	URL           string            `yaml:"url"`
	Param         string            `yaml:"param"`
	Method        string            `yaml:"method"`
	Data          map[string]string `yaml:"data"`
	Headers       map[string]string `yaml:"headers"`
	SSH           string            `yaml:"ssh"`
	Exec          string            `yaml:"exec"`
	Args          []string          `yaml:"args"`
	Tunnel        string            `yaml:"tunnel"`
	ReverseTunnel string            `yaml:"reverseTunnel"`
	RemotePort    int               `yaml:"remotePort"`
	SSHKey        string            `yaml:"sshKey"`
	SSHPassword   string            `yaml:"sshPassword"`
	SSHAgent      bool              `yaml:"sshAgent"`
	StrictHostKey bool              `yaml:"strictHostKey"`
	KnownHosts    string            `yaml:"knownHosts"`
	Timeout       time.Duration     `yaml:"timeout"`
	IdleTimeout   time.Duration     `yaml:"idleTimeout"`
	Retries       int               `yaml:"retries"`
	DownloadDir   string            `yaml:"downloadDir"`
	Armor         string            `yaml:"armor"`
	Pre           PreHookSpec       `yaml:"pre"`
	Post          PostHookSpec      `yaml:"post"`
	Commands      []string          `yaml:"commands"`
}

// PreHookSpec configures the outgoing-command hook.
type PreHookSpec struct {
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
}

// PostHookSpec configures the response hook.
type PostHookSpec struct {
	FromLine int  `yaml:"fromLine"`
	ToLine   int  `yaml:"toLine"`
	Unescape bool `yaml:"unescape"`
	Trim     bool `yaml:"trim"`
}

// ErrProfileNotFound indicates the requested profile is missing.
var ErrProfileNotFound = errors.New("profile not found")

// DefaultConfigDir is $GIMME_HOME or ~/.gimmeashell.
func DefaultConfigDir() string {
	if v := os.Getenv("GIMME_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".gimmeashell")
}

// DefaultConfigPath is the profile file read when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LoadFile decodes a profile file.  Missing files return (nil, nil).
func LoadFile(path string) (*File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	expanded, err := expandPath(trimmed)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", expanded, err)
	}
	return &f, nil
}

// Save writes the file to disk, creating parent directories if needed.
func (f *File) Save(path string) error {
	if f == nil {
		return fmt.Errorf("profile file is nil")
	}
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o700); err != nil {
		return err
	}
	return os.WriteFile(expanded, data, 0o600)
}

// Resolve picks a profile by explicit name or by currentProfile.  A
// file without a selection resolves to (nil, "", nil).
func (f *File) Resolve(name string) (*Profile, string, error) {
	if f == nil {
		return nil, "", nil
	}
	pname := strings.TrimSpace(name)
	if pname == "" {
		pname = f.CurrentProfile
	}
	if pname == "" {
		return nil, "", nil
	}
	p, ok := f.Profiles[pname]
	if !ok || p == nil {
		return nil, pname, fmt.Errorf("%w: %s", ErrProfileNotFound, pname)
	}
	return p, pname, nil
}

// Apply overlays the profile's non-zero settings onto cfg.
func (p *Profile) Apply(cfg *Config) error {
	if p == nil {
		return nil
	}
	if p.Connect != "" {
		host, port, err := ParseHostPort(p.Connect)
		if err != nil {
			return fmt.Errorf("profile connect: %w", err)
		}
		cfg.Host, cfg.Port = host, port
	}
	if p.Listen > 0 {
		cfg.Listen = true
		cfg.LocalPort = p.Listen
	}
	setString(&cfg.BindAddress, p.BindAddress)
	setString(&cfg.URL, p.URL)
	setString(&cfg.Param, p.Param)
	setString(&cfg.Method, p.Method)
	if len(p.Data) > 0 {
		cfg.Data = p.Data
	}
	if len(p.Headers) > 0 {
		cfg.Headers = p.Headers
	}
	setString(&cfg.SSHSpec, p.SSH)
	setString(&cfg.Exec, p.Exec)
	if len(p.Args) > 0 {
		cfg.ExecArgs = p.Args
	}

	setString(&cfg.TunnelSpec, p.Tunnel)
	setString(&cfg.ReverseTunnelSpec, p.ReverseTunnel)
	if p.RemotePort > 0 {
		cfg.RemotePort = p.RemotePort
	}
	setString(&cfg.SSHKeyPath, p.SSHKey)
	setString(&cfg.SSHPass, p.SSHPassword)
	cfg.UseSSHAgent = cfg.UseSSHAgent || p.SSHAgent
	cfg.StrictHostKey = cfg.StrictHostKey || p.StrictHostKey
	setString(&cfg.KnownHostsPath, p.KnownHosts)

	if p.Timeout > 0 {
		cfg.Timeout = p.Timeout
	}
	if p.IdleTimeout > 0 {
		cfg.IdleTimeout = p.IdleTimeout
	}
	if p.Retries > 0 {
		cfg.DialRetries = p.Retries
	}
	setString(&cfg.DownloadDir, p.DownloadDir)
	setString(&cfg.Armor, strings.ToLower(p.Armor))

	setString(&cfg.PrePrefix, p.Pre.Prefix)
	setString(&cfg.PreSuffix, p.Pre.Suffix)
	if p.Post.FromLine != 0 {
		cfg.PostFromLine = p.Post.FromLine
	}
	if p.Post.ToLine != 0 {
		cfg.PostToLine = p.Post.ToLine
	}
	cfg.PostUnescape = cfg.PostUnescape || p.Post.Unescape
	cfg.PostTrim = cfg.PostTrim || p.Post.Trim

	if len(p.Commands) > 0 {
		cfg.Commands = p.Commands
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func expandPath(path string) (string, error) {
	switch {
	case strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	case path == "~":
		return os.UserHomeDir()
	case filepath.IsAbs(path):
		return path, nil
	default:
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, path), nil
	}
}
