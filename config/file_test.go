package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleProfiles = `
currentProfile: ping
profiles:
  ping:
    url: http://10.10.10.5/ping.php
    param: addr
    method: post
    data:
      submit: go
    headers:
      Cookie: PHPSESSID=abc
    pre:
      prefix: "127.0.0.1; "
    post:
      fromLine: 8
      trim: true
    armor: "on"
    idleTimeout: 100ms
  bind:
    connect: 10.10.10.7:31337
    tunnel: op@jump.example.com
    retries: 5
    timeout: 5s
  reverse:
    listen: 4444
    reverseTunnel: gw.example.com
    remotePort: 9001
    commands: [id, "cat /etc/passwd"]
`

func writeProfiles(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_Missing(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if f != nil || err != nil {
		t.Errorf("missing file = (%v, %v), want (nil, nil)", f, err)
	}
	if f, err := LoadFile("  "); f != nil || err != nil {
		t.Errorf("blank path = (%v, %v)", f, err)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	if _, err := LoadFile(writeProfiles(t, "profiles: [oops")); err == nil {
		t.Error("malformed YAML should fail")
	}
}

func TestResolve_Current(t *testing.T) {
	f, err := LoadFile(writeProfiles(t, sampleProfiles))
	if err != nil {
		t.Fatal(err)
	}
	p, name, err := f.Resolve("")
	if err != nil || name != "ping" {
		t.Fatalf("Resolve(\"\") = %v, %q, %v", p, name, err)
	}

	cfg := Defaults()
	if err := p.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "http://10.10.10.5/ping.php" || cfg.Param != "addr" || cfg.Method != "post" {
		t.Errorf("target = %q %q %q", cfg.URL, cfg.Param, cfg.Method)
	}
	if cfg.Data["submit"] != "go" || cfg.Headers["Cookie"] != "PHPSESSID=abc" {
		t.Errorf("data = %v headers = %v", cfg.Data, cfg.Headers)
	}
	if cfg.PrePrefix != "127.0.0.1; " || cfg.PostFromLine != 8 || !cfg.PostTrim {
		t.Errorf("hooks = %q %d %v", cfg.PrePrefix, cfg.PostFromLine, cfg.PostTrim)
	}
	if cfg.Armor != ArmorOn || cfg.IdleTimeout != 100*time.Millisecond {
		t.Errorf("armor = %q idle = %v", cfg.Armor, cfg.IdleTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestResolve_Named(t *testing.T) {
	f, err := LoadFile(writeProfiles(t, sampleProfiles))
	if err != nil {
		t.Fatal(err)
	}

	p, _, err := f.Resolve("bind")
	if err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := p.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	if err := cfg.ResolveSpecs(); err != nil {
		t.Fatal(err)
	}
	if cfg.Host != "10.10.10.7" || cfg.Port != 31337 || cfg.TunnelHost != "jump.example.com" {
		t.Errorf("bind profile = %+v", cfg)
	}
	if cfg.DialRetries != 5 || cfg.Timeout != 5*time.Second {
		t.Errorf("retries = %d timeout = %v", cfg.DialRetries, cfg.Timeout)
	}

	p, _, err = f.Resolve("reverse")
	if err != nil {
		t.Fatal(err)
	}
	cfg = Defaults()
	if err := p.Apply(cfg); err != nil {
		t.Fatal(err)
	}
	if !cfg.Listen || cfg.LocalPort != 4444 || cfg.RemotePort != 9001 || len(cfg.Commands) != 2 {
		t.Errorf("reverse profile = %+v", cfg)
	}
}

func TestResolve_Unknown(t *testing.T) {
	f, err := LoadFile(writeProfiles(t, sampleProfiles))
	if err != nil {
		t.Fatal(err)
	}
	_, name, err := f.Resolve("nope")
	if !errors.Is(err, ErrProfileNotFound) || name != "nope" {
		t.Errorf("Resolve(nope) = %q, %v", name, err)
	}

	var nilFile *File
	if p, _, err := nilFile.Resolve("x"); p != nil || err != nil {
		t.Errorf("nil file = %v, %v", p, err)
	}
}

func TestApply_BadConnect(t *testing.T) {
	p := &Profile{Connect: "no-port"}
	if err := p.Apply(Defaults()); err == nil {
		t.Error("connect without port should fail")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &File{
		CurrentProfile: "local",
		Profiles:       map[string]*Profile{"local": {Exec: "/bin/sh", IdleTimeout: 80 * time.Millisecond}},
	}
	if err := in.Save(path); err != nil {
		t.Fatal(err)
	}
	out, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	p, _, err := out.Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Exec != "/bin/sh" || p.IdleTimeout != 80*time.Millisecond {
		t.Errorf("round trip = %+v", p)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("GIMME_HOME", "/opt/gimme")
	if got := DefaultConfigPath(); got != filepath.Join("/opt/gimme", "config.yaml") {
		t.Errorf("DefaultConfigPath() = %q", got)
	}
}
