package core

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"gimmeashell/internal/retry"
	"gimmeashell/internal/transport"
	"gimmeashell/util"
)

func TestConnectMode_BindShell(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	sh := newFakeShell()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		sh.serve(conn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	mode := &ConnectMode{
		Runner:      batchRunner(&out, "id", "cd ..", "pwd"),
		Dialer:      &transport.TCPDialer{Timeout: 2 * time.Second},
		Address:     ln.Addr().String(),
		IdleTimeout: testIdle,
	}

	if err := mode.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	sh.wait(t)

	if got, want := out.String(), "uid=0(root)\n\n/\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	sent := sh.lines()
	if len(sent) != 3 {
		t.Fatalf("shell got %d lines, want 3: %q", len(sent), sent)
	}
	if sent[1] != "cd '/tmp' && id" {
		t.Errorf("second line = %q", sent[1])
	}
	if sent[2] != "cd '/' && exit" {
		t.Errorf("farewell = %q", sent[2])
	}
}

func TestConnectMode_Refused(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	addr := util.FormatAddr("127.0.0.1", port)

	var out bytes.Buffer
	mode := &ConnectMode{
		Runner: batchRunner(&out, "id"),
		Dialer: &transport.RetryDialer{
			Dialer:  &transport.TCPDialer{Timeout: time.Second},
			Backoff: &retry.Backoff{InitialDelay: 10 * time.Millisecond, MaxAttempts: 2},
			Logger:  util.NewLogger(0),
		},
		Address:     addr,
		IdleTimeout: testIdle,
	}

	err = mode.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error dialing a closed port")
	}
	if !strings.Contains(err.Error(), "connect to "+addr) {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "giving up after 2 attempts") {
		t.Errorf("expected retries in %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed, got %q", out.String())
	}
}
