package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(3)
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Error("e")
	l.Warn("w")
	l.Info("i")
	l.Verbose("v")
	l.Debug("d")

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), output)
	}

	wantPrefixes := []string{"[ERR]", "[WRN]", "[INF]", "[VRB]", "[DBG]"}
	for i, prefix := range wantPrefixes {
		if !strings.Contains(lines[i], prefix) {
			t.Errorf("line %d %q missing prefix %q", i, lines[i], prefix)
		}
	}
}

func TestLogger_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(0)
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	l.Warn("should not appear")
	l.Info("should not appear")
	l.Debug("should not appear")
	l.Error("always appears")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected 1 line in quiet mode, got %d:\n%s", len(lines), buf.String())
	}
}

func TestLogger_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1)
	l.SetOutput(&buf)
	l.SetTimestamps(true)

	l.Info("test")

	// "HH:MM:SS.mmm [INF] test"
	if !strings.Contains(buf.String(), ":") || len(buf.String()) < 15 {
		t.Errorf("expected timestamp prefix, got %q", buf.String())
	}
}

func TestLogger_WithTag(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(1)
	l.SetOutput(&buf)
	l.SetTimestamps(false)

	tagged := l.With("[a1b2c3d4]")
	tagged.Warn("bootstrap failed")
	l.Warn("untagged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "[WRN] [a1b2c3d4] bootstrap failed" {
		t.Errorf("tagged line = %q", lines[0])
	}
	if lines[1] != "[WRN] untagged" {
		t.Errorf("untagged line = %q", lines[1])
	}
}

func TestBufPool_RoundTrip(t *testing.T) {
	buf := GetBuf()
	if buf == nil {
		t.Fatal("GetBuf returned nil")
	}
	if len(*buf) != DefaultBufSize {
		t.Errorf("buffer size = %d, want %d", len(*buf), DefaultBufSize)
	}
	(*buf)[0] = 0xFF
	PutBuf(buf)

	buf2 := GetBuf()
	if buf2 == nil {
		t.Fatal("second GetBuf returned nil")
	}
	PutBuf(buf2)
}

func TestPutBuf_Nil(t *testing.T) {
	PutBuf(nil)
}
