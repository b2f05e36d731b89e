// Package metrics provides lightweight, lock-free counters for tracking
// what a shell session has done: commands sent, bytes moved, failures
// swallowed by the dispatcher, archives downloaded.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one session.
// A nil Collector is safe to use: all methods become no-ops.
type Collector struct {
	commandsTotal   atomic.Int64
	builtinsTotal   atomic.Int64
	bytesIn         atomic.Int64
	bytesOut        atomic.Int64
	downloadsTotal  atomic.Int64
	downloadedBytes atomic.Int64
	errorsTotal     atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastCommand  time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Command metrics ──────────────────────────────────────────────────

// CommandSent records one command handed to the executor.
func (c *Collector) CommandSent() {
	if c == nil {
		return
	}
	c.commandsTotal.Add(1)
	c.mu.Lock()
	c.lastCommand = time.Now()
	c.mu.Unlock()
}

// BuiltinRun records one meta-command handled locally.
func (c *Collector) BuiltinRun() {
	if c == nil {
		return
	}
	c.builtinsTotal.Add(1)
}

// Commands returns the number of commands sent to the executor.
func (c *Collector) Commands() int64 {
	if c == nil {
		return 0
	}
	return c.commandsTotal.Load()
}

// Builtins returns the number of meta-commands handled locally.
func (c *Collector) Builtins() int64 {
	if c == nil {
		return 0
	}
	return c.builtinsTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes of command output.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes of command text.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total output bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total command bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Download metrics ─────────────────────────────────────────────────

// Downloaded records one archive of n bytes written to disk.
func (c *Collector) Downloaded(n int64) {
	if c == nil {
		return
	}
	c.downloadsTotal.Add(1)
	c.downloadedBytes.Add(n)
}

// Downloads returns the number of archives written.
func (c *Collector) Downloads() int64 {
	if c == nil {
		return 0
	}
	return c.downloadsTotal.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	Commands         int64  `json:"commands"`
	Builtins         int64  `json:"builtins"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	Downloads        int64  `json:"downloads"`
	DownloadedBytes  int64  `json:"downloaded_bytes"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastCommand      string `json:"last_command,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:          time.Since(c.startTime).Truncate(time.Second).String(),
		Commands:        c.commandsTotal.Load(),
		Builtins:        c.builtinsTotal.Load(),
		BytesIn:         c.bytesIn.Load(),
		BytesOut:        c.bytesOut.Load(),
		Downloads:       c.downloadsTotal.Load(),
		DownloadedBytes: c.downloadedBytes.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
	}
	if !c.lastCommand.IsZero() {
		s.LastCommand = c.lastCommand.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
