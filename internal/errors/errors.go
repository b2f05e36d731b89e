// Package errors provides domain-specific error types for gimmeashell.
//
// The split that matters to callers is between transport failures, which
// mean the session can no longer talk to its target, and everything else,
// which the command dispatcher is free to swallow.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrSessionClosed  = errors.New("session is closed")
	ErrNotImplemented = errors.New("not implemented")
	ErrNotConnected   = errors.New("not connected")
	ErrTimeout        = errors.New("operation timed out")
	ErrAuthFailed     = errors.New("authentication failed")
)

// ── Structured error types ───────────────────────────────────────────

// TransportError reports that an executor could not reach or read from
// the remote side.
type TransportError struct {
	Op     string // "dial", "listen", "accept", "write", "read", "request", "exec"
	Target string // address, URL, or program path
	Err    error
}

func (e *TransportError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying failure was a deadline.
func (e *TransportError) Timeout() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(e.Err, ErrTimeout)
}

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "session", "forward"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // flag name without dashes
	Value   interface{} // the invalid value (nil if missing)
	Message string
	Hint    string // optional suggestion
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Transport wraps err as a TransportError.  A nil err yields nil so the
// helper can be used inline on return paths.
func Transport(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Target: target, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTransport reports whether err (or anything it wraps) is a transport
// failure.  SSH failures count as transport failures.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *SSHError
	return errors.As(err, &se)
}

// IsRetryable reports whether a dial-time failure is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return true
		}
		return opErr.Temporary() //nolint:staticcheck // still the best hint available
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports ───────────────────────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
