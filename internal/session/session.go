// Package session turns a stateless command channel into something that
// behaves like a shell.
//
// The remote side only ever sees isolated commands.  The session keeps
// the working directory locally and prefixes every command with
// "cd '<cwd>' &&", runs it through the configured pre and post hooks,
// and layers a small set of meta-commands (downloads, bulk file reads)
// on top.  The working directory is never verified remotely: if a cd
// target does not exist, the session drifts until the next absolute cd.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"

	ncerr "gimmeashell/internal/errors"
	"gimmeashell/internal/executor"
	"gimmeashell/internal/hook"
	"gimmeashell/internal/metrics"
	"gimmeashell/util"
)

// DefaultDownloadDir is where archives fetched with Download land.
const DefaultDownloadDir = "./downloads/"

const identitySeparator = "---next---"

// Logger is the subset of *util.Logger a session writes to.
type Logger interface {
	Warn(format string, args ...interface{})
	Info(format string, args ...interface{})
	Verbose(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// State is a session's position in its lifecycle.
type State int

const (
	StateNew State = iota
	StateBootstrapped
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateBootstrapped:
		return "bootstrapped"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session wraps an executor with shell-like state.  It is not safe for
// concurrent use; give each target its own Session.
type Session struct {
	id   string
	exec executor.Executor

	pre  hook.Func
	post hook.Func

	cwd  string
	user string
	host string

	downloadDir string
	onlyASCII   bool

	handlers map[string]handler
	marker   string

	random  io.Reader
	clock   func() time.Time
	logger  Logger
	metrics *metrics.Collector
	storage afs.Service
	onClose func()

	state State
}

// Option configures a Session.
type Option func(*Session)

// WithPre sets the hook applied to every outgoing command.
func WithPre(f hook.Func) Option { return func(s *Session) { s.pre = f } }

// WithPost sets the hook applied to every response.
func WithPost(f hook.Func) Option { return func(s *Session) { s.post = f } }

// WithOnlyASCII controls whether binary payloads are base64-armoured
// on the remote side.  On by default.
func WithOnlyASCII(on bool) Option { return func(s *Session) { s.onlyASCII = on } }

// WithDownloadDir sets the local directory for downloaded archives.
func WithDownloadDir(dir string) Option { return func(s *Session) { s.downloadDir = dir } }

// WithLogger sets the logger.  A *util.Logger is tagged with the
// session's short id.
func WithLogger(l Logger) Option { return func(s *Session) { s.logger = l } }

// WithRandom sets the source the bulk-read marker is drawn from.
func WithRandom(r io.Reader) Option { return func(s *Session) { s.random = r } }

// WithClock sets the time source used to name downloads.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.clock = now } }

// WithOnClose registers a callback run once after the session closes.
func WithOnClose(f func()) Option { return func(s *Session) { s.onClose = f } }

// WithMetrics records command and byte counts into c.
func WithMetrics(c *metrics.Collector) Option { return func(s *Session) { s.metrics = c } }

// WithStorage sets the file system downloads are written through.
func WithStorage(fs afs.Service) Option { return func(s *Session) { s.storage = fs } }

// New creates a session around exec.  The session owns exec: if it is
// an io.Closer it is closed together with the session.
func New(exec executor.Executor, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		exec:        exec,
		pre:         hook.Identity,
		post:        hook.Identity,
		downloadDir: DefaultDownloadDir,
		onlyASCII:   true,
		random:      rand.Reader,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pre == nil {
		s.pre = hook.Identity
	}
	if s.post == nil {
		s.post = hook.Identity
	}
	if s.logger == nil {
		s.logger = util.NewLogger(int(util.LogNormal))
	}
	if l, ok := s.logger.(*util.Logger); ok {
		s.logger = l.With("[" + s.ShortID() + "]")
	}
	if s.storage == nil {
		s.storage = afs.New()
	}
	s.handlers = defaultHandlers()
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// ShortID returns the first eight characters of the id, used as a log
// tag.
func (s *Session) ShortID() string { return s.id[:8] }

// State reports the lifecycle state.
func (s *Session) State() State { return s.state }

// SetPre replaces the pre hook.  nil restores the identity.
func (s *Session) SetPre(f hook.Func) {
	if f == nil {
		f = hook.Identity
	}
	s.pre = f
}

// SetPost replaces the post hook.  nil restores the identity.
func (s *Session) SetPost(f hook.Func) {
	if f == nil {
		f = hook.Identity
	}
	s.post = f
}

// Logger returns the session's logger.
func (s *Session) Logger() Logger { return s.logger }

// Metrics returns the session's collector, which may be nil.
func (s *Session) Metrics() *metrics.Collector { return s.metrics }

// Execute runs cmd in the tracked working directory and returns the
// post-processed output.  Only transport failures are returned as
// errors.
func (s *Session) Execute(ctx context.Context, cmd string) (string, error) {
	if s.state == StateClosed {
		return "", ncerr.ErrSessionClosed
	}

	wrapped := cmd
	if s.cwd != "" {
		wrapped = fmt.Sprintf("cd '%s' && %s", s.cwd, cmd)
	}
	wrapped = s.pre(wrapped)

	s.logger.Debug("-> %q", wrapped)
	s.metrics.CommandSent()
	s.metrics.BytesSent(int64(len(wrapped)))

	out, err := s.exec.Execute(ctx, wrapped)
	if err != nil {
		s.metrics.RecordError(err.Error())
		return "", err
	}
	s.metrics.BytesReceived(int64(len(out)))
	s.logger.Debug("<- %d bytes", len(out))

	return s.post(out), nil
}

// Bootstrap discovers the remote user, working directory and host in a
// single round trip.  Failures leave the previous values in place and
// are only logged.  Safe to call repeatedly.
func (s *Session) Bootstrap(ctx context.Context) {
	cmd := strings.Join([]string{"whoami", "pwd", "hostname"},
		fmt.Sprintf(";echo %q;", identitySeparator))

	out, err := s.Execute(ctx, cmd)
	if err != nil {
		s.logger.Warn("get remote info failed: %v", err)
		return
	}
	parts := strings.Split(out, identitySeparator)
	if len(parts) != 3 {
		s.logger.Warn("get remote info failed: expected 3 fields, got %d", len(parts))
		return
	}

	s.user = strings.TrimSpace(parts[0])
	s.cwd = strings.TrimSpace(parts[1])
	s.host = strings.TrimSpace(parts[2])
	s.state = StateBootstrapped
	s.logger.Verbose("remote is %s@%s in %s", s.user, s.host, s.cwd)
}

// ChangeDirectory updates the tracked working directory.  Nothing is
// sent to the remote side.
func (s *Session) ChangeDirectory(target string) error {
	if target == "" {
		return fmt.Errorf("cd: empty directory")
	}
	if target[0] == '/' || target[0] == '~' || s.cwd == "" {
		s.cwd = target
		return nil
	}
	s.cwd = path.Clean(s.cwd + "/" + target)
	return nil
}

// PrintWorkingDirectory returns the tracked working directory.
func (s *Session) PrintWorkingDirectory() string { return s.cwd }

// Identity returns the user and host found by Bootstrap.
func (s *Session) Identity() (user, host string) { return s.user, s.host }

// Prompt renders "user@host cwd > ", optionally with ANSI styling.
func (s *Session) Prompt(colour bool) string {
	if !colour {
		return fmt.Sprintf("%s@%s %s > ", s.user, s.host, s.cwd)
	}
	return fmt.Sprintf("\x1b[1;34m%s\x1b[0m@%s \x1b[1m%s\x1b[0m > ", s.user, s.host, s.cwd)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.state == StateClosed }

// Close ends the session.  A connection-backed executor is sent "exit"
// and closed.  The OnClose callback runs once.  Further calls are
// no-ops.
func (s *Session) Close(ctx context.Context) error {
	if s.state == StateClosed {
		return nil
	}

	var err error
	if c, ok := s.exec.(io.Closer); ok {
		if _, xerr := s.Execute(ctx, "exit"); xerr != nil {
			s.logger.Debug("exit: %v", xerr)
		}
		err = c.Close()
	}
	s.state = StateClosed

	if s.metrics != nil {
		s.logger.Debug("session stats: %s", s.metrics.JSON())
	}
	if s.onClose != nil {
		s.onClose()
	}
	return err
}
