package executor

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	ncerr "gimmeashell/internal/errors"
	"gimmeashell/util"
)

// DefaultIdleTimeout is how long the channel must stay silent before a
// response is considered complete.
const DefaultIdleTimeout = 50 * time.Millisecond

// Drain runs commands over a bidirectional byte stream with no framing.
//
// Each command is written followed by "\n"; output is then collected
// until no new data arrives within IdleTimeout.  Remote commands that
// pause longer than that between writes are truncated, and whatever
// they print afterwards is returned with the next command.
//
// A single background reader owns the stream so that any io.Reader can
// be polled with a timeout, including SSH channels and pipes that do
// not support read deadlines.
type Drain struct {
	rw     io.ReadWriteCloser
	target string
	idle   time.Duration

	chunks  chan []byte
	readErr error // set before chunks is closed
	done    chan struct{}
	once    sync.Once
}

// NewDrain starts draining rw.  target names the peer in errors and
// logs.  A zero idle uses DefaultIdleTimeout.
func NewDrain(rw io.ReadWriteCloser, target string, idle time.Duration) *Drain {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	d := &Drain{
		rw:     rw,
		target: target,
		idle:   idle,
		chunks: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go d.pump()
	return d
}

// NewConnDrain drains a network connection, naming it by its remote
// address.
func NewConnDrain(conn net.Conn, idle time.Duration) *Drain {
	return NewDrain(conn, conn.RemoteAddr().String(), idle)
}

func (d *Drain) pump() {
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	for {
		n, err := d.rw.Read(*buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, (*buf)[:n])
			select {
			case d.chunks <- chunk:
			case <-d.done:
				return
			}
		}
		if err != nil {
			d.readErr = err
			close(d.chunks)
			return
		}
	}
}

// Execute sends cmd and collects output until the channel goes quiet.
func (d *Drain) Execute(ctx context.Context, cmd string) (string, error) {
	select {
	case <-d.done:
		return "", ncerr.Transport("write", d.target, net.ErrClosed)
	default:
	}

	if _, err := io.WriteString(d.rw, cmd+"\n"); err != nil {
		return "", ncerr.Transport("write", d.target, err)
	}

	var out strings.Builder
	received := false

	idle := time.NewTimer(d.idle)
	defer idle.Stop()

	for {
		select {
		case chunk, ok := <-d.chunks:
			if !ok {
				if received {
					return normalize(&out), nil
				}
				return "", ncerr.Transport("read", d.target, d.readErr)
			}
			out.Write(chunk)
			received = true
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.idle)
		case <-idle.C:
			return normalize(&out), nil
		case <-ctx.Done():
			return normalize(&out), ncerr.Transport("read", d.target, ctx.Err())
		}
	}
}

// normalize turns terminal line endings into "\n".  It runs on the whole
// response since a "\r\n" may straddle two reads.
func normalize(out *strings.Builder) string {
	return strings.ReplaceAll(out.String(), "\r\n", "\n")
}

// Target names the peer.
func (d *Drain) Target() string { return d.target }

// Close releases the stream.  It is safe to call more than once.
func (d *Drain) Close() error {
	var err error
	d.once.Do(func() {
		close(d.done)
		err = d.rw.Close()
	})
	return err
}
