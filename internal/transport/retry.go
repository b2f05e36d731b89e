package transport

import (
	"context"
	"net"
	"time"

	ncerr "gimmeashell/internal/errors"
	"gimmeashell/internal/retry"
	"gimmeashell/util"
)

// RetryDialer retries the initial dial of a bind shell that may not be
// listening yet (e.g. an exploit that spawns it a moment later).  Only
// dial errors are retried; it never reconnects an established session.
type RetryDialer struct {
	Dialer
	Backoff *retry.Backoff
	Logger  *util.Logger
}

// Dial tries the wrapped dialer according to the backoff policy.
func (d *RetryDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	b := *d.Backoff
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		d.Logger.Verbose("dial %s attempt %d failed: %v (retrying in %s)",
			address, attempt, err, wait.Truncate(time.Millisecond))
	}

	var conn net.Conn
	err := b.Do(ctx, func(_ int) error {
		c, err := d.Dialer.Dial(ctx, network, address)
		if err != nil {
			if !ncerr.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}
