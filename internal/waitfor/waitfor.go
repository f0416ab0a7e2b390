// Package waitfor polls for a condition with a bounded wait.
package waitfor

import (
	"context"
	"errors"
	"time"
)

const (
	defaultInterval = 25 * time.Millisecond
	defaultTimeout  = 10 * time.Second
)

// ErrTimeout is returned when the probe never succeeded within the timeout.
var ErrTimeout = errors.New("waitfor: timed out")

// Options bounds the wait.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// Until calls probe until it returns true. It gives up with ErrTimeout, or with
// ctx.Err() when ctx is cancelled first.
func Until(ctx context.Context, probe func() bool, opts Options) error {
	if ctx == nil {
		return errors.New("waitfor: context is required")
	}
	if probe == nil {
		return errors.New("waitfor: probe is required")
	}
	opts = opts.withDefaults()

	if err := ctx.Err(); err != nil {
		return err
	}
	if probe() {
		return nil
	}

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrTimeout
		case <-ticker.C:
			if probe() {
				return nil
			}
		}
	}
}
