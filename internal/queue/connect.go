// internal/queue/connect.go
package queue

import (
	"context"
	"fmt"
	"time"

	"order-printer/pkg/driver"
)

// Options bound connection polling and task execution
type Options struct {
	PollInterval       time.Duration
	MaxConnectAttempts int
	ConnectTimeout     time.Duration
	TaskTimeout        time.Duration
}

// DefaultOptions returns the stock polling and timeout settings
func DefaultOptions() Options {
	return Options{
		PollInterval:       500 * time.Millisecond,
		MaxConnectAttempts: 10,
		ConnectTimeout:     15 * time.Second,
		TaskTimeout:        60 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.MaxConnectAttempts < 1 {
		o.MaxConnectAttempts = def.MaxConnectAttempts
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = def.ConnectTimeout
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = def.TaskTimeout
	}
	return o
}

// Predicate decides whether a polled status is ready for work
type Predicate func(driver.StatusResponse) bool

// Online is the default connect predicate
func Online(s driver.StatusResponse) bool {
	return s.IsOnline()
}

// ConnectUntil connects drv if needed and polls its status every
// PollInterval until pred holds. It gives up after MaxConnectAttempts polls
// or ConnectTimeout, whichever comes first, with ErrConnectionTimeout
// wrapping the last failure.
func ConnectUntil(ctx context.Context, drv driver.Printer, pred Predicate, opts Options) (driver.StatusResponse, error) {
	opts = opts.withDefaults()
	if pred == nil {
		pred = Online
	}

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	var (
		last    = driver.UnknownStatus()
		lastErr error
	)

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	attempt := 0
	for attempt < opts.MaxConnectAttempts {
		attempt++

		status, err := poll(ctx, drv)
		switch {
		case err != nil:
			lastErr = err
		case pred(status):
			return status, nil
		default:
			last = status
			lastErr = fmt.Errorf("printer not ready (connection=%s, online=%s)",
				status.Connection.StatusCode, status.Online.StatusCode)
		}

		if attempt == opts.MaxConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return last, fmt.Errorf("%w after %d attempts: %w", ErrConnectionTimeout, attempt, lastErr)
		case <-ticker.C:
		}
	}

	return last, fmt.Errorf("%w after %d attempts: %w", ErrConnectionTimeout, attempt, lastErr)
}

func poll(ctx context.Context, drv driver.Printer) (driver.StatusResponse, error) {
	if !drv.IsConnected() {
		if err := drv.Connect(ctx); err != nil {
			return driver.UnknownStatus(), err
		}
	}
	return drv.Status(ctx)
}
