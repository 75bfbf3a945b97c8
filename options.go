package leasedkeyq

import (
	"io"
	"log/slog"
	"time"
)

// defaultReaperInterval is the fixed interval between reaper scans, per
// the reference design (100ms).
const defaultReaperInterval = 100 * time.Millisecond

// options configures Queue behavior (internal only).
type options struct {
	defaultLeaseTimeout *time.Duration
	reaperInterval      time.Duration
	logger              *slog.Logger
}

// defaultOptions returns sensible defaults: no default lease timeout (so
// no reaper arms unless a bounded lease is issued or WithDefaultLeaseTimeout
// is set), a 100ms reaper scan interval, and a no-op logger.
func defaultOptions() options {
	return options{
		defaultLeaseTimeout: nil,
		reaperInterval:      defaultReaperInterval,
		logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option is a functional option for configuring a Queue.
type Option func(*options)

// WithDefaultLeaseTimeout sets the timeout applied to leases issued by
// Get/Take when they don't specify their own lease timeout. Setting this
// arms the background reaper on Start.
func WithDefaultLeaseTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.defaultLeaseTimeout = &timeout
	}
}

// WithReaperInterval overrides the interval between reaper scans.
// DEFAULT: 100ms.
func WithReaperInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval <= 0 {
			interval = defaultReaperInterval
		}
		o.reaperInterval = interval
	}
}

// WithLogger sets the logger for the queue.
// If the logger is nil, the queue will use a no-op logger.
// DEFAULT: A no-op logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			return
		}

		o.logger = logger
	}
}
