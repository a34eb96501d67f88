package usecase

import "time"

type options struct {
	metrics       Metrics
	now           func() time.Time
	maxConcurrent int
	callTimeout   time.Duration
}

// Option tunes a use case. Unset options fall back to the defaults below.
type Option func(*options)

func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithCallTimeout bounds each outbound call (order service, processor, authenticator).
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

func resolve(opts []Option) options {
	o := options{
		metrics:       NopMetrics{},
		now:           time.Now,
		maxConcurrent: 8,
		callTimeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
