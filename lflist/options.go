package lflist

import "go.uber.org/zap"

// DefaultRetryBudget is the number of CAS restarts an operation may take
// before it gives up with ErrContention.
const DefaultRetryBudget = 1 << 12

type config struct {
	retryBudget int
	metrics     *Metrics
	logger      *zap.Logger
}

func defaultConfig() config {
	return config{retryBudget: DefaultRetryBudget}
}

// Option configures a List.
type Option func(*config)

// WithRetryBudget bounds how many times one operation restarts after a
// failed CAS. Zero or a negative value means unbounded.
func WithRetryBudget(n int) Option {
	return func(c *config) { c.retryBudget = max(n, 0) }
}

// WithMetrics makes the list count into m instead of a private Metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithLogger sets the logger used for contention reports.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}
