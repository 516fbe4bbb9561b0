package skiplist

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/metailurini/lfskiplist/lflist"
)

const (
	// DefaultMaxLevel is the number of levels a SkipList gets unless
	// WithMaxLevel says otherwise.
	DefaultMaxLevel = 16

	// MaxLevelLimit is the largest accepted level count.
	MaxLevelLimit = 64
)

// DefaultBackoff paces retries of contended InsertContext and DeleteContext
// calls.
var DefaultBackoff = rate.Every(50 * time.Microsecond)

type config struct {
	maxLevel     int
	retryBudget  int
	seed         uint64
	seeded       bool
	logger       *zap.Logger
	backoff      rate.Limit
	backoffBurst int
}

func defaultConfig() config {
	return config{
		maxLevel:     DefaultMaxLevel,
		retryBudget:  lflist.DefaultRetryBudget,
		logger:       zap.NewNop(),
		backoff:      DefaultBackoff,
		backoffBurst: 1,
	}
}

// Option configures a SkipList.
type Option func(*config)

// WithMaxLevel sets the fixed number of levels, clamped to [1, MaxLevelLimit].
func WithMaxLevel(n int) Option {
	return func(c *config) { c.maxLevel = min(max(n, 1), MaxLevelLimit) }
}

// WithRetryBudget bounds the CAS restarts of a single level operation.
// Zero means unbounded.
func WithRetryBudget(n int) Option {
	return func(c *config) { c.retryBudget = max(n, 0) }
}

// WithSeed makes level draws deterministic for a single-goroutine caller.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
		c.seeded = true
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBackoff sets the rate at which contended *Context operations may
// retry, shared by all callers of the SkipList.
func WithBackoff(limit rate.Limit, burst int) Option {
	return func(c *config) {
		c.backoff = limit
		c.backoffBurst = max(burst, 1)
	}
}
