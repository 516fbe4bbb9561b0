// Package skiplist is a concurrent, lock-free ordered map from int64 keys to
// int64 values.
//
// A SkipList stacks a fixed number of independent lflist.List levels. Level 0
// holds every key; each higher level holds a random thinning of the one below
// it. Searches start at the top level and descend, so they take expected
// O(log n) steps.
//
// Operations on a single level are lock-free; a multi-level insert or delete
// is not atomic as a whole. A reader may see a key on level 0 before its
// upper copies are linked, or after some of them are already gone. Lookups
// only report keys whose level-0 copy is live.
package skiplist

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/metailurini/lfskiplist/lflist"
)

// SkipList is a lock-free skip list. Use New to create one.
type SkipList struct {
	levels  []*lflist.List
	heights heightSource
	metrics *lflist.Metrics
	logger  *zap.Logger
	backoff *rate.Limiter
	paths   sync.Pool
}

// New returns an empty SkipList.
func New(opts ...Option) *SkipList {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	metrics := lflist.NewMetrics()
	levels := make([]*lflist.List, cfg.maxLevel)
	for i := range levels {
		levels[i] = lflist.New(
			lflist.WithMetrics(metrics),
			lflist.WithRetryBudget(cfg.retryBudget),
			lflist.WithLogger(cfg.logger.With(zap.Int("level", i))),
		)
	}

	sl := &SkipList{
		levels:  levels,
		heights: newCoin(cfg.seed, cfg.seeded),
		metrics: metrics,
		logger:  cfg.logger,
		backoff: rate.NewLimiter(cfg.backoff, cfg.backoffBurst),
	}
	sl.paths.New = func() any {
		p := make([]*lflist.Node, cfg.maxLevel)
		return &p
	}

	cfg.logger.Debug("skip list created",
		zap.Int("max_level", cfg.maxLevel),
		zap.Int("retry_budget", cfg.retryBudget),
		zap.Bool("seeded", cfg.seeded))
	return sl
}

// MaxLevel returns the fixed number of levels.
func (sl *SkipList) MaxLevel() int { return len(sl.levels) }

// Len returns the number of live keys. It is exact only when the list is
// quiescent.
func (sl *SkipList) Len() int64 { return sl.levels[0].Len() }

// LevelLen returns the number of live keys on level i.
func (sl *SkipList) LevelLen(i int) int64 { return sl.levels[i].Len() }

// Stats returns the CAS counters summed over all levels.
func (sl *SkipList) Stats() lflist.Stats { return sl.metrics.Snapshot() }

// Find returns the value stored under key.
func (sl *SkipList) Find(key int64) (int64, bool) {
	top := len(sl.levels) - 1
	start := sl.levels[top].Head()
	for i := top; i >= 0; i-- {
		right, left, err := sl.levels[i].Search(key, start)
		if err != nil {
			sl.check(err)
			// Too contended to help with unlinking; answer from a
			// read-only walk of level 0 instead.
			n := sl.levels[0].Peek(key, nil)
			if n.IsTail() || n.Key() != key {
				return 0, false
			}
			return n.Value(), true
		}
		if holds(right, key) && rooted(right) {
			return right.Value(), true
		}
		if i > 0 {
			start = sl.below(i, left)
		}
	}
	return 0, false
}

// Contains reports whether key is present.
func (sl *SkipList) Contains(key int64) bool {
	_, ok := sl.Find(key)
	return ok
}

// Insert adds key with value. It reports false, and changes nothing, if the
// key is already present. A non-nil error is always lflist.ErrContention.
func (sl *SkipList) Insert(key, value int64) (bool, error) {
	pathp := sl.acquirePath()
	defer sl.releasePath(pathp)
	path := *pathp

	// Record each level's predecessor without writing anything.
	top := len(sl.levels) - 1
	start := sl.levels[top].Head()
	for i := top; i >= 0; i-- {
		right, left, err := sl.levels[i].Search(key, start)
		if err != nil {
			return false, sl.check(err)
		}
		if holds(right, key) && rooted(right) {
			return false, nil
		}
		path[i] = left
		if i > 0 {
			start = sl.below(i, left)
		}
	}

	height := sl.heights.height(len(sl.levels))
	base, inserted, err := sl.levels[0].InsertFrom(path[0], key, value, nil)
	if err != nil {
		return false, sl.check(err)
	}
	if !inserted {
		return false, nil
	}

	tower := base
	for i := 1; i < height; i++ {
		n, inserted, err := sl.levels[i].InsertFrom(path[i], key, value, tower)
		if err != nil || !inserted {
			sl.check(err)
			sl.logger.Debug("tower stopped below its drawn height",
				zap.Int64("key", key),
				zap.Int("level", i),
				zap.Int("height", height),
				zap.Error(err))
			break
		}
		tower = n
		if base.Deleted() {
			// Deleted underneath us. The deleter may have swept before n
			// was linked, so take this tower down again.
			sl.lower(tower, i, path)
			break
		}
	}
	return true, nil
}

// Delete removes key. It reports false if the key was not present. The key
// disappears when its level-0 copy is marked; the upper copies are removed
// afterwards, top down. A non-nil error is always lflist.ErrContention.
func (sl *SkipList) Delete(key int64) (bool, error) {
	pathp := sl.acquirePath()
	defer sl.releasePath(pathp)
	path := *pathp

	top := len(sl.levels) - 1
	start := sl.levels[top].Head()
	for i := top; i > 0; i-- {
		_, left, err := sl.levels[i].Search(key, start)
		if err != nil {
			return false, sl.check(err)
		}
		path[i] = left
		start = sl.below(i, left)
	}
	_, deleted, err := sl.levels[0].DeleteFrom(start, key)
	if err != nil {
		return false, sl.check(err)
	}
	if deleted {
		sl.sweep(key, top, path)
	}
	return deleted, nil
}

// lower removes the tower copies from n on level down to level 1. Only n and
// the nodes reached through its down links are touched, never another tower
// holding the same key.
func (sl *SkipList) lower(n *lflist.Node, level int, path []*lflist.Node) {
	for i := level; i > 0; i-- {
		if _, err := sl.levels[i].DeleteNode(path[i], n); err != nil {
			sl.check(err)
			sl.logger.Warn("could not remove orphaned copy",
				zap.Int64("key", n.Key()),
				zap.Int("level", i),
				zap.Error(err))
		}
		n = n.Down()
	}
}

// sweep removes, top down, every upper copy of key whose level-0 copy is
// dead. An Insert that linked a copy before the level-0 mark is caught
// here; one that links after it sees the mark and lowers its own tower.
// Copies of a live tower are left alone.
func (sl *SkipList) sweep(key int64, top int, path []*lflist.Node) {
	for i := top; i > 0; i-- {
		right, left, err := sl.levels[i].Search(key, path[i])
		if err == nil && holds(right, key) && !rooted(right) {
			_, err = sl.levels[i].DeleteNode(left, right)
		}
		if err != nil {
			sl.check(err)
			sl.logger.Warn("could not remove orphaned copy",
				zap.Int64("key", key),
				zap.Int("level", i),
				zap.Error(err))
		}
	}
}

// below returns where the search continues on level-1 after settling on pred
// at level. Head sentinels lead to the next head; key nodes lead to their
// own copy one level down.
func (sl *SkipList) below(level int, pred *lflist.Node) *lflist.Node {
	if pred.IsHead() || pred.Down() == nil {
		return sl.levels[level-1].Head()
	}
	return pred.Down()
}

// check panics on lflist.ErrBadStart, which only a bug in this package can
// produce, and returns any other error unchanged.
func (sl *SkipList) check(err error) error {
	if errors.Is(err, lflist.ErrBadStart) {
		sl.logger.Error("invalid start hint", zap.Error(err))
		panic(err)
	}
	return err
}

func holds(n *lflist.Node, key int64) bool {
	return !n.IsTail() && n.Key() == key
}

// rooted reports whether the level-0 copy under n is still live.
func rooted(n *lflist.Node) bool {
	for n.Down() != nil {
		n = n.Down()
	}
	return !n.Deleted()
}
