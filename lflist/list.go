// Package lflist implements a lock-free sorted singly linked list of int64
// keys (Harris, 2001).
//
// Deletion is two-phase: a node is logically deleted by marking its
// successor reference, and physically unlinked later by whichever search
// walks past it. All mutation goes through compare-and-swap on Node.next;
// nothing blocks.
//
// Unlinked nodes are left to the garbage collector and never reused, which
// keeps stale references held by concurrent readers valid and rules out ABA
// on the successor CAS.
package lflist

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/metailurini/lfskiplist/markref"
)

var (
	// ErrBadStart is returned when a start hint sorts after the key being
	// searched for. It indicates a caller bug and is never retried.
	ErrBadStart = errors.New("lflist: start node sorts after key")

	// ErrContention is returned when an operation used up its retry budget.
	// The list is unchanged by the failed call.
	ErrContention = errors.New("lflist: retry budget exhausted")
)

// List is a lock-free sorted list bounded by head and tail sentinels.
// The zero value is not usable; call New.
type List struct {
	head    *Node
	tail    *Node
	length  atomic.Int64
	budget  int
	metrics *Metrics
	logger  *zap.Logger
}

// New returns an empty list.
func New(opts ...Option) *List {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.metrics == nil {
		cfg.metrics = NewMetrics()
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	head, tail := newSentinels()
	return &List{
		head:    head,
		tail:    tail,
		budget:  cfg.retryBudget,
		metrics: cfg.metrics,
		logger:  cfg.logger,
	}
}

// Head returns the head sentinel.
func (l *List) Head() *Node { return l.head }

// Tail returns the tail sentinel.
func (l *List) Tail() *Node { return l.tail }

// Len returns the number of live nodes. It is exact only when the list is
// quiescent.
func (l *List) Len() int64 { return l.length.Load() }

// Metrics returns the counters this list reports into.
func (l *List) Metrics() *Metrics { return l.metrics }

// Search returns the first live node whose key is >= key (the tail if there
// is none) and the live node immediately before it. Logically deleted nodes
// between the two are unlinked on the way.
//
// A non-nil start must not sort after key; the scan then begins there
// instead of at the head. A start that turns out to be deleted falls back to
// the head.
func (l *List) Search(key int64, start *Node) (right, left *Node, err error) {
	b := l.newBudget()
	pos, err := l.search("search", key, start, &b)
	if err != nil {
		return nil, nil, err
	}
	return pos.right, pos.left, nil
}

// Peek returns the first live node at or after key without writing to the
// list. It never fails, but the answer may be stale by the time it returns.
func (l *List) Peek(key int64, start *Node) *Node {
	t := start
	if t == nil || t.IsTail() || !t.before(key) {
		t = l.head
	}
	for {
		next := t.next.Load().Ptr()
		if next.IsTail() || (!next.Deleted() && !next.before(key)) {
			return next
		}
		t = next
	}
}

// Find returns the value stored under key.
func (l *List) Find(key int64) (int64, bool) {
	right, _, err := l.Search(key, nil)
	if err != nil {
		right = l.Peek(key, nil)
	}
	if right.holds(key) {
		return right.value, true
	}
	return 0, false
}

// Contains reports whether key is live in the list.
func (l *List) Contains(key int64) bool {
	_, ok := l.Find(key)
	return ok
}

// Insert adds key with value. It reports false if the key is already present.
func (l *List) Insert(key, value int64) (bool, error) {
	_, inserted, err := l.InsertFrom(nil, key, value, nil)
	return inserted, err
}

// InsertFrom is Insert with a start hint and a down link for the new node.
// start, if non-nil, must sort strictly before key. On success it returns
// the linked node; on a duplicate it returns the node already holding key.
func (l *List) InsertFrom(start *Node, key, value int64, down *Node) (*Node, bool, error) {
	if start != nil && !start.before(key) {
		return nil, false, errors.Wrapf(ErrBadStart, "insert key %d", key)
	}

	n := newNode(key, value, down)
	b := l.newBudget()
	for {
		pos, err := l.search("insert", key, start, &b)
		if err != nil {
			return nil, false, err
		}
		if pos.right.holds(key) {
			return pos.right, false, nil
		}

		n.next.Store(markref.New(pos.right))
		if linkCASHook != nil {
			linkCASHook(pos.left, n)
		}
		if pos.left.next.CompareAndSwap(pos.leftNext, markref.New(n)) {
			l.length.Add(1)
			l.metrics.incInsertCASSuccess()
			return n, true, nil
		}

		l.metrics.incInsertCASRetry()
		if !b.spend() {
			return nil, false, l.contended("insert", key)
		}
	}
}

// Delete removes key. It reports false if the key was not present.
func (l *List) Delete(key int64) (bool, error) {
	_, deleted, err := l.DeleteFrom(nil, key)
	return deleted, err
}

// DeleteFrom is Delete with a start hint. Besides the outcome it returns the
// live predecessor the search settled on, which callers may use as the next
// entry point.
func (l *List) DeleteFrom(start *Node, key int64) (*Node, bool, error) {
	return l.remove("delete", start, key, nil)
}

// DeleteNode logically deletes n itself. It reports false if n is no longer
// live, even when another node now holds n's key.
func (l *List) DeleteNode(start, n *Node) (bool, error) {
	if n == nil || n.role != roleKey {
		return false, nil
	}
	_, deleted, err := l.remove("delete node", start, n.key, n)
	return deleted, err
}

// remove marks the live node holding key. A non-nil want restricts it to
// that exact node.
func (l *List) remove(op string, start *Node, key int64, want *Node) (*Node, bool, error) {
	b := l.newBudget()
	for {
		pos, err := l.search(op, key, start, &b)
		if err != nil {
			return nil, false, err
		}
		if !pos.right.holds(key) || (want != nil && pos.right != want) {
			return pos.left, false, nil
		}

		target := pos.right
		succ := target.next.Load()
		if !markref.IsMarked(succ) {
			if markCASHook != nil {
				markCASHook(target)
			}
			if target.next.CompareAndSwap(succ, markref.WithMark(succ)) {
				l.length.Add(-1)
				l.metrics.incDeleteCASSuccess()
				if pos.left.next.CompareAndSwap(pos.leftNext, markref.New(succ.Ptr())) {
					l.metrics.incUnlink()
				} else {
					// Someone changed pred first; a fresh search will sweep target.
					sweep := l.newBudget()
					_, _ = l.search(op, key, start, &sweep)
				}
				return pos.left, true, nil
			}
		}

		l.metrics.incDeleteCASRetry()
		if !b.spend() {
			return nil, false, l.contended(op, key)
		}
	}
}

func (l *List) contended(op string, key int64) error {
	l.metrics.incContention()
	l.logger.Warn("lock-free list retry budget exhausted",
		zap.String("op", op),
		zap.Int64("key", key),
		zap.Int("budget", l.budget))
	return errors.Wrapf(ErrContention, "%s key %d", op, key)
}

// budget counts CAS restarts left for one operation.
type budget struct {
	left      int
	unbounded bool
}

func (l *List) newBudget() budget {
	return budget{left: l.budget, unbounded: l.budget == 0}
}

func (b *budget) spend() bool {
	if b.unbounded {
		return true
	}
	if b.left == 0 {
		return false
	}
	b.left--
	return true
}
