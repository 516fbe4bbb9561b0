package lflist

import (
	"github.com/pkg/errors"

	"github.com/metailurini/lfskiplist/markref"
)

// position is the result of a search: left is live, leftNext is the exact
// reference observed in left.next, and right is the first live node not
// before the key.
type position struct {
	left     *Node
	leftNext *markref.Ref[Node]
	right    *Node
}

func (l *List) search(op string, key int64, start *Node, b *budget) (position, error) {
	from, err := l.entry(key, start)
	if err != nil {
		return position{}, err
	}

	for {
		pos, ok := scan(key, from)
		if !ok {
			// Everything from the hint up to right is deleted.
			l.metrics.incHintFallback()
			from = l.head
			continue
		}

		if pos.leftNext.Ptr() == pos.right {
			if pos.right.IsTail() || !pos.right.Deleted() {
				return pos, nil
			}
		} else {
			unlinked := markref.New(pos.right)
			if pos.left.next.CompareAndSwap(pos.leftNext, unlinked) {
				l.metrics.incUnlink()
				pos.leftNext = unlinked
				if pos.right.IsTail() || !pos.right.Deleted() {
					return pos, nil
				}
			}
		}

		if !b.spend() {
			return position{}, l.contended(op, key)
		}
	}
}

// entry validates a start hint and returns where scanning begins.
func (l *List) entry(key int64, start *Node) (*Node, error) {
	switch {
	case start == nil || start.IsHead():
		return l.head, nil
	case start.IsTail() || start.key > key:
		return nil, errors.Wrapf(ErrBadStart, "key %d", key)
	case start.key == key:
		// A node holding key cannot be its own predecessor.
		l.metrics.incHintFallback()
		return l.head, nil
	}
	return start, nil
}

// scan walks from from, remembering the last node with an unmarked
// successor, until it reaches a live node not before key or the tail.
// It reports false if no such predecessor was seen.
func scan(key int64, from *Node) (position, bool) {
	var pos position
	t := from
	tNext := t.next.Load()
	for {
		if !markref.IsMarked(tNext) {
			pos.left, pos.leftNext = t, tNext
		}
		t = tNext.Ptr()
		if t.IsTail() {
			break
		}
		tNext = t.next.Load()
		if !markref.IsMarked(tNext) && !t.before(key) {
			break
		}
	}
	pos.right = t
	return pos, pos.left != nil
}
