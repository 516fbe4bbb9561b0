package lflist

import (
	"fmt"
	"io"
	"strings"
)

// Range calls fn for every live node in ascending key order until fn
// returns false. Nodes inserted or deleted during the walk may or may not be
// seen.
func (l *List) Range(fn func(key, value int64) bool) {
	for n := l.Next(l.head); !n.IsTail(); n = l.Next(n) {
		if !fn(n.key, n.value) {
			return
		}
	}
}

// Next returns the first live node after n, or the tail. n may already be
// deleted; the walk then continues from the successor it had when it was
// marked.
func (l *List) Next(n *Node) *Node {
	if n == nil || n.IsTail() {
		return l.tail
	}
	for next := n.next.Load().Ptr(); ; next = next.next.Load().Ptr() {
		if next.IsTail() || !next.Deleted() {
			return next
		}
	}
}

// Keys returns the live keys in ascending order.
func (l *List) Keys() []int64 {
	var keys []int64
	l.Range(func(key, _ int64) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Dump writes a human readable listing of the live nodes to w.
func (l *List) Dump(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("# lock-free list\n")
	fmt.Fprintf(&sb, "# size : %d\n", l.Len())
	empty := true
	l.Range(func(key, value int64) bool {
		empty = false
		fmt.Fprintf(&sb, "# %d : %d\n", key, value)
		return true
	})
	if empty {
		sb.WriteString("# empty\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
