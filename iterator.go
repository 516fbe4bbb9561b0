package skiplist

import "github.com/metailurini/lfskiplist/lflist"

// Iterator provides a forward-only view over level 0. It is weakly
// consistent: keys inserted or deleted while it runs may or may not appear.
type Iterator struct {
	sl      *SkipList
	current *lflist.Node
	key     int64
	value   int64
	valid   bool
}

// Iterator returns a new iterator positioned before the first element.
func (sl *SkipList) Iterator() *Iterator {
	return &Iterator{sl: sl}
}

// SeekGE returns an iterator positioned at the first element whose key is
// greater than or equal to key. The returned iterator is valid if and only if
// such an element exists.
func (sl *SkipList) SeekGE(key int64) *Iterator {
	it := sl.Iterator()
	it.SeekGE(key)
	return it
}

// Valid reports whether the iterator currently points at an element.
func (it *Iterator) Valid() bool {
	if it == nil {
		return false
	}
	return it.valid
}

// Key returns the key at the iterator's current position.
// It should only be called when Valid reports true.
func (it *Iterator) Key() int64 {
	if it == nil || !it.valid {
		return 0
	}
	return it.key
}

// Value returns the value at the iterator's current position.
// It should only be called when Valid reports true.
func (it *Iterator) Value() int64 {
	if it == nil || !it.valid {
		return 0
	}
	return it.value
}

// SeekGE positions the iterator at the first element whose key is greater
// than or equal to key. It returns true if such an element exists.
func (it *Iterator) SeekGE(key int64) bool {
	if it == nil || it.sl == nil {
		return false
	}
	it.invalidate()
	return it.land(it.sl.seek(key))
}

// Next advances the iterator to the next element and reports whether it
// successfully moved forward. If the iterator was not valid prior to the
// call, it advances to the first element.
func (it *Iterator) Next() bool {
	if it == nil || it.sl == nil {
		return false
	}
	base := it.sl.levels[0]
	from := it.current
	if !it.valid || from == nil {
		from = base.Head()
	}
	return it.land(base.Next(from))
}

func (it *Iterator) land(n *lflist.Node) bool {
	if n == nil || n.IsTail() {
		it.invalidate()
		return false
	}
	it.current = n
	it.key = n.Key()
	it.value = n.Value()
	it.valid = true
	return true
}

func (it *Iterator) invalidate() {
	if it == nil {
		return
	}
	it.current = nil
	it.valid = false
	it.key = 0
	it.value = 0
}

// seek returns the first live level-0 node whose key is >= key, descending
// from the top level.
func (sl *SkipList) seek(key int64) *lflist.Node {
	top := len(sl.levels) - 1
	start := sl.levels[top].Head()
	for i := top; i > 0; i-- {
		_, left, err := sl.levels[i].Search(key, start)
		if err != nil {
			sl.check(err)
			return sl.levels[0].Peek(key, nil)
		}
		start = sl.below(i, left)
	}
	right, _, err := sl.levels[0].Search(key, start)
	if err != nil {
		sl.check(err)
		return sl.levels[0].Peek(key, nil)
	}
	return right
}
