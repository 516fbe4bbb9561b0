package skiplist

import (
	"testing"
)

func TestIteratorNextTraversesElementsInOrder(t *testing.T) {
	sl := New()

	for _, key := range []int64{5, 1, 3} {
		mustInsert(t, sl, key, key*10)
	}

	it := sl.Iterator()

	var keys []int64
	for it.Next() {
		k := it.Key()
		v := it.Value()
		keys = append(keys, k)
		if expected := k * 10; v != expected {
			t.Fatalf("expected value %d for key %d, got %d", expected, k, v)
		}
	}

	expectedKeys := []int64{1, 3, 5}
	if len(keys) != len(expectedKeys) {
		t.Fatalf("expected %d keys from iterator, got %d", len(expectedKeys), len(keys))
	}
	for i, want := range expectedKeys {
		if keys[i] != want {
			t.Fatalf("expected key %d at position %d, got %d", want, i, keys[i])
		}
	}

	if it.Valid() {
		t.Fatalf("expected iterator to be invalid after exhaustion")
	}
}

func TestIteratorSeekGEPositionsCorrectly(t *testing.T) {
	sl := New()

	mustInsert(t, sl, 1, 100)
	mustInsert(t, sl, 3, 300)
	mustInsert(t, sl, 5, 500)

	it := sl.Iterator()

	if !it.SeekGE(2) {
		t.Fatalf("expected SeekGE to locate key >= 2")
	}
	if got := it.Key(); got != 3 {
		t.Fatalf("expected key 3 after SeekGE, got %d", got)
	}
	if got := it.Value(); got != 300 {
		t.Fatalf("expected value 300, got %d", got)
	}

	if !it.Next() {
		t.Fatalf("expected iterator to advance to next element")
	}
	if got := it.Key(); got != 5 {
		t.Fatalf("expected key 5 after Next, got %d", got)
	}

	if it.Next() {
		t.Fatalf("expected iterator to report exhaustion")
	}

	if it.SeekGE(6) {
		t.Fatalf("expected SeekGE beyond last key to report false")
	}
	if it.Key() != 0 || it.Value() != 0 {
		t.Fatalf("expected zero key and value from an invalid iterator")
	}
}

func TestIteratorSkipsDeletedNodes(t *testing.T) {
	sl := New()

	for i := int64(1); i <= 3; i++ {
		mustInsert(t, sl, i, i)
	}

	it := sl.Iterator()
	if !it.Next() {
		t.Fatalf("expected iterator to yield first element")
	}
	if got := it.Key(); got != 1 {
		t.Fatalf("expected first key 1, got %d", got)
	}

	if ok, err := sl.Delete(2); err != nil || !ok {
		t.Fatalf("delete 2: deleted=%t err=%v", ok, err)
	}

	if !it.Next() {
		t.Fatalf("expected iterator to skip deleted node and continue")
	}
	if got := it.Key(); got != 3 {
		t.Fatalf("expected iterator to skip deleted key and yield 3, got %d", got)
	}

	if it.Next() {
		t.Fatalf("expected iterator to be exhausted after final element")
	}
}

func TestIteratorContinuesFromDeletedPosition(t *testing.T) {
	sl := New()

	for i := int64(1); i <= 4; i++ {
		mustInsert(t, sl, i, i)
	}

	it := sl.SeekGE(2)
	if !it.Valid() || it.Key() != 2 {
		t.Fatalf("expected iterator at key 2")
	}

	// The node under the iterator and its successor both go away.
	for _, k := range []int64{2, 3} {
		if ok, err := sl.Delete(k); err != nil || !ok {
			t.Fatalf("delete %d: deleted=%t err=%v", k, ok, err)
		}
	}

	if !it.Next() {
		t.Fatalf("expected iterator to move past deleted nodes")
	}
	if got := it.Key(); got != 4 {
		t.Fatalf("expected key 4, got %d", got)
	}
}

func TestIteratorSeekGESkipsDeletedNodes(t *testing.T) {
	sl := newWithHeights(t, 4, 1, 3, 1)

	mustInsert(t, sl, 1, 1)
	mustInsert(t, sl, 2, 2)
	mustInsert(t, sl, 3, 3)

	// An orphaned upper copy of 2 must not make SeekGE land on it.
	if ok, err := sl.levels[0].Delete(2); err != nil || !ok {
		t.Fatalf("delete 2 on level 0: deleted=%t err=%v", ok, err)
	}

	it := sl.Iterator()
	if !it.SeekGE(2) {
		t.Fatalf("expected SeekGE to locate an element >= 2")
	}

	if got := it.Key(); got != 3 {
		t.Fatalf("expected SeekGE to skip deleted key and yield 3, got %d", got)
	}
}

func TestNilIterator(t *testing.T) {
	var it *Iterator
	if it.Valid() || it.Next() || it.SeekGE(1) {
		t.Fatalf("expected nil iterator to be inert")
	}
}
