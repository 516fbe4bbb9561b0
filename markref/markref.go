// Package markref provides references that carry a one-bit deletion mark.
//
// Go cannot steal the low bit of a pointer, so a Ref is an immutable
// {pointer, mark} pair and an Atomic swaps whole pairs with a single
// compare-and-swap. Two Refs are equal to CompareAndSwap only if they are
// the same pair, never because they happen to hold the same pointer and mark.
package markref

import "sync/atomic"

// Ref is an immutable reference to a T with an embedded mark bit.
type Ref[T any] struct {
	ptr    *T
	marked bool
}

// New returns an unmarked reference to p.
func New[T any](p *T) *Ref[T] {
	return &Ref[T]{ptr: p}
}

// Ptr returns the referenced value with the mark stripped.
// A nil Ref yields nil.
func (r *Ref[T]) Ptr() *T {
	if r == nil {
		return nil
	}
	return r.ptr
}

// IsMarked reports whether r carries the mark. A nil Ref is unmarked.
func IsMarked[T any](r *Ref[T]) bool {
	return r != nil && r.marked
}

// WithMark returns a marked reference to the same value.
func WithMark[T any](r *Ref[T]) *Ref[T] {
	if r == nil {
		return &Ref[T]{marked: true}
	}
	if r.marked {
		return r
	}
	return &Ref[T]{ptr: r.ptr, marked: true}
}

// WithoutMark returns an unmarked reference to the same value.
func WithoutMark[T any](r *Ref[T]) *Ref[T] {
	if r == nil {
		return &Ref[T]{}
	}
	if !r.marked {
		return r
	}
	return &Ref[T]{ptr: r.ptr}
}

// Atomic is a Ref slot that is read and written atomically.
// The zero value holds a nil Ref.
type Atomic[T any] struct {
	p atomic.Pointer[Ref[T]]
}

// Load returns the current Ref.
func (a *Atomic[T]) Load() *Ref[T] {
	return a.p.Load()
}

// Store unconditionally replaces the current Ref. It is only safe before the
// owner is published to other goroutines.
func (a *Atomic[T]) Store(r *Ref[T]) {
	a.p.Store(r)
}

// CompareAndSwap replaces old with new if the slot still holds old.
func (a *Atomic[T]) CompareAndSwap(old, new *Ref[T]) bool {
	return a.p.CompareAndSwap(old, new)
}
