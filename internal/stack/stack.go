// Package stack implements the VM's two execution stacks as one generic,
// bounds-checked, growable stack type, parameterized over the element each
// stack actually holds (spec.md 3.4, 3.5).
package stack

import "golang.org/x/exp/constraints"

// Stack is a bounds-checked, auto-growing LIFO of elements of type T, with
// a settable base marking the start of the current frame. The original
// runtime's stacks are fixed-size and trust the compiler never to overflow
// them; this one grows instead, the same tradeoff wazero's call-engine
// value stack makes (internal/engine/interpreter: ce.stack []uint64,
// pushValue/popValue) in exchange for one extra branch per push.
type Stack[T any] struct {
	data []T
	base int
	top  int
}

// New returns an empty stack with room for at least capacity elements.
func New[T any](capacity int) *Stack[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Stack[T]{data: make([]T, capacity)}
}

// nextCapacity doubles cur until it can hold needed elements, starting
// from a minimum of 16. Generic over any integer width so both stacks'
// growth bookkeeping, and any future bounded counter in this package,
// share one implementation.
func nextCapacity[N constraints.Integer](cur, needed N) N {
	c := cur
	if c < 16 {
		c = 16
	}
	for c < needed {
		c *= 2
	}
	return c
}

// Push appends v, growing the backing array first if necessary.
func (s *Stack[T]) Push(v T) {
	if s.top == len(s.data) {
		grown := make([]T, nextCapacity(len(s.data), s.top+1))
		copy(grown, s.data)
		s.data = grown
	}
	s.data[s.top] = v
	s.top++
}

// Pop removes and returns the top element. Panics if the stack is empty
// below the current base, the same "this should never happen" contract
// the original runtime gives its fixed-size stacks: an underflow here
// means compiled code is wrong, not that the runtime should degrade
// gracefully (spec.md 7).
func (s *Stack[T]) Pop() T {
	if s.top <= s.base {
		panic("stack: pop below base")
	}
	s.top--
	return s.data[s.top]
}

// Peek returns the top element without removing it.
func (s *Stack[T]) Peek() T {
	if s.top <= s.base {
		panic("stack: peek below base")
	}
	return s.data[s.top-1]
}

// At returns the element at absolute index i (0-based from the very
// bottom of the stack, not from base). Used by the collector to walk the
// whole live range, and by the update-frame helpers to address slots by
// offset from a saved base.
func (s *Stack[T]) At(i int) T { return s.data[i] }

// Set overwrites the element at absolute index i. Used by the collector
// to install evacuated addresses in place.
func (s *Stack[T]) Set(i int, v T) { s.data[i] = v }

// ElemPtr returns a pointer to the element at absolute index i, valid
// until the next Push triggers a grow. Used by the collector to treat
// stack slots as GC roots it can overwrite directly, rather than
// re-deriving an index-based write for every root.
func (s *Stack[T]) ElemPtr(i int) *T { return &s.data[i] }

// Base returns the current frame's base index.
func (s *Stack[T]) Base() int { return s.base }

// SetBase installs a new base, returning the previous one so callers can
// restore it (the save_A / save_B prologue operation, spec.md 4.7).
func (s *Stack[T]) SetBase(b int) int {
	prev := s.base
	s.base = b
	return prev
}

// Top returns the current top index (one past the last live element).
func (s *Stack[T]) Top() int { return s.top }

// SetTop forces the top index, used to unwind the stack back to a saved
// point (e.g. returning through an update frame discards everything
// pushed above it).
func (s *Stack[T]) SetTop(t int) { s.top = t }

// Len returns the number of live elements from index 0 (not from base) —
// the whole stack is live for collection purposes, not just the current
// frame (spec.md 4.1: "the entire live range of Stack A is scanned, not
// just the topmost frame").
func (s *Stack[T]) Len() int { return s.top }
