// Package strref implements string-closure allocation and concatenation:
// the one primop family the heap and collector need to cooperate on
// directly, since a concatenation result's size isn't known until both
// operands are read (spec.md 4.6).
package strref

import (
	"github.com/dmjio/stgrts/internal/closure"
	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/stack"
)

// New allocates a fresh, heap-resident string closure holding s.
func New(h *heap.Heap, s string) heap.Address {
	h.Reserve(uint64(heap.InfoTableIDSize + len(s) + 1))
	return closure.Alloc(h, closure.StringInfo, append([]byte(s), 0))
}

// Text reads back the bytes of the string closure at addr, whichever
// shape (ShapeString or ShapeStringLiteral) it was built with — both lay
// out a NUL-terminated byte string immediately after the info-table ID,
// so a single NUL scan serves either.
func Text(h *heap.Heap, addr heap.Address) string {
	return string(h.ReadCString(closure.PayloadAddr(addr)))
}

// Concat allocates a new string closure holding the concatenation of the
// strings at a and b. It follows the protect-before-safepoint idiom: a
// and b are pushed onto sa before the allocation that might trigger
// collection, then popped back off afterward, so the collector can
// relocate them and Concat still reads the post-collection addresses
// (spec.md 4.6, "protect-before-safepoint").
//
// Exactly one NUL terminates the result, following the payload bytes of a
// then the payload bytes of b (spec.md P4): unlike the earliest draft this
// runtime's string_concat was grounded on, the first operand's own
// terminator is not copied into the middle of the result.
func Concat(h *heap.Heap, sa *stack.StackA, a, b heap.Address) heap.Address {
	sa.Push(a)
	sa.Push(b)

	bTextAddr := sa.Peek()
	aTextAddr := sa.At(sa.Top() - 2)
	sLen := len(h.ReadCString(closure.PayloadAddr(aTextAddr)))
	tLen := len(h.ReadCString(closure.PayloadAddr(bTextAddr)))

	h.Reserve(uint64(heap.InfoTableIDSize + sLen + tLen + 1))

	// Re-read after Reserve: a collection may have moved both operands.
	b = sa.Pop()
	a = sa.Pop()

	sBytes := h.ReadCString(closure.PayloadAddr(a))
	tBytes := h.ReadCString(closure.PayloadAddr(b))

	payload := make([]byte, 0, sLen+tLen+1)
	payload = append(payload, sBytes...)
	payload = append(payload, tBytes...)
	payload = append(payload, 0)

	return closure.Alloc(h, closure.StringInfo, payload)
}
