package stack

import "github.com/dmjio/stgrts/internal/heap"

// StackA is the argument stack: a dense array of closure addresses
// (spec.md 3.4).
type StackA = Stack[heap.Address]

// NewA returns an argument stack with room for at least capacity elements.
func NewA(capacity int) *StackA { return New[heap.Address](capacity) }

// BSlot is one element of Stack B. The secondary stack is untyped by
// design (spec.md 3.5: "the runtime itself never inspects tags
// dynamically; layout is fixed by context") — compiled code and the
// update-frame protocol agree out of band on which field of a given slot
// is meaningful. This mirrors how wazero's interpreterOp packs several
// differently-typed payloads into one struct and lets the opcode (here:
// the calling context) pick which field to read.
type BSlot struct {
	Int  int64
	Addr heap.Address
	// Cont holds a continuation (an internal/closure.CodeLabel) boxed as
	// interface{}. Stack cannot reference the closure package directly
	// without creating an import cycle (closure.Machine needs *StackB),
	// so continuations are type-asserted back out by callers that already
	// know, from context, that a given slot holds one.
	Cont interface{}
	// Base holds a saved stack base index, used by update frames to
	// restore Stack A's and Stack B's base on return.
	Base int
}

// StackB is the secondary stack of tagged 64-bit slots (spec.md 3.5).
type StackB = Stack[BSlot]

// NewB returns a secondary stack with room for at least capacity elements.
func NewB(capacity int) *StackB { return New[BSlot](capacity) }
