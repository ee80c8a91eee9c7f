package closure

import "github.com/dmjio/stgrts/internal/heap"

// staticClosure writes id followed by payload (padded to MinClosureSize)
// into the heap's static arena and returns its address.
func staticClosure(h *heap.Heap, id InfoTableID, payload []byte) heap.Address {
	payload = pad(payload)
	buf := make([]byte, 0, heap.InfoTableIDSize+len(payload))
	buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	buf = append(buf, payload...)
	return h.WriteStatic(buf)
}

// NewNullSentinel writes the runtime-owned null-sentinel closure into the
// static arena. Call once per heap, at setup, before any register or
// stack slot is initialized (spec.md 3.1, 9).
func NewNullSentinel(h *heap.Heap) heap.Address {
	return staticClosure(h, NullSentinelInfo, nil)
}

// NewStringLiteral writes a compiler-emitted string literal into the
// static arena and returns its address.
func NewStringLiteral(h *heap.Heap, s string) heap.Address {
	return staticClosure(h, StringLiteralInfo, append([]byte(s), 0))
}
