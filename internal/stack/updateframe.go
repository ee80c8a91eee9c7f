package stack

import "github.com/dmjio/stgrts/internal/heap"

// Update-frame slot offsets, relative to the frame's base index on Stack B
// (spec.md 3.7). Named per the redesign flag calling for named constants
// instead of magic offsets into the frame.
const (
	FrameReturnContinuation = 0
	FrameSavedBBase         = 1
	FrameSavedABase         = 2
	FrameClosureToUpdate    = 3
	FrameUpdateConstructor  = 4

	// UpdateFrameSize is the number of Stack B slots one update frame
	// occupies.
	UpdateFrameSize = 5
)

// PushUpdateFrame pushes a 5-slot update frame at the current top of sb
// and returns the index of its first slot (spec.md 4.7). returnContinuation
// and updateConstructor are internal/closure.CodeLabel values boxed as
// interface{}; closureToUpdate is the thunk the frame will overwrite on
// return.
func PushUpdateFrame(sb *StackB, returnContinuation interface{}, savedBBase, savedABase int, closureToUpdate heap.Address, updateConstructor interface{}) int {
	base := sb.Top()
	sb.Push(BSlot{Cont: returnContinuation})
	sb.Push(BSlot{Base: savedBBase})
	sb.Push(BSlot{Base: savedABase})
	sb.Push(BSlot{Addr: closureToUpdate})
	sb.Push(BSlot{Cont: updateConstructor})
	return base
}

// ReturnContinuation reads the frame's saved return continuation slot.
func ReturnContinuation(sb *StackB, base int) interface{} {
	return sb.At(base + FrameReturnContinuation).Cont
}

// SavedBBase reads the frame's saved Stack B base slot.
func SavedBBase(sb *StackB, base int) int {
	return sb.At(base + FrameSavedBBase).Base
}

// SavedABase reads the frame's saved Stack A base slot.
func SavedABase(sb *StackB, base int) int {
	return sb.At(base + FrameSavedABase).Base
}

// ClosureToUpdate reads the frame's target-closure slot.
func ClosureToUpdate(sb *StackB, base int) heap.Address {
	return sb.At(base + FrameClosureToUpdate).Addr
}

// SetClosureToUpdate overwrites the frame's target-closure slot, used when
// the collector evacuates the closure being updated out from under a live
// frame.
func SetClosureToUpdate(sb *StackB, base int, addr heap.Address) {
	slot := sb.At(base + FrameClosureToUpdate)
	slot.Addr = addr
	sb.Set(base+FrameClosureToUpdate, slot)
}

// UpdateConstructorLabel reads the frame's update-constructor continuation
// slot.
func UpdateConstructorLabel(sb *StackB, base int) interface{} {
	return sb.At(base + FrameUpdateConstructor).Cont
}

// UpdateFrameRoots walks the chain of update frames starting at sb's
// current base, following each frame's saved-B-base back to the next
// frame out, and returns a pointer to each frame's closure-to-update slot.
// This is Stack B's entire GC root set (spec.md 4.1): unlike Stack A,
// most of Stack B's slots are not pointer-shaped, so only the frames
// themselves, not the whole stack, are scanned.
func UpdateFrameRoots(sb *StackB) []*heap.Address {
	var roots []*heap.Address
	for b := sb.Base(); b >= UpdateFrameSize; {
		fb := b - UpdateFrameSize
		roots = append(roots, &sb.data[fb+FrameClosureToUpdate].Addr)
		b = SavedBBase(sb, fb)
	}
	return roots
}
