package heap

// EvacFunc copies the closure at old in the source heap into dst (the
// generation being built) and returns its new address. Implementations
// must be idempotent: calling it twice on the same old address, from the
// same collection, must return the same new address both times (spec.md
// P3). The closure package supplies the concrete dispatch; this package
// only drives the copy.
type EvacFunc func(src, dst *Heap, old Address) Address

// Root is a pointer to a slot holding a closure Address: a register field,
// a stack element, or an update-frame slot. Collect overwrites *Root with
// the evacuated address once the referenced closure has moved.
type Root = *Address

// Collect runs one full copying collection of src, evacuating every root
// (and, transitively, everything each root's closure points to) into a
// freshly sized generation, then adopts that generation into src in place.
// extra is the number of bytes the caller still needs after collection
// finishes; Collect sizes the destination generation large enough to
// guarantee they fit without a second pass.
//
// The destination is sized to max(growth * src.capacity, src.cursor + extra)
// before evacuation starts (src.cursor is a safe upper bound on live bytes,
// since live bytes can never exceed total bytes ever allocated in the
// generation being replaced) and then, once the true live size is known,
// shrunk to 3 * live if that is smaller, but never below live + extra,
// bounding the working set for the next generation without touching the
// backing allocation (spec.md 4.1).
func Collect(src *Heap, extra Address, roots []Root, evac EvacFunc) {
	target := Address(src.growth) * src.capacity
	if alt := src.cursor + extra; alt > target {
		target = alt
	}

	dst := &Heap{
		data:     make([]byte, target),
		capacity: target,
		growth:   src.growth,
		static:   src.static,
	}
	dst.staticCursor = src.staticCursor

	for _, r := range roots {
		*r = evac(src, dst, *r)
	}

	live := dst.cursor
	shrinkTo := 3 * live
	if needed := live + extra; shrinkTo < needed {
		shrinkTo = needed
	}
	if shrinkTo < dst.capacity {
		dst.capacity = shrinkTo
	}

	src.adoptFrom(dst)
}
