// Package heap implements the bump-allocated, semi-space copying heap that
// compiled code allocates closures into.
//
// Addresses are offsets into the heap's own byte arena rather than raw
// pointers: closures never outlive a collection at a fixed machine address,
// so there is nothing for Go's pointer-safety rules to complain about, and
// nothing here needs the unsafe package.
package heap

import "encoding/binary"

// Address identifies a closure, either by its byte offset into the current
// heap generation (the low bit pattern) or, when StaticBit is set, by its
// offset into the heap's static arena: a side buffer that is never scanned
// for collection and never moves. String literals and the runtime-owned
// null-sentinel closure live there.
type Address uint64

// StaticBit marks an Address as referring to the static arena instead of
// the current (movable) generation.
const StaticBit Address = 1 << 63

// IsStatic reports whether addr refers to the static arena.
func (addr Address) IsStatic() bool { return addr&StaticBit != 0 }

func (addr Address) offset() uint64 { return uint64(addr &^ StaticBit) }

// wordSize is the width used for every pointer-shaped or integer-shaped slot
// written to the heap. It is fixed regardless of host uintptr width so that
// heap contents never depend on GOARCH.
const wordSize = 8

// infoTableIDSize is the width of an InfoTableID slot.
const infoTableIDSize = 4

// WordSize and InfoTableIDSize expose the two slot widths to other
// packages that need to compute closure layout (the closure package's
// payload offset is always InfoTableIDSize bytes into a closure).
const (
	WordSize        = wordSize
	InfoTableIDSize = infoTableIDSize
)

// MinClosureSize is the minimum number of bytes any closure allocation must
// occupy: an info-table ID plus one pointer-sized slot. Every closure must
// be at least this large so that the collector's in-place conversion to a
// forwarding indirection never overflows the allocated slot (spec 3.2).
const MinClosureSize = infoTableIDSize + wordSize

// Heap is a bump allocator over a single contiguous arena, plus collection
// bookkeeping. The zero value is not usable; construct with New.
type Heap struct {
	data     []byte
	cursor   Address
	capacity Address
	growth   int

	static       []byte
	staticCursor Address

	collect func(extra Address)
}

// New creates a heap with the given initial capacity, in bytes, and growth
// factor used by collection (spec 4.1 step 1; defaults to 3 if growth < 2,
// matching the original runtime's unexplained but spec-sanctioned constant).
func New(initialCapacity uint64, growth int) *Heap {
	if growth < 2 {
		growth = 3
	}
	return &Heap{
		data:     make([]byte, initialCapacity),
		capacity: Address(initialCapacity),
		growth:   growth,
	}
}

// SetCollector installs the function invoked when Reserve finds too little
// room. It is set once, after construction, by the owning Runtime: the heap
// itself knows nothing about roots, stacks, or registers (spec 9: "process-
// wide mutable globals -> a Runtime context value" means the heap stays a
// leaf and the Runtime supplies the policy).
func (h *Heap) SetCollector(fn func(extra Address)) { h.collect = fn }

// Cursor returns the current write pointer.
func (h *Heap) Cursor() Address { return h.cursor }

// Capacity returns the current generation's capacity in bytes.
func (h *Heap) Capacity() Address { return h.capacity }

// Growth returns the configured growth factor.
func (h *Heap) Growth() int { return h.growth }

// Reserve ensures n more bytes can be written at the cursor, invoking
// collection if not. Panics (fatal, per spec 7) if no collector is
// installed or if collection did not free enough room.
func (h *Heap) Reserve(n uint64) {
	if h.cursor+Address(n) <= h.capacity {
		return
	}
	if h.collect == nil {
		panic("heap: allocation failure: no collector installed")
	}
	h.collect(Address(n))
	if h.cursor+Address(n) > h.capacity {
		panic("heap: allocation failure: collection did not free enough space")
	}
}

// Write copies b to the cursor and advances it, returning the address it was
// written at. Callers must have called Reserve for at least len(b) bytes
// first.
func (h *Heap) Write(b []byte) Address {
	addr := h.cursor
	n := copy(h.data[addr:], b)
	if n != len(b) {
		panic("heap: write overruns capacity; Reserve was not called or was too small")
	}
	h.cursor += Address(len(b))
	return addr
}

// WritePtr writes an Address-shaped slot.
func (h *Heap) WritePtr(v Address) Address {
	var buf [wordSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return h.Write(buf[:])
}

// WriteInfoTableID writes an info-table handle slot.
func (h *Heap) WriteInfoTableID(id uint32) Address {
	var buf [infoTableIDSize]byte
	binary.LittleEndian.PutUint32(buf[:], id)
	return h.Write(buf[:])
}

// WriteInt64 writes a signed 64-bit integer slot.
func (h *Heap) WriteInt64(v int64) Address {
	var buf [wordSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return h.Write(buf[:])
}

// WriteUint16 writes an unsigned 16-bit integer slot.
func (h *Heap) WriteUint16(v uint16) Address {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return h.Write(buf[:])
}

// bytesAt returns the n bytes at addr, whichever arena addr refers to. It
// does not bounds-check beyond what a slice re-slice does, mirroring the
// original runtime's trusted-caller contract (spec 4.4).
func (h *Heap) bytesAt(addr Address, n int) []byte {
	if addr.IsStatic() {
		off := addr.offset()
		return h.static[off : off+uint64(n)]
	}
	off := addr.offset()
	return h.data[off : off+uint64(n)]
}

// ReadPtr reads an Address-shaped slot at addr.
func (h *Heap) ReadPtr(addr Address) Address {
	return Address(binary.LittleEndian.Uint64(h.bytesAt(addr, wordSize)))
}

// ReadInfoTableID reads the info-table handle at addr.
func (h *Heap) ReadInfoTableID(addr Address) uint32 {
	return binary.LittleEndian.Uint32(h.bytesAt(addr, infoTableIDSize))
}

// ReadInt64 reads a signed 64-bit integer slot at addr.
func (h *Heap) ReadInt64(addr Address) int64 {
	return int64(binary.LittleEndian.Uint64(h.bytesAt(addr, wordSize)))
}

// ReadUint16 reads an unsigned 16-bit integer slot at addr.
func (h *Heap) ReadUint16(addr Address) uint16 {
	return binary.LittleEndian.Uint16(h.bytesAt(addr, 2))
}

// ReadBytes returns a copy of n raw bytes at addr (used for NUL-terminated
// string payload scans).
func (h *Heap) ReadBytes(addr Address, n int) []byte {
	b := make([]byte, n)
	copy(b, h.bytesAt(addr, n))
	return b
}

// ReadCString reads a NUL-terminated byte string starting at addr, not
// including the terminator.
func (h *Heap) ReadCString(addr Address) []byte {
	if addr.IsStatic() {
		off := addr.offset()
		end := off
		for h.static[end] != 0 {
			end++
		}
		return append([]byte(nil), h.static[off:end]...)
	}
	off := addr.offset()
	end := off
	for h.data[end] != 0 {
		end++
	}
	return append([]byte(nil), h.data[off:end]...)
}

// OverwriteHeader rewrites the info-table handle and following pointer slot
// at addr in place. This is the collector's forwarding-indirection
// mechanism (spec 4.1 "Forwarding protocol"): it must never be used for
// anything else, since closures are otherwise immutable after publication
// (spec 3.2).
func (h *Heap) OverwriteHeader(addr Address, id uint32, ptr Address) {
	var idBuf [infoTableIDSize]byte
	binary.LittleEndian.PutUint32(idBuf[:], id)
	copy(h.bytesAt(addr, infoTableIDSize), idBuf[:])

	var ptrBuf [wordSize]byte
	binary.LittleEndian.PutUint64(ptrBuf[:], uint64(ptr))
	copy(h.bytesAt(addr+infoTableIDSize, wordSize), ptrBuf[:])
}

// WriteStatic appends b to the static arena, never to be moved or
// collected, and returns its address. Used for string literals and the
// runtime-owned sentinel closures (spec 3.1).
func (h *Heap) WriteStatic(b []byte) Address {
	addr := h.staticCursor | StaticBit
	h.static = append(h.static, b...)
	h.staticCursor += Address(len(b))
	return addr
}

// adoptFrom replaces h's movable generation with next's, preserving the
// static arena (shared, immutable, common to every generation) and the
// collector hook. Used by Collect's caller to finish a collection in
// place.
func (h *Heap) adoptFrom(next *Heap) {
	h.data = next.data
	h.cursor = next.cursor
	h.capacity = next.capacity
	// static arena and collect hook are untouched: the static arena is
	// shared across generations and the collector hook is owned by the
	// Runtime for the heap's whole lifetime.
}
