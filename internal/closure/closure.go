package closure

import "github.com/dmjio/stgrts/internal/heap"

// PayloadAddr returns the address of addr's payload, immediately past its
// info-table ID slot.
func PayloadAddr(addr heap.Address) heap.Address {
	return addr + heap.InfoTableIDSize
}

// Enter forces addr: it places addr in NodeRegister and returns its info
// table's Entry label, the generic operation spec.md 2 describes
// ("Entry into a closure places its address in the node register ... and
// transfers to its entry label"). Every caller that needs to force a
// closure by address alone, rather than already knowing its shape, goes
// through here: thunk forcing, following an indirection, and re-entering
// a partial application all reduce to this one operation.
func Enter(m Machine, addr heap.Address) CodeLabel {
	m.Registers().NodeRegister = addr
	id := InfoTableAt(m.Heap(), addr)
	return Lookup(id).Entry
}

// EnterByID dispatches directly to id's Entry label without going through
// an on-heap closure address. A global function with no free variables
// needs no payload of its own - its info table is its entire
// representation - so there is nothing for NodeRegister to usefully point
// at; compiled code that applies such a function (or, as here, a partial
// application re-entering one) uses this instead of Enter.
func EnterByID(id InfoTableID) CodeLabel {
	return Lookup(id).Entry
}

// enterPartialApplication is ShapePartialApplication's shared Entry: it
// restores the closure's saved argument slice onto Stack A beneath
// whatever arguments the caller already pushed above the current base,
// then re-enters the underlying function, which performs its own arity
// check exactly as it would on a first entry (spec.md 9).
func enterPartialApplication(m Machine) CodeLabel {
	addr := m.Registers().NodeRegister
	underlying, saved := PartialApplicationArgs(m.Heap(), addr)

	sa := m.StackA()
	pushedByCaller := sa.Top() - sa.Base()
	newArgs := make([]heap.Address, pushedByCaller)
	for i := pushedByCaller - 1; i >= 0; i-- {
		newArgs[i] = sa.Pop()
	}
	for _, a := range saved {
		sa.Push(a)
	}
	for _, a := range newArgs {
		sa.Push(a)
	}

	return EnterByID(underlying)
}

// InfoTableAt reads the info-table handle stored at the head of the
// closure at addr.
func InfoTableAt(h *heap.Heap, addr heap.Address) InfoTableID {
	return InfoTableID(h.ReadInfoTableID(addr))
}

// pad returns b with enough trailing zero bytes appended that its total
// on-heap size (InfoTableIDSize header plus payload) is at least
// heap.MinClosureSize, so a forwarding indirection never has to be
// written past the end of the allocation.
func pad(b []byte) []byte {
	if heap.InfoTableIDSize+len(b) >= heap.MinClosureSize {
		return b
	}
	return append(b, make([]byte, heap.MinClosureSize-heap.InfoTableIDSize-len(b))...)
}

// Alloc reserves and writes a closure with the given info table and raw
// payload bytes, returning its address.
func Alloc(h *heap.Heap, id InfoTableID, payload []byte) heap.Address {
	payload = pad(payload)
	h.Reserve(uint64(heap.InfoTableIDSize + len(payload)))
	addr := h.WriteInfoTableID(uint32(id))
	if len(payload) > 0 {
		h.Write(payload)
	}
	return addr
}

// Evac is the collector's single entry point for evacuating any closure,
// regardless of shape: it is the EvacFunc heap.Collect is given. Static
// addresses (string literals, the null sentinel) are identity; a closure
// already forwarded this collection returns its recorded new address;
// everything else is dispatched by Shape.
func Evac(src, dst *heap.Heap, old heap.Address) heap.Address {
	if old.IsStatic() {
		return old
	}

	id := InfoTableID(src.ReadInfoTableID(old))
	it := Lookup(id)

	switch it.Shape {
	case ShapeForwarded:
		return src.ReadPtr(PayloadAddr(old))

	case ShapeStatic, ShapeStringLiteral, ShapeNullSentinel:
		// Only ever reachable in the static arena, handled above; kept
		// here so the switch stays exhaustive if that invariant is ever
		// violated by a bug elsewhere.
		return old

	case ShapeString:
		return evacString(src, dst, old)

	case ShapePartialApplication:
		return evacPartialApplication(src, dst, old)

	case ShapeIndirection:
		return evacIndirection(src, dst, old)

	case ShapeCompiled:
		newAddr := it.Evac(src, dst, old, func(addr heap.Address) heap.Address {
			return Evac(src, dst, addr)
		})
		src.OverwriteHeader(old, uint32(ForwardedInfo), newAddr)
		return newAddr

	default:
		panic("closure: unknown shape during evacuation")
	}
}

func evacString(src, dst *heap.Heap, old heap.Address) heap.Address {
	s := src.ReadCString(PayloadAddr(old))
	payload := pad(append(append([]byte(nil), s...), 0))
	dst.Reserve(uint64(heap.InfoTableIDSize + len(payload)))
	newAddr := dst.WriteInfoTableID(uint32(StringInfo))
	dst.Write(payload)

	src.OverwriteHeader(old, uint32(ForwardedInfo), newAddr)
	return newAddr
}

// Partial-application payload layout: [arg_count u16][underlying_function
// InfoTableID][saved argument closures (arg_count * heap.Address)]. Saved
// arguments are always closure addresses from Stack A; Stack B never
// carries a saturating call's arguments in this calling convention, so
// there is no corresponding saved-B slice to evacuate (spec.md 9, open
// question on partial-application layout — resolved in DESIGN.md).
func evacPartialApplication(src, dst *heap.Heap, old heap.Address) heap.Address {
	p := PayloadAddr(old)
	argCount := int(src.ReadUint16(p))
	underlying := src.ReadInfoTableID(p + 2)
	itemsAt := p + 2 + heap.InfoTableIDSize

	// Evacuate the saved arguments before writing this closure, so their
	// copies never land in the middle of its payload.
	newArgs := make([]heap.Address, argCount)
	for i := range newArgs {
		itemAddr := itemsAt + heap.Address(i*heap.WordSize)
		newArgs[i] = Evac(src, dst, src.ReadPtr(itemAddr))
	}

	payloadSize := 2 + heap.InfoTableIDSize + argCount*heap.WordSize
	dst.Reserve(uint64(heap.InfoTableIDSize + max(payloadSize, heap.MinClosureSize-heap.InfoTableIDSize)))
	newAddr := dst.WriteInfoTableID(uint32(PartialApplicationInfo))
	dst.WriteUint16(uint16(argCount))
	dst.WriteInfoTableID(underlying)
	for _, a := range newArgs {
		dst.WritePtr(a)
	}
	if padN := heap.MinClosureSize - heap.InfoTableIDSize - payloadSize; padN > 0 {
		dst.Write(make([]byte, padN))
	}

	src.OverwriteHeader(old, uint32(ForwardedInfo), newAddr)
	return newAddr
}

func evacIndirection(src, dst *heap.Heap, old heap.Address) heap.Address {
	target := src.ReadPtr(PayloadAddr(old))
	newTarget := Evac(src, dst, target)

	dst.Reserve(uint64(heap.MinClosureSize))
	newAddr := dst.WriteInfoTableID(uint32(IndirectionInfo))
	dst.WritePtr(newTarget)

	src.OverwriteHeader(old, uint32(ForwardedInfo), newAddr)
	return newAddr
}

// OverwriteWithIndirection rewrites the closure at addr, in place, into an
// indirection pointing at target. This is how thunk update installs a
// computed value without needing the result to fit in the thunk's
// original allocation (spec.md 4.7): the result is always built as its
// own fresh closure first, and the thunk's slot becomes a one-pointer
// indirection to it, which is guaranteed to fit since every closure
// reserves at least heap.MinClosureSize bytes.
func OverwriteWithIndirection(h *heap.Heap, addr, target heap.Address) {
	h.OverwriteHeader(addr, uint32(IndirectionInfo), target)
}

// RegisterConstructor registers an InfoTable for a data constructor with
// the given arity, whose fields are always closure addresses. Entry is
// nil: a constructor is already in WHNF, and compiled code (or the update
// protocol) is expected to recognize that from its Shape/InfoTableID
// before ever entering it, the same inlined check a real STG compiler
// would emit rather than a generic runtime re-derives.
func RegisterConstructor(arity int) InfoTableID {
	return Register(&InfoTable{
		Shape: ShapeCompiled,
		Evac: func(src, dst *heap.Heap, old heap.Address, recurse func(heap.Address) heap.Address) heap.Address {
			p := PayloadAddr(old)
			// Evacuate the fields first so their copies never land in the
			// middle of this constructor's payload.
			fields := make([]heap.Address, arity)
			for i := range fields {
				fields[i] = recurse(src.ReadPtr(p + heap.Address(i*heap.WordSize)))
			}
			dst.Reserve(uint64(heap.InfoTableIDSize + max(arity*heap.WordSize, heap.MinClosureSize-heap.InfoTableIDSize)))
			id := InfoTableAt(src, old)
			newAddr := dst.WriteInfoTableID(uint32(id))
			for _, f := range fields {
				dst.WritePtr(f)
			}
			if padN := heap.MinClosureSize - heap.InfoTableIDSize - arity*heap.WordSize; padN > 0 {
				dst.Write(make([]byte, padN))
			}
			return newAddr
		},
	})
}

// AllocConstructor allocates a constructor closure of the given info
// table with the given field closures.
func AllocConstructor(h *heap.Heap, id InfoTableID, fields []heap.Address) heap.Address {
	size := len(fields) * heap.WordSize
	h.Reserve(uint64(heap.InfoTableIDSize + max(size, heap.MinClosureSize-heap.InfoTableIDSize)))
	addr := h.WriteInfoTableID(uint32(id))
	for _, f := range fields {
		h.WritePtr(f)
	}
	if padN := heap.MinClosureSize - heap.InfoTableIDSize - size; padN > 0 {
		h.Write(make([]byte, padN))
	}
	return addr
}

// ConstructorFields reads back a constructor closure's field closures.
func ConstructorFields(h *heap.Heap, addr heap.Address, arity int) []heap.Address {
	p := PayloadAddr(addr)
	fields := make([]heap.Address, arity)
	for i := range fields {
		fields[i] = h.ReadPtr(p + heap.Address(i*heap.WordSize))
	}
	return fields
}

// NewPartialApplication allocates a partial-application closure suspending
// underlying with the given already-pushed argument closures.
func NewPartialApplication(h *heap.Heap, underlying InfoTableID, savedArgs []heap.Address) heap.Address {
	payloadSize := 2 + heap.InfoTableIDSize + len(savedArgs)*heap.WordSize
	h.Reserve(uint64(heap.InfoTableIDSize + max(payloadSize, heap.MinClosureSize-heap.InfoTableIDSize)))
	addr := h.WriteInfoTableID(uint32(PartialApplicationInfo))
	h.WriteUint16(uint16(len(savedArgs)))
	h.WriteInfoTableID(uint32(underlying))
	for _, a := range savedArgs {
		h.WritePtr(a)
	}
	if padN := heap.MinClosureSize - heap.InfoTableIDSize - payloadSize; padN > 0 {
		h.Write(make([]byte, padN))
	}
	return addr
}

// PartialApplicationArgs reads back a partial application's argument count,
// underlying function, and saved argument closures.
func PartialApplicationArgs(h *heap.Heap, addr heap.Address) (underlying InfoTableID, saved []heap.Address) {
	p := PayloadAddr(addr)
	argCount := int(h.ReadUint16(p))
	underlying = InfoTableID(h.ReadInfoTableID(p + 2))
	itemsAt := p + 2 + heap.InfoTableIDSize
	saved = make([]heap.Address, argCount)
	for i := range saved {
		saved[i] = h.ReadPtr(itemsAt + heap.Address(i*heap.WordSize))
	}
	return underlying, saved
}
