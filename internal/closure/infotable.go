package closure

import "github.com/dmjio/stgrts/internal/heap"

// Shape selects how the collector evacuates a closure and how entering it
// behaves, replacing the original runtime's raw function-pointer info
// table with a tagged variant the collector can switch on (spec.md 9,
// redesign flag: "function pointers in info tables -> tagged variants").
type Shape int

const (
	// ShapeStatic marks a closure the collector must never move: its
	// address is stable for the life of the process. Evac is identity.
	ShapeStatic Shape = iota

	// ShapeForwarded marks a closure that has already been evacuated this
	// collection; the word immediately after its info-table ID is the new
	// address (spec.md 4.1 "forwarding protocol").
	ShapeForwarded

	// ShapeString marks a heap-allocated, NUL-terminated byte string
	// closure (spec.md 3.1, 4.6). Evac copies the payload.
	ShapeString

	// ShapeStringLiteral marks a string closure the compiler emitted into
	// the static arena. Evac is identity.
	ShapeStringLiteral

	// ShapePartialApplication marks a suspended under-application,
	// holding a saved Stack A argument slice plus the underlying function
	// (spec.md 3.7, 4.7); no Stack B slice is saved. Evac copies the
	// payload and recursively evacuates its saved Stack A slice. Entry
	// restores the saved slice beneath whatever new arguments the caller
	// already pushed and re-enters the underlying function, which redoes
	// its own arity check exactly as if this were its very first entry.
	ShapePartialApplication

	// ShapeNullSentinel marks the runtime-owned placeholder every
	// pointer register is initialized to,
	// so the collector can dereference any register without a nil check
	// (spec.md 3.6, 9). Evac is identity; Entry must never be called.
	ShapeNullSentinel

	// ShapeCompiled is the escape hatch for closures the compiler itself
	// describes: ordinary thunks and data constructors. Entry and Evac
	// are both supplied by whoever registers the InfoTable.
	ShapeCompiled

	// ShapeIndirection marks a closure that has been updated to point at
	// its computed value (spec.md 4.7 "update on return"). Entering it
	// tail-calls into the target's own entry code; evacuating it
	// evacuates the target and rebuilds a fresh indirection pointing at
	// the target's new address.
	ShapeIndirection
)

// EvacFunc copies the closure at old, in src, into dst, and returns its new
// address. recurse evacuates a nested closure address (e.g. one saved
// argument of a partial application or one field of a data constructor)
// through the generic dispatcher, so shape-specific code never needs to
// know any other shape's layout.
type EvacFunc func(src, dst *heap.Heap, old heap.Address, recurse func(heap.Address) heap.Address) heap.Address

// InfoTable is the immutable descriptor shared by every closure of one
// shape (spec.md 3.1). Entry is set only for ShapeCompiled,
// ShapePartialApplication, ShapeIndirection, and ShapeNullSentinel (whose
// Entry raises a fatal error); Evac is meaningful only for ShapeCompiled (every other
// shape's evacuation behavior is fixed and handled by Evac in this
// package, not per-instance).
type InfoTable struct {
	Shape Shape
	Entry CodeLabel
	Evac  EvacFunc
}

// InfoTableID is a small integer handle into the process-wide registry,
// used in place of a raw pointer so closures are representable as plain
// bytes (spec.md 9's "offsets into an arena" redesign extended to info
// tables too). This mirrors how wazero addresses compiled functions by
// integer FunctionIndex into a slice rather than by pointer
// (internal/engine/interpreter: moduleEngine.functions []*function).
type InfoTableID uint32

var registry []*InfoTable

// Register adds it to the registry and returns the handle compiled
// closures should store in their info-table slot. Intended for use at
// program-construction time, not during execution.
func Register(it *InfoTable) InfoTableID {
	registry = append(registry, it)
	return InfoTableID(len(registry) - 1)
}

// Lookup returns the InfoTable a previously Register-ed handle refers to.
func Lookup(id InfoTableID) *InfoTable {
	return registry[id]
}

// Distinguished instances the runtime itself owns (spec.md 3.1).
var (
	StaticInfo             = Register(&InfoTable{Shape: ShapeStatic})
	ForwardedInfo          = Register(&InfoTable{Shape: ShapeForwarded})
	StringInfo             = Register(&InfoTable{Shape: ShapeString})
	StringLiteralInfo      = Register(&InfoTable{Shape: ShapeStringLiteral})
	PartialApplicationInfo = Register(&InfoTable{Shape: ShapePartialApplication, Entry: enterPartialApplication})
	NullSentinelInfo       = Register(&InfoTable{Shape: ShapeNullSentinel, Entry: func(m Machine) CodeLabel {
		m.Fatal("entered the null-sentinel closure: a pointer register or stack slot was never assigned")
		return nil
	}})
	IndirectionInfo = Register(&InfoTable{Shape: ShapeIndirection, Entry: func(m Machine) CodeLabel {
		target := m.Heap().ReadPtr(PayloadAddr(m.Registers().NodeRegister))
		return Enter(m, target)
	}})
)
