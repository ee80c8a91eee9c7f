// Package closure defines the closure/info-table object model: the tagged
// InfoTable variant compiled code and the runtime share, the registry that
// maps an on-heap InfoTableID back to one, and the Machine interface that
// CodeLabel trampolines run against (spec.md 3.1, 3.2, 9).
package closure

import (
	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/register"
	"github.com/dmjio/stgrts/internal/stack"
)

// CodeLabel is one step of the trampoline: an argument-less unit of
// compiled or runtime code that does its work against m and returns the
// next label to run, or nil to stop (spec.md 4: "a code label never
// returns a value directly; it returns the next label").
type CodeLabel func(m Machine) CodeLabel

// Machine is everything a CodeLabel or an InfoTable's Entry/Evac needs
// from the runtime: the heap, both stacks, and the register file. The
// concrete implementation is the root package's Runtime; it is expressed
// as an interface here, rather than imported directly, so this package
// and internal/stack (which Machine's accessors return) don't form an
// import cycle.
type Machine interface {
	Heap() *heap.Heap
	StackA() *stack.StackA
	StackB() *stack.StackB
	Registers() *register.Registers

	// Fatal raises the runtime's single fatal-error kind (spec.md 7) and
	// never returns.
	Fatal(format string, args ...interface{})

	// OnUpdate reports that thunk has just been overwritten with an
	// indirection to value, for whatever trace listener the owning Runtime
	// was configured with (spec.md 4.7). Implementations with no listener
	// configured still call through; the no-op case lives in
	// internal/stgtrace, not here.
	OnUpdate(thunk, value heap.Address)
}
