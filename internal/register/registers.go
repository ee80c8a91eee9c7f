// Package register holds the VM's fixed register file: the small set of
// named slots that code labels read and write instead of passing arguments
// on either stack (spec.md 3.6).
package register

import "github.com/dmjio/stgrts/internal/heap"

// IntSentinel is the value every integer register starts at. It is
// deliberately not zero, so that a register read before its first write
// shows up as an obviously wrong number instead of a silently plausible
// one (original_source/runtime.c: g_IntRegister = 0xBAD).
const IntSentinel int64 = 0xBAD

// Registers is the VM's register file. Pointer-shaped registers are never
// initialized to a null address; NullSentinel (supplied by the closure
// package's distinguished instances at setup) is used instead, so the
// collector can dereference every register unconditionally without a nil
// check (spec.md 3.6, 9).
type Registers struct {
	// IntRegister carries a boxed integer between code labels, e.g. the
	// scrutinee of an integer case or an arithmetic operand.
	IntRegister int64

	// StringRegister carries a string closure address, e.g. the result of
	// a string primop or the operand of a string case.
	StringRegister heap.Address

	// TagRegister carries the constructor tag selecting a case alternative.
	TagRegister int64

	// ConstructorArgCountRegister carries the number of fields a freshly
	// entered constructor closure recorded, for use while copying them
	// into case-alternative bindings.
	ConstructorArgCountRegister int64

	// NodeRegister carries the address of the closure currently being
	// entered: the "self" pointer compiled code uses to reach its own
	// free variables.
	NodeRegister heap.Address

	// ConstrUpdateRegister carries the address of the closure an update
	// frame is about to overwrite with a constructor, during the update
	// protocol (spec.md 3.7, 4.7).
	ConstrUpdateRegister heap.Address
}

// New returns a register file with every register at its sentinel value.
// nullSentinel is the address of the runtime-owned null-sentinel closure
// (spec.md 3.1); it must already exist in the heap's static arena before
// New is called.
func New(nullSentinel heap.Address) *Registers {
	return &Registers{
		IntRegister:                 IntSentinel,
		StringRegister:              nullSentinel,
		TagRegister:                 IntSentinel,
		ConstructorArgCountRegister: IntSentinel,
		NodeRegister:                nullSentinel,
		ConstrUpdateRegister:        nullSentinel,
	}
}

// Roots returns pointers to every pointer-shaped register, for the
// collector to trace and overwrite in place. Matches spec.md 4.1's
// root set: "every pointer register (if non-null-sentinel)" — no
// null-sentinel filter is applied, here or by the caller, since a
// null-sentinel root evacuates to itself anyway and the filter would be
// purely an optimization, not a correctness requirement here.
func (r *Registers) Roots() []*heap.Address {
	return []*heap.Address{&r.StringRegister, &r.NodeRegister, &r.ConstrUpdateRegister}
}
