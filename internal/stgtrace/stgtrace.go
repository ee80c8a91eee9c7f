// Package stgtrace includes the utilities used to observe a running
// Runtime: which label is about to run, when a collection happens, and
// when a thunk is updated. It is its own package, independent of the root
// package, to avoid a dependency cycle: it imports internal/heap for the
// Address type, and the root package both configures it and calls it
// after every collection, so neither side can own it (mirrors tetratelabs-wazero's
// internal/logging, split out for the identical reason).
package stgtrace

import "github.com/dmjio/stgrts/internal/heap"

// Listener receives runtime events. Every method has a no-op default via
// NopListener, so callers only implement the hooks they care about by
// embedding NopListener and overriding the rest.
type Listener interface {
	// BeforeLabel is called immediately before each code label runs.
	BeforeLabel(name string)

	// OnCollection is called after a collection completes, reporting the
	// bytes live immediately afterward and the new generation's capacity.
	OnCollection(liveBytes, newCapacity heap.Address)

	// OnUpdate is called when a thunk is updated to an indirection,
	// reporting the thunk's address and the value it now points to.
	OnUpdate(thunk, value heap.Address)
}

// NopListener implements Listener with every method a no-op. Embed it to
// get a partial listener.
type NopListener struct{}

func (NopListener) BeforeLabel(name string)                             {}
func (NopListener) OnCollection(liveBytes, newCapacity heap.Address)     {}
func (NopListener) OnUpdate(thunk, value heap.Address)                   {}

// none is the Listener installed when a Runtime isn't configured with one.
var none Listener = NopListener{}

// None returns the shared no-op Listener.
func None() Listener { return none }
