// Package stgdebug formats the runtime's single fatal-error kind
// (spec.md 7). It is split out from the root package, as wazero splits
// internal/logging out from its engine, purely to avoid import cycles: the
// root Runtime recovers a panic value here, but code deep in internal/heap,
// internal/closure, and internal/update raises the panic in the first
// place and cannot import the root package to format it.
package stgdebug

import "fmt"

// Fatal is the one error kind this runtime ever produces (spec.md 7):
// every invariant violation, from a stack underflow to an allocation
// failure after collection, surfaces as one of these, never as a
// distinguishable error type or code.
type Fatal struct {
	Message string
}

func (f *Fatal) Error() string { return "PANIC: " + f.Message }

// NewFatal formats a Fatal the way original_source/runtime.c's panic()
// wrote to stderr: a flat "PANIC: " prefix, no call-frame unwinding (this
// runtime's only "stack" in the debugging sense is the code-label
// trampoline itself, which has nothing left to unwind by the time a
// recover() runs).
func NewFatal(format string, args ...interface{}) *Fatal {
	return &Fatal{Message: fmt.Sprintf(format, args...)}
}

// Recover turns a recovered panic value into an error, wrapping anything
// that isn't already a *Fatal so that Runtime.Run always returns the same
// error shape regardless of where the panic originated (spec.md 7).
func Recover(r interface{}) error {
	if r == nil {
		return nil
	}
	if f, ok := r.(*Fatal); ok {
		return f
	}
	if err, ok := r.(error); ok {
		return &Fatal{Message: err.Error()}
	}
	return &Fatal{Message: fmt.Sprint(r)}
}
