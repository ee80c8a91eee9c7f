package stgrts

import "github.com/dmjio/stgrts/internal/stgdebug"

// FatalError is returned by Run whenever compiled code or the runtime
// itself hits the one invariant violation this runtime recognizes
// (spec.md 7): there is no second error kind to distinguish, by design.
// Aliased to the pointer type, not the value type: Fatal.Error() has a
// pointer receiver, so *Fatal is what actually implements error (see
// stgdebug.Recover and Runtime.Fatal, which both only ever produce
// *Fatal) — aliasing the value type would let a caller's
// errors.As(err, &fe) panic instead of returning false.
type FatalError = *stgdebug.Fatal
