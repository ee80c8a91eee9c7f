package stgrts

import (
	"io"
	"os"

	"github.com/dmjio/stgrts/internal/stgtrace"
)

// Default sizing, carried over from original_source/runtime.c's
// BASE_HEAP_SIZE and STACK_SIZE constants (1<<16 and 1<<10 respectively):
// the spec's own illustrative examples use a much smaller heap to make
// collections easy to trigger in a handful of allocations, but a runtime
// meant to actually run programs needs headroom closer to what the
// original draft shipped with.
const (
	defaultHeapSize         = 1 << 16
	defaultStackCapacity    = 1 << 10
	defaultHeapGrowthFactor = 3
)

// RuntimeConfig configures a Runtime before it is built. Instances are
// immutable once created; every With* method returns a new, independently
// usable config, the same fluent-builder shape as
// tetratelabs-wazero/config.go's RuntimeConfig.
type RuntimeConfig struct {
	heapSize         uint64
	stackCapacity    int
	heapGrowthFactor int
	errorWriter      io.Writer
	listener         stgtrace.Listener
}

// NewRuntimeConfig returns a RuntimeConfig with default sizing: a 64KiB
// heap, 1024-element stacks, 3x collection growth, stderr for fatal
// errors, and no trace listener.
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		heapSize:         defaultHeapSize,
		stackCapacity:    defaultStackCapacity,
		heapGrowthFactor: defaultHeapGrowthFactor,
		errorWriter:      os.Stderr,
		listener:         stgtrace.None(),
	}
}

func (c *RuntimeConfig) clone() *RuntimeConfig {
	cp := *c
	return &cp
}

// WithHeapSize sets the heap's initial capacity, in bytes.
func (c *RuntimeConfig) WithHeapSize(bytes uint64) *RuntimeConfig {
	cp := c.clone()
	cp.heapSize = bytes
	return cp
}

// WithStackCapacity sets both stacks' initial element capacity.
func (c *RuntimeConfig) WithStackCapacity(capacity int) *RuntimeConfig {
	cp := c.clone()
	cp.stackCapacity = capacity
	return cp
}

// WithHeapGrowthFactor sets the multiplier collection uses when sizing the
// next generation (spec.md 4.1, 9: kept tunable rather than hard-coded).
func (c *RuntimeConfig) WithHeapGrowthFactor(factor int) *RuntimeConfig {
	cp := c.clone()
	cp.heapGrowthFactor = factor
	return cp
}

// WithErrorWriter sets where a fatal error's message is written before
// Run returns it as an error, generalizing original_source/runtime.c's
// hardcoded write to stderr.
func (c *RuntimeConfig) WithErrorWriter(w io.Writer) *RuntimeConfig {
	cp := c.clone()
	cp.errorWriter = w
	return cp
}

// WithListener installs a trace listener observing label dispatch,
// collections, and thunk updates.
func (c *RuntimeConfig) WithListener(l stgtrace.Listener) *RuntimeConfig {
	cp := c.clone()
	cp.listener = l
	return cp
}
