// Package stgrts runs compiled STG-style programs: a heap with a copying
// collector, two execution stacks, a small register file, and a
// trampoline over code labels (spec.md 1-6).
package stgrts

import (
	"fmt"

	"github.com/dmjio/stgrts/internal/closure"
	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/register"
	"github.com/dmjio/stgrts/internal/stack"
	"github.com/dmjio/stgrts/internal/stgdebug"
	"github.com/dmjio/stgrts/internal/stgtrace"
)

// CodeLabel is the unit of execution the trampoline runs: compiled code
// and runtime machinery are both expressed as one of these (spec.md 4).
type CodeLabel = closure.CodeLabel

// Runtime owns one program's entire mutable state: the heap, both stacks,
// and the register file, replacing the original runtime's process-wide
// globals with a single value passed by reference everywhere it's needed
// (spec.md 9, redesign flag "process-wide mutable globals -> a Runtime
// context value").
type Runtime struct {
	cfg *RuntimeConfig

	h         *heap.Heap
	stackA    *stack.StackA
	stackB    *stack.StackB
	registers *register.Registers

	nullSentinel heap.Address
	listener     stgtrace.Listener
}

var _ closure.Machine = (*Runtime)(nil)

// NewRuntime builds a Runtime from cfg, allocating the heap and both
// stacks and initializing every pointer register to the null-sentinel
// closure's address, matching original_source/runtime.c's setup()
// (allocate heap, Stack A, Stack B, in that order) generalized to
// configurable sizes and a real GC instead of a panicking stub.
func NewRuntime(cfg *RuntimeConfig) *Runtime {
	if cfg == nil {
		cfg = NewRuntimeConfig()
	}

	h := heap.New(cfg.heapSize, cfg.heapGrowthFactor)
	nullSentinel := closure.NewNullSentinel(h)

	rt := &Runtime{
		cfg:          cfg,
		h:            h,
		stackA:       stack.NewA(cfg.stackCapacity),
		stackB:       stack.NewB(cfg.stackCapacity),
		registers:    register.New(nullSentinel),
		nullSentinel: nullSentinel,
		listener:     cfg.listener,
	}
	h.SetCollector(rt.collect)
	return rt
}

// Heap returns the runtime's heap.
func (rt *Runtime) Heap() *heap.Heap { return rt.h }

// StackA returns the runtime's argument stack.
func (rt *Runtime) StackA() *stack.StackA { return rt.stackA }

// StackB returns the runtime's secondary stack.
func (rt *Runtime) StackB() *stack.StackB { return rt.stackB }

// Registers returns the runtime's register file.
func (rt *Runtime) Registers() *register.Registers { return rt.registers }

// NullSentinel returns the address of the runtime-owned null-sentinel
// closure every pointer register is initialized to (spec.md 3.1, 3.6).
func (rt *Runtime) NullSentinel() heap.Address { return rt.nullSentinel }

// Fatal raises the runtime's single fatal-error kind and never returns
// (spec.md 7). Any code with access to a closure.Machine, which is to say
// any code label anywhere in the trampoline, can call this.
func (rt *Runtime) Fatal(format string, args ...interface{}) {
	panic(stgdebug.NewFatal(format, args...))
}

// OnUpdate forwards a thunk-update event to the configured trace listener
// (spec.md 4.7); internal/update calls this through the closure.Machine
// interface so it never needs to import the root package.
func (rt *Runtime) OnUpdate(thunk, value heap.Address) {
	rt.listener.OnUpdate(thunk, value)
}

// Run drives the trampoline starting at entry until a label returns nil,
// then returns exit code 0. A panic anywhere
// in the call graph - compiled code or runtime machinery alike - is
// recovered here and turned into a FatalError (spec.md 6, "the ABI
// boundary"; 7, "a single fatal-error kind"), the same defer/recover-to-
// error boundary tetratelabs-wazero's moduleEngine.Call uses around its
// own interpreter loop.
func (rt *Runtime) Run(entry CodeLabel) (exitCode int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = stgdebug.Recover(r)
			if err != nil && rt.cfg.errorWriter != nil {
				fmt.Fprintln(rt.cfg.errorWriter, err.Error())
			}
		}
	}()

	label := entry
	for label != nil {
		rt.listener.BeforeLabel(labelName(label))
		label = label(rt)
	}
	return 0, nil
}

// labelName renders a best-effort name for a code label for tracing
// purposes; Go gives anonymous function values no name worth reporting,
// so this is deliberately coarse.
func labelName(l CodeLabel) string {
	if l == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%p", l)
}

// Close releases the runtime's resources. Go's own garbage collector
// reclaims the heap and stacks once nothing references rt; Close exists
// so callers have an explicit lifecycle boundary to hold onto, mirroring
// original_source/runtime.c's cleanup() and tetratelabs-wazero's
// CompiledCode.Close.
func (rt *Runtime) Close() error {
	rt.h = nil
	rt.stackA = nil
	rt.stackB = nil
	rt.registers = nil
	return nil
}

// collect runs one collection, gathering every root the spec calls for:
// every pointer register, the entire live range of Stack A, and the
// chain of update frames on Stack B (spec.md 4.1).
func (rt *Runtime) collect(extra heap.Address) {
	var roots []heap.Root

	roots = append(roots, rt.registers.Roots()...)
	for i := 0; i < rt.stackA.Len(); i++ {
		roots = append(roots, rt.stackA.ElemPtr(i))
	}
	roots = append(roots, stack.UpdateFrameRoots(rt.stackB)...)

	heap.Collect(rt.h, extra, roots, closure.Evac)

	rt.listener.OnCollection(rt.h.Cursor(), rt.h.Capacity())
}
