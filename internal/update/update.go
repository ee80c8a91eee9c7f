// Package update implements the update-frame protocol: thunk evaluation
// sharing (update-on-return) and under-application suspension/resumption
// via partial-application closures (spec.md 3.7, 4.7).
package update

import (
	"github.com/dmjio/stgrts/internal/closure"
	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/stack"
)

// PushFrame establishes an update frame ahead of entering a thunk: it
// saves both stacks' current bases, records the closure to update and the
// label to resume once its value is ready, and installs new bases for the
// thunk's own evaluation (spec.md 4.7, "save_A / save_B prologue"). The
// frame's topmost slot always names UpdateConstructor: spec.md 3.7
// describes one runtime-provided handler, not one synthesized per frame.
func PushFrame(m closure.Machine, closureToUpdate heap.Address, returnContinuation closure.CodeLabel) {
	sa := m.StackA()
	sb := m.StackB()

	savedABase := sa.SetBase(sa.Top())
	savedBBase := sb.Base()
	stack.PushUpdateFrame(sb, returnContinuation, savedBBase, savedABase, closureToUpdate, closure.CodeLabel(UpdateConstructor))
	sb.SetBase(sb.Top())
}

// EnterThunk forces thunkAddr under a freshly pushed update frame whose
// return continuation is resumeAt. This is the "entering a thunk"
// prologue of spec.md 4.7 steps 1-3, composed with the generic Enter
// operation.
func EnterThunk(m closure.Machine, thunkAddr heap.Address, resumeAt closure.CodeLabel) closure.CodeLabel {
	PushFrame(m, thunkAddr, resumeAt)
	return closure.Enter(m, thunkAddr)
}

func frameBase(sb *stack.StackB) int {
	if sb.Base() < stack.UpdateFrameSize {
		panic("update: no update frame at current base")
	}
	return sb.Base() - stack.UpdateFrameSize
}

// ReturnConstructor is the generic constructor-return dispatch (spec.md
// 4.7: "pop the topmost B slot and jump to it"). Compiled code that has
// just built a constructor closure in WHNF loads NodeRegister with its
// address (and, for whatever eventually scrutinizes it, TagRegister and
// ConstructorArgCountRegister) and calls this instead of returning
// directly, so whichever continuation is waiting - an ordinary case
// alternative, or UpdateConstructor below - decides what happens next.
func ReturnConstructor(m closure.Machine) closure.CodeLabel {
	// The topmost slot may be an update frame's label, which PushFrame left
	// below Stack B's base, so this pops without Pop's base check.
	sb := m.StackB()
	sb.SetTop(sb.Top() - 1)
	return sb.At(sb.Top()).Cont.(closure.CodeLabel)
}

// UpdateConstructor is the runtime-provided "update on constructor
// return" handler every update frame's topmost slot names (spec.md 3.7).
// By the time dispatch reaches here NodeRegister already holds a freshly
// built constructor closure: the value the thunk under this frame
// evaluated to. UpdateConstructor installs it as an indirection over the
// thunk being forced, restores both stacks' saved bases, and hands control
// to the frame's saved return continuation (spec.md 4.7, "Constructor
// return hits an update frame").
func UpdateConstructor(m closure.Machine) closure.CodeLabel {
	h := m.Heap()
	sb := m.StackB()
	base := frameBase(sb)

	result := m.Registers().NodeRegister
	target := stack.ClosureToUpdate(sb, base)
	m.Registers().ConstrUpdateRegister = target
	closure.OverwriteWithIndirection(h, target, result)
	m.OnUpdate(target, result)

	savedABase := stack.SavedABase(sb, base)
	savedBBase := stack.SavedBBase(sb, base)
	ret := stack.ReturnContinuation(sb, base)

	m.StackA().SetTop(savedABase)
	m.StackA().SetBase(savedABase)
	m.StackB().SetTop(base)
	m.StackB().SetBase(savedBBase)

	return ret.(closure.CodeLabel)
}

// Suspend builds a partial-application closure for an under-saturated
// call: underlying is the function being applied, savedArgs are the
// closure-pointer arguments already supplied (spec.md 3.7, 4.7, "under-
// application"). thunkToUpdate is the original thunk this call was
// entered through; it is always overwritten in place with an indirection
// to the new partial-application closure, per spec.md 9's resolution of
// the open question ("the correct behaviour is: after building the
// partial-app closure, overwrite the thunk with an indirection to it") —
// the earlier draft's TODO is always honored here, never left dangling.
func Suspend(m closure.Machine, underlying closure.InfoTableID, savedArgs []heap.Address, thunkToUpdate heap.Address) heap.Address {
	pap := closure.NewPartialApplication(m.Heap(), underlying, savedArgs)
	closure.OverwriteWithIndirection(m.Heap(), thunkToUpdate, pap)
	m.OnUpdate(thunkToUpdate, pap)
	return pap
}

// RegisterFunction registers a function closure of the given declared
// arity: entering it runs body once Stack A holds at least arity
// arguments above the current base; otherwise it suspends into a
// partial-application closure per spec.md 4.7 ("Insufficient arguments").
// Under-application assumes the current Stack B frame is the update frame
// established when forcing the thunk this function is being applied
// through (i.e. the function was entered via EnterThunk, directly or
// through a chain of partial applications) — exactly the situation
// spec.md 4.7 step 2 describes when it computes "the slices of args ...
// pushed since the frame was established".
func RegisterFunction(arity int, body closure.CodeLabel) closure.InfoTableID {
	var id closure.InfoTableID
	id = closure.Register(&closure.InfoTable{
		Shape: closure.ShapeCompiled,
		Entry: func(m closure.Machine) closure.CodeLabel {
			sa := m.StackA()
			if sa.Top()-sa.Base() >= arity {
				return body(m)
			}
			return suspendUnderApplication(m, id)
		},
	})
	return id
}

// suspendUnderApplication implements spec.md 4.7 steps 1-8: it captures
// every argument pushed since the enclosing update frame was established
// as the partial application's saved slice, suspends (installing the
// indirection at the frame's closure-to-update slot via Suspend),
// unwinds both stacks to the frame's saved bases exactly as
// UpdateConstructor does on a successful evaluation, and resumes the
// frame's saved return continuation so the caller who forced the
// under-applied thunk sees a suspended value instead of a finished one.
func suspendUnderApplication(m closure.Machine, id closure.InfoTableID) closure.CodeLabel {
	sa := m.StackA()
	sb := m.StackB()
	base := frameBase(sb)

	savedArgs := make([]heap.Address, 0, sa.Top()-sa.Base())
	for i := sa.Base(); i < sa.Top(); i++ {
		savedArgs = append(savedArgs, sa.At(i))
	}

	target := stack.ClosureToUpdate(sb, base)
	Suspend(m, id, savedArgs, target)

	savedABase := stack.SavedABase(sb, base)
	savedBBase := stack.SavedBBase(sb, base)
	ret := stack.ReturnContinuation(sb, base)

	sa.SetTop(savedABase)
	sa.SetBase(savedABase)
	sb.SetTop(base)
	sb.SetBase(savedBBase)

	return ret.(closure.CodeLabel)
}

// Resume re-enters a partial application now that the caller has pushed
// further arguments onto Stack A above addr's own saved slice: this is
// the "partial-application entry" of spec.md 4.7, and it is exactly
// closure.Enter, since ShapePartialApplication's own Entry already
// restores the saved slice and defers the saturation check to the
// underlying function (spec.md 9). Kept here, rather than inlined at call
// sites, purely so callers in this package's domain never need to import
// internal/closure directly just to force a value by address.
func Resume(m closure.Machine, addr heap.Address) closure.CodeLabel {
	return closure.Enter(m, addr)
}
