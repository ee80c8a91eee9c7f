package update_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmjio/stgrts"
	"github.com/dmjio/stgrts/internal/closure"
	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/update"
)

func run(rt *stgrts.Runtime, label closure.CodeLabel) {
	for label != nil {
		label = label(rt)
	}
}

// nullaryConstructorThunk registers a thunk info table whose body builds a
// single fixed nullary constructor and returns it via ReturnConstructor,
// the same shape examples.fiveBody uses.
func nullaryConstructorThunk(ctor closure.InfoTableID) closure.InfoTableID {
	return closure.Register(&closure.InfoTable{
		Shape: closure.ShapeCompiled,
		Entry: func(m closure.Machine) closure.CodeLabel {
			addr := closure.AllocConstructor(m.Heap(), ctor, nil)
			m.Registers().NodeRegister = addr
			m.Registers().TagRegister = int64(ctor)
			m.Registers().ConstructorArgCountRegister = 0
			return update.ReturnConstructor(m)
		},
	})
}

func TestEnterThunkUpdatesItToAnIndirection(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	ctor := closure.RegisterConstructor(0)
	thunkInfo := nullaryConstructorThunk(ctor)
	thunkAddr := closure.Alloc(rt.Heap(), thunkInfo, nil)

	halted := false
	halt := closure.CodeLabel(func(m closure.Machine) closure.CodeLabel {
		halted = true
		return nil
	})

	run(rt, update.EnterThunk(rt, thunkAddr, halt))

	require.True(t, halted)
	require.Equal(t, closure.IndirectionInfo, closure.InfoTableAt(rt.Heap(), thunkAddr))

	target := rt.Heap().ReadPtr(closure.PayloadAddr(thunkAddr))
	require.Equal(t, ctor, closure.InfoTableAt(rt.Heap(), target))
}

func TestEnteringTheUpdatedThunkAgainSkipsRecomputation(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	evals := 0
	ctor := closure.RegisterConstructor(0)
	thunkInfo := closure.Register(&closure.InfoTable{
		Shape: closure.ShapeCompiled,
		Entry: func(m closure.Machine) closure.CodeLabel {
			evals++
			addr := closure.AllocConstructor(m.Heap(), ctor, nil)
			m.Registers().NodeRegister = addr
			return update.ReturnConstructor(m)
		},
	})
	thunkAddr := closure.Alloc(rt.Heap(), thunkInfo, nil)

	halt := closure.CodeLabel(func(m closure.Machine) closure.CodeLabel { return nil })
	run(rt, update.EnterThunk(rt, thunkAddr, halt))
	require.Equal(t, 1, evals)

	// Forcing it again follows the indirection straight to the memoized
	// constructor without re-running the thunk's body (spec.md 4.7's
	// whole point: update-on-return is thunk evaluation sharing).
	run(rt, closure.Enter(rt, thunkAddr))
	require.Equal(t, 1, evals)
}

func TestRegisterFunctionRunsBodyWhenSaturated(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	var gotArgs []heap.Address
	id := update.RegisterFunction(2, func(m closure.Machine) closure.CodeLabel {
		sa := m.StackA()
		gotArgs = []heap.Address{sa.At(sa.Base()), sa.At(sa.Base() + 1)}
		return nil
	})

	rt.StackA().Push(heap.Address(1))
	rt.StackA().Push(heap.Address(2))
	run(rt, closure.EnterByID(id))

	require.Equal(t, []heap.Address{1, 2}, gotArgs)
}

func TestRegisterFunctionSuspendsWhenUnderApplied(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	ran := false
	id := update.RegisterFunction(2, func(m closure.Machine) closure.CodeLabel {
		ran = true
		return nil
	})

	thunkInfo := closure.Register(&closure.InfoTable{
		Shape: closure.ShapeCompiled,
		Entry: func(m closure.Machine) closure.CodeLabel {
			m.StackA().Push(heap.Address(1))
			return closure.EnterByID(id)
		},
	})
	thunkAddr := closure.Alloc(rt.Heap(), thunkInfo, nil)

	halted := false
	halt := closure.CodeLabel(func(m closure.Machine) closure.CodeLabel {
		halted = true
		return nil
	})
	run(rt, update.EnterThunk(rt, thunkAddr, halt))

	require.False(t, ran, "body must not run until the call is saturated")
	require.True(t, halted)
	require.Equal(t, closure.IndirectionInfo, closure.InfoTableAt(rt.Heap(), thunkAddr))

	pap := rt.Heap().ReadPtr(closure.PayloadAddr(thunkAddr))
	require.Equal(t, closure.PartialApplicationInfo, closure.InfoTableAt(rt.Heap(), pap))

	// Applying the remaining argument completes the call.
	rt.StackA().Push(heap.Address(2))
	run(rt, closure.Enter(rt, pap))
	require.True(t, ran)
}

func TestOnUpdateReportsEveryThunkUpdate(t *testing.T) {
	var updates [][2]heap.Address
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig().WithListener(recordingListener{
		onUpdate: func(thunk, value heap.Address) {
			updates = append(updates, [2]heap.Address{thunk, value})
		},
	}))
	defer rt.Close()

	ctor := closure.RegisterConstructor(0)
	thunkInfo := nullaryConstructorThunk(ctor)
	thunkAddr := closure.Alloc(rt.Heap(), thunkInfo, nil)

	halt := closure.CodeLabel(func(m closure.Machine) closure.CodeLabel { return nil })
	run(rt, update.EnterThunk(rt, thunkAddr, halt))

	require.Len(t, updates, 1)
	require.Equal(t, thunkAddr, updates[0][0])
}

type recordingListener struct {
	onUpdate func(thunk, value heap.Address)
}

func (recordingListener) BeforeLabel(name string)                         {}
func (recordingListener) OnCollection(liveBytes, newCapacity heap.Address) {}
func (l recordingListener) OnUpdate(thunk, value heap.Address)            { l.onUpdate(thunk, value) }
