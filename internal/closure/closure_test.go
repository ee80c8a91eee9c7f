package closure_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmjio/stgrts"
	"github.com/dmjio/stgrts/internal/closure"
	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/strref"
)

func runUntilHalt(rt *stgrts.Runtime, label closure.CodeLabel) {
	for label != nil {
		label = label(rt)
	}
}

func TestEnterPlacesAddressInNodeRegisterAndReturnsEntry(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	ran := false
	id := closure.Register(&closure.InfoTable{
		Shape: closure.ShapeCompiled,
		Entry: func(m closure.Machine) closure.CodeLabel {
			ran = true
			return nil
		},
	})
	addr := closure.Alloc(rt.Heap(), id, nil)

	label := closure.Enter(rt, addr)
	require.Equal(t, addr, rt.Registers().NodeRegister)
	runUntilHalt(rt, label)
	require.True(t, ran)
}

func TestEnterByIDDispatchesWithoutAnAddress(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	ran := false
	id := closure.Register(&closure.InfoTable{
		Shape: closure.ShapeCompiled,
		Entry: func(m closure.Machine) closure.CodeLabel {
			ran = true
			return nil
		},
	})

	runUntilHalt(rt, closure.EnterByID(id))
	require.True(t, ran)
}

func TestPartialApplicationEntryRestoresSavedArgsBeneathNewOnes(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	var seen []heap.Address
	underlying := closure.Register(&closure.InfoTable{
		Shape: closure.ShapeCompiled,
		Entry: func(m closure.Machine) closure.CodeLabel {
			sa := m.StackA()
			for i := sa.Base(); i < sa.Top(); i++ {
				seen = append(seen, sa.At(i))
			}
			return nil
		},
	})

	saved := []heap.Address{10, 20}
	pap := closure.NewPartialApplication(rt.Heap(), underlying, saved)

	rt.StackA().Push(30)
	rt.StackA().Push(40)

	runUntilHalt(rt, closure.Enter(rt, pap))

	require.Equal(t, []heap.Address{10, 20, 30, 40}, seen)
}

func TestAllocConstructorRoundTripsFields(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	ctor := closure.RegisterConstructor(2)
	addr := closure.AllocConstructor(rt.Heap(), ctor, []heap.Address{111, 222})

	require.Equal(t, ctor, closure.InfoTableAt(rt.Heap(), addr))
	require.Equal(t, []heap.Address{111, 222}, closure.ConstructorFields(rt.Heap(), addr, 2))
}

func TestOverwriteWithIndirectionInstallsIndirectionShape(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	ctor := closure.RegisterConstructor(0)
	thunk := closure.AllocConstructor(rt.Heap(), ctor, nil)
	target := closure.AllocConstructor(rt.Heap(), ctor, nil)

	closure.OverwriteWithIndirection(rt.Heap(), thunk, target)

	require.Equal(t, closure.IndirectionInfo, closure.InfoTableAt(rt.Heap(), thunk))
	require.Equal(t, target, rt.Heap().ReadPtr(closure.PayloadAddr(thunk)))
}

// TestPartialApplicationSurvivesCollectionWithArgumentsRelocated forces a
// real collection while a ShapePartialApplication closure is rooted and
// holding a heap-allocated string closure as a saved argument, confirming
// spec.md 9's resolution ("a correct evac must copy the payload and
// recursively evacuate its pointer slots") actually runs: the saved
// argument must move to a new address during collection (it is not
// merely copied byte-for-byte) and must still read back correctly
// afterward.
func TestPartialApplicationSurvivesCollectionWithArgumentsRelocated(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig().WithHeapSize(heap.WordSize * 8))
	defer rt.Close()

	underlying := closure.Register(&closure.InfoTable{Shape: closure.ShapeCompiled})

	savedArg := strref.New(rt.Heap(), "held-argument")
	pap := closure.NewPartialApplication(rt.Heap(), underlying, []heap.Address{savedArg})
	rt.Registers().NodeRegister = pap

	_, savedBefore := closure.PartialApplicationArgs(rt.Heap(), pap)
	require.Equal(t, savedArg, savedBefore[0])

	// Allocate well past the small heap's capacity so Reserve is forced
	// to invoke a real collection with NodeRegister (and nothing else)
	// rooting the partial application.
	for i := 0; i < 32; i++ {
		strref.New(rt.Heap(), fmt.Sprintf("padding-%03d", i))
	}

	movedPAP := rt.Registers().NodeRegister
	require.Equal(t, closure.PartialApplicationInfo, closure.InfoTableAt(rt.Heap(), movedPAP))

	gotUnderlying, savedAfter := closure.PartialApplicationArgs(rt.Heap(), movedPAP)
	require.Equal(t, underlying, gotUnderlying)
	require.Len(t, savedAfter, 1)
	require.NotEqual(t, savedArg, savedAfter[0], "the saved argument must have been relocated by the collector, not left pointing at its pre-GC address")
	require.Equal(t, "held-argument", strref.Text(rt.Heap(), savedAfter[0]))
}

func TestNullSentinelEntryIsFatal(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	_, err := rt.Run(closure.CodeLabel(func(m closure.Machine) closure.CodeLabel {
		return closure.Enter(m, rt.NullSentinel())
	}))
	require.Error(t, err)
}
