package register_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/register"
)

func TestNewInitializesSentinels(t *testing.T) {
	null := heap.Address(128)
	r := register.New(null)

	require.Equal(t, register.IntSentinel, r.IntRegister)
	require.Equal(t, register.IntSentinel, r.TagRegister)
	require.Equal(t, register.IntSentinel, r.ConstructorArgCountRegister)
	require.Equal(t, null, r.StringRegister)
	require.Equal(t, null, r.NodeRegister)
	require.Equal(t, null, r.ConstrUpdateRegister)
}

func TestRootsAliasThePointerRegisters(t *testing.T) {
	r := register.New(heap.Address(0))
	roots := r.Roots()
	require.Len(t, roots, 3)

	*roots[0] = heap.Address(7)
	require.Equal(t, heap.Address(7), r.StringRegister)
}
