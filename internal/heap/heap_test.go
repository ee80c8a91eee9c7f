package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmjio/stgrts/internal/heap"
)

func TestWriteReadRoundTrip(t *testing.T) {
	h := heap.New(256, 3)
	h.Reserve(heap.WordSize)
	addr := h.WritePtr(heap.Address(42))
	require.Equal(t, heap.Address(42), h.ReadPtr(addr))
}

func TestReserveWithoutCollectorPanics(t *testing.T) {
	h := heap.New(8, 3)
	require.Panics(t, func() { h.Reserve(64) })
}

func TestReserveInvokesCollectorWhenFull(t *testing.T) {
	h := heap.New(heap.WordSize, 3)
	h.Reserve(heap.WordSize)
	h.WritePtr(heap.Address(1))

	called := false
	h.SetCollector(func(extra heap.Address) {
		called = true
		heap.Collect(h, extra, nil, func(src, dst *heap.Heap, old heap.Address) heap.Address {
			return old
		})
	})

	h.Reserve(heap.WordSize)
	require.True(t, called)
}

func TestStaticArenaNeverMoves(t *testing.T) {
	h := heap.New(64, 3)
	addr := h.WriteStatic([]byte("hello\x00"))
	require.True(t, addr.IsStatic())
	require.Equal(t, "hello", string(h.ReadCString(addr)))
}

func TestOverwriteHeaderInstallsForwarding(t *testing.T) {
	h := heap.New(64, 3)
	h.Reserve(heap.MinClosureSize)
	addr := h.WriteInfoTableID(7)
	h.WritePtr(0)

	h.OverwriteHeader(addr, 99, heap.Address(123))
	require.EqualValues(t, 99, h.ReadInfoTableID(addr))
	require.Equal(t, heap.Address(123), h.ReadPtr(addr+heap.InfoTableIDSize))
}
