package stgtrace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/stgtrace"
)

func TestNopListenerSatisfiesTheInterface(t *testing.T) {
	var l stgtrace.Listener = stgtrace.NopListener{}
	l.BeforeLabel("entry")
	l.OnCollection(heap.Address(0), heap.Address(0))
	l.OnUpdate(heap.Address(0), heap.Address(0))
}

func TestNoneReturnsTheSharedNopListener(t *testing.T) {
	require.Equal(t, stgtrace.None(), stgtrace.None())
}

type countingListener struct {
	stgtrace.NopListener
	labels int
}

func (c *countingListener) BeforeLabel(name string) { c.labels++ }

func TestEmbeddingNopListenerOnlyNeedsOneMethodOverridden(t *testing.T) {
	c := &countingListener{}
	var l stgtrace.Listener = c
	l.BeforeLabel("a")
	l.BeforeLabel("b")
	l.OnCollection(0, 0)

	require.Equal(t, 2, c.labels)
}
