package strref_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmjio/stgrts/internal/closure"
	"github.com/dmjio/stgrts/internal/heap"
	"github.com/dmjio/stgrts/internal/stack"
	"github.com/dmjio/stgrts/internal/strref"
)

func TestNewAndTextRoundTrip(t *testing.T) {
	h := heap.New(256, 3)
	addr := strref.New(h, "hello")
	require.Equal(t, "hello", strref.Text(h, addr))
}

func TestConcatJoinsExactlyOnce(t *testing.T) {
	h := heap.New(256, 3)
	sa := stack.NewA(8)

	a := strref.New(h, "foo")
	b := strref.New(h, "bar")
	result := strref.Concat(h, sa, a, b)

	require.Equal(t, "foobar", strref.Text(h, result))
}

// TestConcatSurvivesCollectionTriggeredMidCall sizes the heap to hold both
// operands but not Concat's result, so Concat's Reserve can't be satisfied
// without a collection, checking the protect-before-safepoint idiom
// actually protects both operands (spec.md 4.6): a and b, pushed before
// the allocation, must still read back correctly after the collector has
// possibly moved them.
func TestConcatSurvivesCollectionTriggeredMidCall(t *testing.T) {
	h := heap.New(heap.WordSize*16, 3)
	sa := stack.NewA(8)

	h.SetCollector(func(extra heap.Address) {
		roots := make([]heap.Root, sa.Len())
		for i := range roots {
			roots[i] = sa.ElemPtr(i)
		}
		heap.Collect(h, extra, roots, closure.Evac)
	})

	a := strref.New(h, strings.Repeat("a", 40))
	b := strref.New(h, strings.Repeat("b", 40))
	result := strref.Concat(h, sa, a, b)

	require.Equal(t, strings.Repeat("a", 40)+strings.Repeat("b", 40), strref.Text(h, result))
}
