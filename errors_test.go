package stgrts_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmjio/stgrts"
	"github.com/dmjio/stgrts/internal/closure"
)

func TestFatalErrorMatchesViaErrorsAs(t *testing.T) {
	rt := stgrts.NewRuntime(stgrts.NewRuntimeConfig())
	defer rt.Close()

	_, err := rt.Run(closure.CodeLabel(func(m closure.Machine) closure.CodeLabel {
		m.Fatal("invariant violated")
		return nil
	}))
	require.Error(t, err)

	var fe stgrts.FatalError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "PANIC: invariant violated", fe.Error())
}
