package circuitbreaker_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"github.com/tanglewallet/walletd/pkg/circuitbreaker"
)

func TestBreakerOpensAfterFailingBatch(t *testing.T) {
	t.Parallel()

	cb := circuitbreaker.NewCircuitBreaker()
	failing := func() (interface{}, error) {
		return nil, errors.New("node unreachable")
	}

	for i := 0; i <= circuitbreaker.MinRequestsBeforeTripping; i++ {
		_, err := cb.Execute(failing)
		require.Error(t, err)
	}

	_, err := cb.Execute(failing)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreakerStaysClosedUnderThreshold(t *testing.T) {
	t.Parallel()

	cb := circuitbreaker.NewCircuitBreaker()

	// a few failures within a healthy batch never open the breaker
	for i := 0; i < circuitbreaker.MinRequestsBeforeTripping; i++ {
		cb.Execute(func() (interface{}, error) { return nil, nil })
	}
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, errors.New("one off failure")
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, gobreaker.ErrOpenState)

	resp, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
}
