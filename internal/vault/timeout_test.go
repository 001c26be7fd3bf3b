package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequestTimeout(t *testing.T) {
	t.Parallel()

	// a service whose loop never started answers no request
	svc := &Service{
		requests: make(chan envelope),
		timeout:  20 * time.Millisecond,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	_, err := svc.Ask(GetAccounts{})
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestTimeoutCoversWholeExchange(t *testing.T) {
	t.Parallel()

	timeout := 200 * time.Millisecond
	svc := &Service{
		requests: make(chan envelope),
		timeout:  timeout,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	// an actor that accepts the request late and never replies: the reply
	// wait must not get a fresh budget after the slow send
	go func() {
		time.Sleep(timeout / 2)
		<-svc.requests
	}()

	start := time.Now()
	_, err := svc.Ask(GetAccounts{})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrRequestTimeout)
	require.Less(t, elapsed, timeout+timeout/2)
}
