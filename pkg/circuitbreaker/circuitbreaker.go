package circuitbreaker

import "github.com/sony/gobreaker"

var (
	// MinRequestsBeforeTripping is the number of observed requests under which
	// the breaker never opens, so that a couple of failures during a short
	// scan don't cut the node off.
	MinRequestsBeforeTripping = 10
	// MaxFailingRatio is the failure ratio beyond which the breaker opens.
	MaxFailingRatio = 0.6
)

// NewCircuitBreaker returns the breaker guarding the calls against the ledger
// node API. Gap-limit scans fire batched requests in quick succession, so the
// breaker only opens once enough of a batch has failed, instead of on the
// first network hiccup.
func NewCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "ledger-node",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MinRequestsBeforeTripping &&
				ratio >= MaxFailingRatio
		},
	})
}
