package clients

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker returns a gobreaker configured to trip after 3 consecutive
// failures and half-open again after resetAfter.
func NewCircuitBreaker(name string, resetAfter time.Duration) *gobreaker.CircuitBreaker {
	if resetAfter <= 0 {
		resetAfter = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     resetAfter,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}
