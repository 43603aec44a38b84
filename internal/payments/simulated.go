package payments

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

const declinedReason = "Payment failed. Please try again."

// SimulatedGateway stands in for a real provider: it waits Delay, then succeeds
// with probability SuccessRate.
type SimulatedGateway struct {
	delay       time.Duration
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedGateway(delay time.Duration, successRate float64, rng *rand.Rand) *SimulatedGateway {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimulatedGateway{delay: delay, successRate: successRate, rng: rng}
}

func (g *SimulatedGateway) Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error) {
	if req.AmountMinor <= 0 {
		return AuthorizationResult{}, fmt.Errorf("amount must be positive, got %d", req.AmountMinor)
	}
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return AuthorizationResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	g.mu.Unlock()

	if roll >= g.successRate {
		return AuthorizationResult{Status: StatusFailed, Reason: declinedReason}, nil
	}
	return AuthorizationResult{Status: StatusSucceeded, ConfirmationID: "sim_" + uuid.NewString()}, nil
}
