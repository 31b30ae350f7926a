// internal/channel/simulated.go
package channel

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
)

// Simulated is a channel for development and tests: no network calls, a
// configurable failure rate, synthetic message ids.
type Simulated struct {
	// FailRate in [0,1); 0 means every send succeeds.
	FailRate float64
	Rand     *rand.Rand
}

func NewSimulated(failRate float64, rng *rand.Rand) *Simulated {
	return &Simulated{FailRate: failRate, Rand: rng}
}

func (s *Simulated) Send(ctx context.Context, destination, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Kind: KindUnknown, Message: err.Error()}
	}
	if s.FailRate > 0 && s.Rand != nil && s.Rand.Float64() < s.FailRate {
		return "", NewError(30001, "simulated queue overflow")
	}
	return "sim-" + uuid.NewString(), nil
}

var _ Channel = (*Simulated)(nil)
