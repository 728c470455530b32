package domain

import (
	"errors"
	"fmt"
	"math/rand"
)

// Wheel is a weighted reward wheel. Higher weight means more likely; ties on
// the cumulative boundary resolve to the earlier sector by construction.
type Wheel struct {
	rewards []int64
	weights []float64
	total   float64
}

// NewWheel builds a wheel from parallel reward/weight slices. The slices must
// have equal, non-zero length and strictly positive total weight.
func NewWheel(rewardsMicros []int64, weights []float64) (*Wheel, error) {
	if len(rewardsMicros) == 0 {
		return nil, errors.New("wheel: no sectors")
	}
	if len(rewardsMicros) != len(weights) {
		return nil, fmt.Errorf("wheel: %d rewards but %d weights", len(rewardsMicros), len(weights))
	}
	total := 0.0
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("wheel: negative weight at sector %d", i)
		}
		total += w
	}
	if total <= 0 {
		return nil, errors.New("wheel: total weight must be positive")
	}
	return &Wheel{
		rewards: append([]int64(nil), rewardsMicros...),
		weights: append([]float64(nil), weights...),
		total:   total,
	}, nil
}

// Pick draws a sector using the supplied random source and returns the reward
// in micros. The draw is uniform in [0, totalWeight).
func (w *Wheel) Pick(r *rand.Rand) int64 {
	return w.PickAt(r.Float64() * w.total)
}

// PickAt selects the first sector whose cumulative weight exceeds the draw.
func (w *Wheel) PickAt(draw float64) int64 {
	cumulative := 0.0
	for i, weight := range w.weights {
		cumulative += weight
		if draw < cumulative {
			return w.rewards[i]
		}
	}
	// Only reachable when draw sits on the total due to float rounding.
	return w.rewards[len(w.rewards)-1]
}

// TotalWeight returns the sum of all sector weights.
func (w *Wheel) TotalWeight() float64 { return w.total }

// Sectors returns the reward values in wheel order.
func (w *Wheel) Sectors() []int64 {
	return append([]int64(nil), w.rewards...)
}

// DefaultWheel is the production spin wheel: small rewards are heavily
// favored over the jackpot sectors.
func DefaultWheel() *Wheel {
	rewards := []int64{
		500_000,     // $0.50
		700_000,     // $0.70
		1_000_000,   // $1
		2_000_000,   // $2
		5_000_000,   // $5
		10_000_000,  // $10
		15_000_000,  // $15
		35_000_000,  // $35
		100_000_000, // $100
	}
	weights := []float64{30, 25, 20, 15, 5, 3, 1.5, 0.4, 0.1}
	w, err := NewWheel(rewards, weights)
	if err != nil {
		panic(err)
	}
	return w
}
