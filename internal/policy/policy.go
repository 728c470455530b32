// Package policy holds the pluggable decision points of trade settlement:
// how an outcome is decided and how price references are produced. Tests
// swap in deterministic implementations.
package policy

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/ultrasignals/trading-ledger/internal/models"
)

// Outcome decides whether a due trade settles as a win.
type Outcome interface {
	Decide(trade *models.Trade) bool
}

// Price produces entry and exit price references for a symbol.
type Price interface {
	Entry(symbol string) string
	Exit(symbol string) string
}

// RandomOutcome settles each trade by a fair coin flip.
type RandomOutcome struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomOutcome(seed int64) *RandomOutcome {
	return &RandomOutcome{rng: rand.New(rand.NewSource(seed))}
}

func (o *RandomOutcome) Decide(_ *models.Trade) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rng.Intn(2) == 0
}

// FixedOutcome settles every trade the same way.
type FixedOutcome bool

func (o FixedOutcome) Decide(_ *models.Trade) bool { return bool(o) }

const (
	basePrice  = 1.085
	priceDrift = 0.01
)

// RandomPrice quotes references in a narrow band around a base price. The
// references are informational, settlement never reads them back.
type RandomPrice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomPrice(seed int64) *RandomPrice {
	return &RandomPrice{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPrice) quote() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("%.5f", basePrice+p.rng.Float64()*priceDrift)
}

func (p *RandomPrice) Entry(_ string) string { return p.quote() }
func (p *RandomPrice) Exit(_ string) string  { return p.quote() }

// FixedPrice returns the same reference for every quote.
type FixedPrice string

func (p FixedPrice) Entry(_ string) string { return string(p) }
func (p FixedPrice) Exit(_ string) string  { return string(p) }
