package dashboard

import (
	"context"
	"math/rand"
	"time"
)

// Demo-data cadence. Both tickers are suppressed while live mode is off.
const (
	demoEventInterval = 5 * time.Second
	demoEventChance   = 0.15

	nudgeInterval    = 8 * time.Second
	nudgeErrorChance = 0.2
)

// Simulator manufactures demo events and background histogram drift so the
// dashboard stays visibly alive without real traffic. It is strictly a demo
// path: everything it produces flows through the same Reducer fold as real
// events, and the reducer's live flag turns it off entirely.
type Simulator struct {
	reducer *Reducer

	eventEvery time.Duration
	nudgeEvery time.Duration

	now func() time.Time
	rng *rand.Rand
}

// NewSimulator creates a Simulator feeding r at the default cadence.
func NewSimulator(r *Reducer) *Simulator {
	return &Simulator{
		reducer:    r,
		eventEvery: demoEventInterval,
		nudgeEvery: nudgeInterval,
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run generates demo data until ctx is cancelled. It blocks.
func (s *Simulator) Run(ctx context.Context) {
	eventTicker := time.NewTicker(s.eventEvery)
	nudgeTicker := time.NewTicker(s.nudgeEvery)
	defer eventTicker.Stop()
	defer nudgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-eventTicker.C:
			s.tickEvent()
		case <-nudgeTicker.C:
			s.tickNudge()
		}
	}
}

// tickEvent occasionally injects one synthetic log entry.
func (s *Simulator) tickEvent() {
	if !s.reducer.Live() {
		return
	}
	if s.rng.Float64() < demoEventChance {
		s.reducer.Apply(synthEvent(s.rng, s.now()))
	}
}

// tickNudge drifts the current hour's counts upward.
func (s *Simulator) tickNudge() {
	if !s.reducer.Live() {
		return
	}
	errors := 0
	if s.rng.Float64() < nudgeErrorChance {
		errors = 1
	}
	s.reducer.nudgeCurrentHour(s.rng.Intn(3), errors)
}
