// Package sim advances simulated train positions on a fixed tick.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/zulandar/signalbox/internal/models"
)

// DefaultPeriod is the interval between position updates.
const DefaultPeriod = 100 * time.Millisecond

// stepDivisor converts km/h into percentage points per tick.
const stepDivisor = 360.0

// Advance returns a copy of trains with every moving train pushed forward by
// speed/360 percentage points, wrapping modulo 100. Stopped trains keep
// their position.
func Advance(trains []models.Train) []models.Train {
	out := make([]models.Train, len(trains))
	for i, t := range trains {
		if t.Moving() {
			t.Position = wrap(t.Position + t.Speed/stepDivisor)
		}
		out[i] = t
	}
	return out
}

// wrap maps p into [0, 100).
func wrap(p float64) float64 {
	p = math.Mod(p, 100)
	if p < 0 {
		p += 100
	}
	if p >= 100 {
		// math.Mod of a tiny negative value plus 100 can round up to 100.
		p = 0
	}
	return p
}

// Ticker calls a function on a fixed period until it is stopped. It is the
// cancellation handle for a running simulation loop: whoever starts the
// ticker owns it and must call Stop on teardown.
type Ticker struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches a goroutine that calls fn every period until Stop is called
// or ctx is cancelled. A non-positive period uses DefaultPeriod.
func Start(ctx context.Context, period time.Duration, fn func()) *Ticker {
	if period <= 0 {
		period = DefaultPeriod
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Ticker{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		tick := time.NewTicker(period)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				fn()
			}
		}
	}()
	return t
}

// Stop cancels the ticker and waits for its goroutine to exit. Safe to call
// more than once.
func (t *Ticker) Stop() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed once the ticker goroutine has exited.
func (t *Ticker) Done() <-chan struct{} {
	return t.done
}
