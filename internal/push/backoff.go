package push

import (
	"math/rand"
	"time"
)

// Backoff computes reconnect delays: exponential from Initial, capped at Max,
// with the upper half randomised so many consoles do not reconnect in step.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns the wait before reconnect attempt n (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	initial := b.Initial
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	max := b.Max
	if max <= 0 {
		max = 30 * time.Second
	}

	d := initial
	for i := 0; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		d = max
	}

	half := d / 2
	if half <= 0 {
		return d
	}
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
