package match

import (
	"sync"
	"time"
)

// countdown is the single recurring tick source for the round clock.
// Exactly one instance is alive at a time: Reveal creates it and
// every operation that stops the clock tears it down, so ticks can never
// double up.
type countdown struct {
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newCountdown(interval time.Duration) *countdown {
	if interval <= 0 {
		interval = time.Second
	}

	return &countdown{interval: interval, stopCh: make(chan struct{})}
}

// run feeds ticks into the sink until the sink reports the clock is done
// or the countdown is stopped.
func (c *countdown) run(tick func() bool) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if !tick() {
				return
			}
		}
	}
}

// stop is idempotent and safe to call mid-tick; the tick sink rechecks
// the running flag under the session lock.
func (c *countdown) stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}
