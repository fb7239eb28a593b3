package observer

import (
	"sync"
	"time"
)

// Sweeper ages stale observations out of an Observer on a fixed interval.
//
// Architecture:
//   - Start spawns one control goroutine that calls Observer.Sweep every
//     interval.  Sweeping is the only periodic maintenance the store needs;
//     capacity eviction happens inline on insert.
//   - A stop channel allows clean shutdown: Stop closes the channel and the
//     control goroutine exits after the current tick.  Stop is idempotent.
type Sweeper struct {
	observer  *Observer
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
	once      sync.Once
}

// NewSweeper creates a Sweeper that removes records older than retention
// from obs every interval.
func NewSweeper(obs *Observer, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		observer:  obs,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the background sweep loop.  Non-blocking; call Stop to end
// it.  Start must be called at most once.
func (sw *Sweeper) Start() {
	go func() {
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-sw.stopCh:
				return
			case <-ticker.C:
				sw.observer.Sweep(sw.retention)
			}
		}
	}()
}

// Stop ends the sweep loop.  Idempotent.
func (sw *Sweeper) Stop() {
	sw.once.Do(func() {
		close(sw.stopCh)
	})
}
