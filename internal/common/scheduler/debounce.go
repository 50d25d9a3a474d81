// internal/common/scheduler/debounce.go
package scheduler

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one trailing run. A run
// happens once Wait has elapsed without a new trigger, or once MaxWait has
// elapsed since the first trigger of the burst, whichever comes first.
// Only the most recently triggered function runs.
type Debouncer struct {
	wait    time.Duration
	maxWait time.Duration

	mu      sync.Mutex
	pending func()
	waitT   *time.Timer
	maxT    *time.Timer
	burst   uint64
}

// NewDebouncer creates a debouncer. maxWait <= 0 disables the forced run.
func NewDebouncer(wait, maxWait time.Duration) *Debouncer {
	if maxWait > 0 && maxWait < wait {
		maxWait = wait
	}
	return &Debouncer{wait: wait, maxWait: maxWait}
}

// Trigger schedules fn, replacing any pending function of the current burst.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = fn
	burst := d.burst

	if d.waitT != nil {
		d.waitT.Stop()
	}
	d.waitT = time.AfterFunc(d.wait, func() { d.fire(burst) })

	if d.maxWait > 0 && d.maxT == nil {
		d.maxT = time.AfterFunc(d.maxWait, func() { d.fire(burst) })
	}
}

func (d *Debouncer) fire(burst uint64) {
	d.mu.Lock()
	if burst != d.burst || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.take()
	d.mu.Unlock()

	fn()
}

// take ends the current burst and returns its function. Callers hold mu.
func (d *Debouncer) take() func() {
	fn := d.pending
	d.pending = nil
	d.burst++
	if d.waitT != nil {
		d.waitT.Stop()
		d.waitT = nil
	}
	if d.maxT != nil {
		d.maxT.Stop()
		d.maxT = nil
	}
	return fn
}

// Cancel drops the pending run, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil || d.waitT != nil || d.maxT != nil {
		d.take()
	}
}

// Flush runs the pending function immediately on the calling goroutine.
// It reports whether anything ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return false
	}
	fn := d.take()
	d.mu.Unlock()

	fn()
	return true
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
