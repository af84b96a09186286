package util

import (
	"sync"
	"time"
)

// Debouncer delays a function until calls stop arriving for the configured quiet period.
type Debouncer struct {
	mu    sync.Mutex
	fn    func()
	delay time.Duration
	timer *time.Timer
}

// Debounce wraps fn so that bursts of Trigger calls result in one call after delay.
func Debounce(fn func(), delay time.Duration) *Debouncer {
	return &Debouncer{fn: fn, delay: delay}
}

// Trigger cancels any pending call and schedules a new one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels the pending call. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// Flush runs the pending call immediately, if any.
func (d *Debouncer) Flush() {
	if d.Stop() {
		d.fn()
	}
}
