// Package timer provides a fancier timer than time.Timer, used for the
// event loop's periodic reconciliation-sweep cadence.
package timer

import "time"

// Timer wraps time.Timer with a Running check and a Reset that restores
// the original interval.
type Timer struct {
	timer    *time.Timer
	interval time.Duration
	running  bool
}

// New creates a new Timer that calls f after d elapses.
func New(d time.Duration, f func()) *Timer {
	t := &Timer{
		interval: d,
		running:  true,
	}
	t.timer = time.AfterFunc(d, t.preflight(f))
	return t
}

// preflight clears the running flag before invoking the caller's function.
func (t *Timer) preflight(f func()) func() {
	return func() {
		t.running = false
		f()
	}
}

// Reset restarts the timer at its original interval.
func (t *Timer) Reset() {
	if !t.timer.Stop() {
		select {
		case <-t.timer.C:
		default:
		}
	}
	t.running = true
	t.timer.Reset(t.interval)
}

// Stop cancels the timer.
func (t *Timer) Stop() {
	if !t.timer.Stop() {
		select {
		case <-t.timer.C:
		default:
		}
	}
	t.running = false
}

// Running reports whether the timer is still counting down.
func (t *Timer) Running() bool {
	return t.running
}
