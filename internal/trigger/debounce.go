package trigger

import "time"

// DefaultDebounce is the minimum spacing between accepted button presses.
const DefaultDebounce = 250 * time.Millisecond

// Debouncer accepts an edge only if the previous accepted edge is at least
// interval old. Not safe for concurrent use.
type Debouncer struct {
	interval time.Duration
	last     time.Time
}

// NewDebouncer creates a Debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Accept reports whether an edge at now counts as a new press.
func (d *Debouncer) Accept(now time.Time) bool {
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		return false
	}
	d.last = now
	return true
}
