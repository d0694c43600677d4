package chat

import "time"

// DefaultDebounce is the minimum interval between two accepted messages of
// one connection.
const DefaultDebounce = 500 * time.Millisecond

// ShouldThrottle reports whether a message arriving at now must be
// rejected because the previous accepted message was less than threshold
// ago.  A zero last time (nothing accepted yet) never throttles.
func ShouldThrottle(last, now time.Time, threshold time.Duration) bool {
	if last.IsZero() || threshold <= 0 {
		return false
	}
	return now.Sub(last) < threshold
}
