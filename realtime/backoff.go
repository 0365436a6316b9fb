package realtime

import "time"

const (
	// DefaultBaseDelay is an exported constant or variable used by the client core.
	DefaultBaseDelay = time.Second
	// DefaultMaxDelay is an exported constant or variable used by the client core.
	DefaultMaxDelay = 30 * time.Second
	// DefaultMaxAttempts is an exported constant or variable used by the client core.
	DefaultMaxAttempts = 8
)

// Delay returns the reconnect delay for a given zero-based attempt:
// min(base << attempt, max).
func Delay(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}
	if attempt < 0 {
		attempt = 0
	}
	// Shifting past 62 bits overflows time.Duration before the cap applies.
	if attempt >= 62 {
		return max
	}

	d := base << uint(attempt)
	if d <= 0 || d > max {
		return max
	}
	return d
}
