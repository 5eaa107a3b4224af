package clock

import "time"

// Clock provides the current time. Swapped for a mock in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, in UTC so persisted timestamps
// compare equal after a JSON round trip
type SystemClock struct{}

// New creates a new SystemClock
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current UTC time
func (c *SystemClock) Now() time.Time {
	return time.Now().UTC()
}
