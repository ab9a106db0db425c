package jwt

import "time"

// Clock supplies the current time to builders and time-based constraints.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FrozenClock always returns the same instant.
type FrozenClock time.Time

// Now returns the frozen instant.
func (c FrozenClock) Now() time.Time {
	return time.Time(c)
}
