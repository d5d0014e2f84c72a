package track

import "time"

// Clock supplies the current time. The engine never reads the system
// clock directly so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time, in UTC truncated to whole seconds.
// Stored timestamps are second precision throughout.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
