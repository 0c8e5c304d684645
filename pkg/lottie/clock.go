package lottie

import "time"

// Clock provides time for playback pacing. The default implementation uses
// system time. Tests can inject a fake clock via SetClock to control frame
// timing deterministically.
type Clock interface {
	Now() Time
}

// realClock uses system time.
type realClock struct{}

func (realClock) Now() Time { return Time(time.Now().UnixMilli()) }

// clock is the package-level time source, replaceable for testing.
var clock Clock = realClock{}

// SetClock replaces the playback clock. Returns the previous clock
// so callers can restore it during cleanup.
func SetClock(c Clock) Clock {
	prev := clock
	clock = c
	return prev
}

// Now returns the current time from the active clock.
func Now() Time { return clock.Now() }
