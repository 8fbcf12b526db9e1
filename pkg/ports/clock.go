package ports

import "time"

// Timer is a pending callback that can be stopped.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Clock abstracts time so timer-driven components can run on virtual time in tests.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine (or synchronously for fake clocks)
	// once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
	// After returns a channel that receives the current time once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
