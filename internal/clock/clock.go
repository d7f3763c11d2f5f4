// Package clock abstracts wall-clock time so cooldowns, spam windows and
// delayed teardown can be driven deterministically in tests.
package clock

import "time"

// Clock is the time source used by every component that compares timestamps
// or schedules delayed work.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once d has elapsed. The returned Timer cancels it.
	AfterFunc(d time.Duration, f func()) Timer

	// Tick returns a channel delivering ticks every d and a stop function.
	Tick(d time.Duration) (<-chan time.Time, func())
}

// Timer is a cancellable pending call created by AfterFunc.
type Timer interface {
	// Stop prevents the call from firing. Reports whether it was pending.
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

func (realClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	return ticker.C, ticker.Stop
}
