package domain

import "github.com/jonboulle/clockwork"

// clock is read by EvaluateHealth. Tests and cmd/evaluate replace it to
// evaluate at a fixed instant.
var clock = clockwork.NewRealClock()

// SetClock replaces the evaluation clock. A nil clock restores wall time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}
