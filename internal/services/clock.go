package services

import "time"

// Clock supplies the current instant. Injected so expiry behavior is
// deterministic under test; production wiring uses NewClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewClock returns the wall clock.
func NewClock() Clock {
	return systemClock{}
}
