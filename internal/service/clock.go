package service

import "time"

// Clock supplies the current instant. The calculators take timestamps as
// parameters and stay pure; only the scoring write path reads the clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
