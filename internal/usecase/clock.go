package usecase

import "time"

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns a Clock backed by the wall clock in UTC.
func SystemClock() Clock {
	return systemClock{}
}
