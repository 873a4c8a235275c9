package pipeline

import "time"

// Clock supplies wall time for run lifecycle stamps. Injecting it keeps
// run rows, durations and golden output stable under test clocks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. Stamps are taken in UTC so the
// store's timestamp text is location-independent.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
