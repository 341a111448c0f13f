package tracker

import "time"

// Clock supplies the current time so due-date arithmetic stays testable
// against a fixed now.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
