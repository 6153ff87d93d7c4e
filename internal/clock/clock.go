// Package clock supplies the time source for the reminder scheduler and
// dispatcher. Production reads the wall clock; tests substitute a fake to
// pin dispatch windows to a known date.
package clock

import (
	"time"

	"go.uber.org/fx"
)

var Module = fx.Provide(NewSystemClock)

// Clock yields the current instant. Reminder windows key on calendar
// dates, so implementations always report UTC.
type Clock interface {
	Now() time.Time
}

// NewSystemClock returns the wall-clock implementation wired in
// production.
func NewSystemClock() Clock {
	return wallClock{}
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now().UTC()
}
