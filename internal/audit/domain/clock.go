package domain

import "time"

// Clock abstracts the time source so after-hours detection is deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// BusinessHoursPolicy defines when access counts as in-hours. Hours are in
// the local time of the evaluated timestamp; StartHour is inclusive, EndHour
// exclusive.
type BusinessHoursPolicy struct {
	StartHour    int
	EndHour      int
	WeekdaysOnly bool
}

// DefaultBusinessHours is 08:00 to 18:00, Monday through Friday.
func DefaultBusinessHours() BusinessHoursPolicy {
	return BusinessHoursPolicy{StartHour: 8, EndHour: 18, WeekdaysOnly: true}
}

// Within reports whether t falls inside business hours.
func (p BusinessHoursPolicy) Within(t time.Time) bool {
	if p.WeekdaysOnly {
		switch t.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	hour := t.Hour()
	return hour >= p.StartHour && hour < p.EndHour
}
