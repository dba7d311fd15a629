package dashboard

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Window is one half-open reporting interval, kept in the clock's local
// zone until serialization.
type Window struct {
	From time.Time
	To   time.Time
}

// TodayWindow spans local midnight to local end-of-day.
func TodayWindow(clock clockwork.Clock) Window {
	now := clock.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Window{
		From: midnight,
		To:   midnight.AddDate(0, 0, 1).Add(-time.Second),
	}
}

// MonthToDateWindow spans the first of the current month to now.
func MonthToDateWindow(clock clockwork.Clock) Window {
	now := clock.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{From: first, To: now}
}
