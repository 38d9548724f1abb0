package notify

import "time"

// Night hours during which opted-out translators must not be pushed.
const (
	nightStartHour = 21
	nightEndHour   = 7

	businessStartHour = 9
)

// Schedule answers the two timing questions the dispatcher has: is it night
// right now, and when is the next acceptable delivery time for a delayed push.
type Schedule struct{}

// IsNight reports whether t falls inside the do-not-disturb window.
func (Schedule) IsNight(t time.Time) bool {
	h := t.Hour()
	return h >= nightStartHour || h < nightEndHour
}

// NextBusinessTime returns the next 09:00 at or after t, in t's location.
func (Schedule) NextBusinessTime(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), businessStartHour, 0, 0, 0, t.Location())
	if !t.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
