// Package expiry computes how long a pending booking stays open for
// translators before it times out.
package expiry

import "time"

// Thresholds on the gap between creation and due time.
const (
	shortGap  = 90 * time.Minute
	dayGap    = 24 * time.Hour
	longGap   = 72 * time.Hour
	shortHold = 90 * time.Minute
	dayHold   = 16 * time.Hour
	longAhead = 48 * time.Hour
)

// Policy decides the will_expire_at timestamp for a booking. Bookings close
// to their due time stay open until the session itself; bookings far in the
// future close well ahead of it so they can be re-published.
type Policy struct{}

// WillExpireAt returns the instant after which an unaccepted booking is
// considered timed out.
func (Policy) WillExpireAt(due, createdAt time.Time) time.Time {
	gap := due.Sub(createdAt)
	switch {
	case gap <= shortGap:
		return due
	case gap <= dayGap:
		return createdAt.Add(shortHold)
	case gap <= longGap:
		return createdAt.Add(dayHold)
	default:
		return due.Add(-longAhead)
	}
}
