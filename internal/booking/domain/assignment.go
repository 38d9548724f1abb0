package domain

import "time"

// Assignment links one translator to one job over a period of time. A job has
// at most one active assignment (CancelAt and CompletedAt both nil); any
// reassignment closes the previous row and creates a new one.
type Assignment struct {
	ID           int64
	JobID        int64
	UserID       int64
	CreatedAt    time.Time
	WillExpireAt time.Time
	CancelAt     *time.Time
	CompletedAt  *time.Time
	CompletedBy  *int64
}

// Active reports whether this assignment currently serves its job.
func (a *Assignment) Active() bool {
	return a.CancelAt == nil && a.CompletedAt == nil
}
