package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
	"github.com/tolkmarket/booking-be/internal/notify"
)

// ListJobs returns one admin page of jobs matching the filter.
func (s *Service) ListJobs(ctx context.Context, f JobFilter) ([]domain.Job, error) {
	return s.repo.ListJobs(ctx, f)
}

// SessionAlerts lists completed bookings whose recorded session ran at least
// double the booked duration and that nobody has dismissed yet.
func (s *Service) SessionAlerts(ctx context.Context, f JobFilter) ([]domain.Job, error) {
	f.Statuses = []string{domain.StatusCompleted}
	f.WithSession = true
	jobs, err := s.repo.ListJobs(ctx, f)
	if err != nil {
		return nil, err
	}
	out := jobs[:0]
	for _, job := range jobs {
		if job.Ignore {
			continue
		}
		minutes, ok := sessionMinutes(job.SessionTime)
		if !ok {
			continue
		}
		if minutes >= job.Duration && minutes >= job.Duration*2 {
			out = append(out, job)
		}
	}
	return out, nil
}

// sessionMinutes parses an "h:m:s" session record into whole minutes.
func sessionMinutes(sessionTime string) (int, bool) {
	parts := strings.Split(sessionTime, ":")
	if len(parts) < 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hours*60 + mins, true
}

// ExpiringPending lists pending future bookings approaching their expiry
// deadline, for the admin follow-up report.
func (s *Service) ExpiringPending(ctx context.Context, f JobFilter) ([]domain.Job, error) {
	f.Statuses = []string{domain.StatusPending}
	f.ExpiringOnly = true
	return s.repo.ListJobs(ctx, f)
}

// SweepExpired times out every pending booking whose expiry deadline has
// passed and tells the customer no translator was found. Returns how many
// bookings were swept.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	jobs, err := s.repo.ExpiredPendingJobs(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("load expired jobs: %w", err)
	}
	swept := 0
	for i := range jobs {
		job := &jobs[i]
		oldStatus := job.Status
		job.Status = domain.StatusTimedOut
		audit := []domain.AuditEntry{{
			Field:    domain.AuditFieldStatus,
			OldValue: oldStatus,
			NewValue: domain.StatusTimedOut,
		}}
		if err := s.repo.UpdateJob(ctx, job, audit); err != nil {
			s.logger.Error("expire job failed", "job_id", job.ID, "error", err)
			continue
		}
		swept++

		customer, err := s.repo.GetUser(ctx, job.UserID)
		if err != nil {
			s.logger.Error("load customer failed", "job_id", job.ID, "error", err)
			continue
		}
		language := s.languageName(ctx, job.FromLanguageID)
		text := fmt.Sprintf("Tyvärr har ingen tolk accepterat er bokning: (%s, %dmin, %s). Vänligen pröva boka om tiden.",
			language, job.Duration, job.Due.Format(time.DateTime))
		s.dispatcher.PushToUser(ctx, customer, job, notify.TypeJobExpired, text)
	}
	return swept, nil
}
