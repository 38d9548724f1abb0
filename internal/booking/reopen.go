package booking

import (
	"context"
	"fmt"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// Reopen puts a dead booking back on the market. A job that merely stalled is
// reset in place; one that already timed out is cloned into a fresh booking
// so the timed-out record stays intact for reporting. Either way the old
// assignments are released and the job goes back out to every eligible
// translator.
func (s *Service) Reopen(ctx context.Context, jobID, actorUserID int64) (int64, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	willExpire := s.expiry.WillExpireAt(job.Due, now)

	reopened := job
	if job.Status != domain.StatusTimedOut {
		job.Status = domain.StatusPending
		job.CreatedAt = now
		job.WillExpireAt = willExpire
		if err := s.repo.UpdateJob(ctx, job, nil); err != nil {
			return 0, fmt.Errorf("reopen job: %w", err)
		}
	} else {
		clone := *job
		clone.ID = 0
		clone.Status = domain.StatusPending
		clone.CreatedAt = now
		clone.WillExpireAt = willExpire
		clone.EndAt = nil
		clone.WithdrawAt = nil
		clone.SessionTime = ""
		clone.EmailSent = false
		clone.EmailSent16h = false
		clone.EmailSent48h = false
		clone.AdminComments = fmt.Sprintf("This booking is a reopening of booking #%d", jobID)
		if err := s.repo.CreateJob(ctx, &clone); err != nil {
			return 0, fmt.Errorf("clone job: %w", err)
		}
		reopened = &clone
	}

	if err := s.repo.CloseActiveAssignments(ctx, jobID, now); err != nil {
		return 0, fmt.Errorf("release assignments: %w", err)
	}
	// Administrative marker tying the reopening back to whoever triggered
	// it. Born canceled so it never counts as a live claim.
	if err := s.repo.CreateAssignment(ctx, &domain.Assignment{
		JobID:        jobID,
		UserID:       actorUserID,
		CreatedAt:    now,
		WillExpireAt: willExpire,
		CancelAt:     &now,
	}); err != nil {
		return 0, fmt.Errorf("record reopening: %w", err)
	}
	s.logger.Info("booking reopened", "job_id", jobID, "reopened_id", reopened.ID)

	s.broadcastToEligible(ctx, reopened, 0)
	return reopened.ID, nil
}

// IgnoreExpiring hides a booking from the session-length alert report.
func (s *Service) IgnoreExpiring(ctx context.Context, jobID int64) error {
	return s.repo.SetIgnore(ctx, jobID, true)
}

// IgnoreExpired hides a booking from the expiring-soon report.
func (s *Service) IgnoreExpired(ctx context.Context, jobID int64) error {
	return s.repo.SetIgnoreExpired(ctx, jobID, true)
}
