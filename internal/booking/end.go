package booking

import (
	"context"
	"fmt"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// EndJob closes a started session. The recorded session time is the distance
// between the booked start and the moment of closing, and both parties get
// the session-ended mail, one marked for invoicing and one for payroll.
func (s *Service) EndJob(ctx context.Context, jobID, completedBy int64) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != domain.StatusStarted {
		return nil
	}
	customer, err := s.repo.GetUser(ctx, job.UserID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	diff := now.Sub(job.Due)
	if diff < 0 {
		diff = -diff
	}
	hours := int(diff.Hours())
	mins := int(diff.Minutes()) % 60
	secs := int(diff.Seconds()) % 60

	job.EndAt = &now
	job.Status = domain.StatusCompleted
	job.SessionTime = fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)

	assignment, err := s.repo.CurrentAssignment(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateJob(ctx, job, nil); err != nil {
		return fmt.Errorf("end job: %w", err)
	}
	s.sendSessionEndedMail(ctx, job, customer, fmt.Sprintf("%d tim %d min", hours, mins))

	if assignment != nil && assignment.Active() {
		if err := s.repo.CompleteAssignment(ctx, assignment.ID, now, completedBy); err != nil {
			return fmt.Errorf("complete assignment: %w", err)
		}
	}
	return nil
}

// CustomerNotCall records a no-show by the customer on a phone booking. No
// mail goes out; the assignment is closed in the translator's favour.
func (s *Service) CustomerNotCall(ctx context.Context, jobID int64) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	job.EndAt = &now
	job.Status = domain.StatusNotCarriedOutCustomer

	assignment, err := s.repo.CurrentAssignment(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateJob(ctx, job, nil); err != nil {
		return fmt.Errorf("mark not carried out: %w", err)
	}
	if assignment != nil && assignment.Active() {
		if err := s.repo.CompleteAssignment(ctx, assignment.ID, now, assignment.UserID); err != nil {
			return fmt.Errorf("complete assignment: %w", err)
		}
	}
	return nil
}
