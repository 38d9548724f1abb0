package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
	"github.com/tolkmarket/booking-be/internal/notify"
)

// AcceptResult reports the race outcome to the caller. Losing is a normal
// business result, not an error.
type AcceptResult struct {
	Accepted bool
	Message  string
	Job      *domain.Job
}

// Accept lets a translator claim a pending job from the job list. The claim
// itself is a single conditional write, so under concurrent accepts exactly
// one translator wins and the rest get the already-taken message.
func (s *Service) Accept(ctx context.Context, jobID int64, translator *domain.User) (*AcceptResult, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	busy, err := s.repo.TranslatorBusyAt(ctx, translator.ID, job.Due)
	if err != nil {
		return nil, fmt.Errorf("check conflicting booking: %w", err)
	}
	if busy {
		return &AcceptResult{Message: "Du har redan en bokning den tiden! Bokningen är inte accepterad."}, nil
	}

	won, err := s.claim(ctx, job, translator)
	if err != nil {
		return nil, err
	}
	if !won {
		return &AcceptResult{Message: s.takenMessage(ctx, job)}, nil
	}
	language := s.languageName(ctx, job.FromLanguageID)
	return &AcceptResult{
		Accepted: true,
		Job:      job,
		Message: fmt.Sprintf("Du har nu accepterat och fått bokningen för %stolk %dmin %s",
			language, job.Duration, job.Due.Format(time.DateTime)),
	}, nil
}

// AcceptWithID is the deep-link variant used from a push notification. On
// success the customer also gets an in-app push that a translator was found.
func (s *Service) AcceptWithID(ctx context.Context, jobID int64, translator *domain.User) (*AcceptResult, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	busy, err := s.repo.TranslatorBusyAt(ctx, translator.ID, job.Due)
	if err != nil {
		return nil, fmt.Errorf("check conflicting booking: %w", err)
	}
	if busy {
		return &AcceptResult{
			Message: fmt.Sprintf("Du har redan en bokning den tiden %s. Du har inte fått denna tolkning",
				job.Due.Format(time.DateTime)),
		}, nil
	}

	won, err := s.claim(ctx, job, translator)
	if err != nil {
		return nil, err
	}
	language := s.languageName(ctx, job.FromLanguageID)
	due := job.Due.Format(time.DateTime)
	if !won {
		return &AcceptResult{
			Message: fmt.Sprintf("Denna %stolkning %dmin %s har redan accepterats av annan tolk. Du har inte fått denna tolkning",
				language, job.Duration, due),
		}, nil
	}

	if customer, err := s.repo.GetUser(ctx, job.UserID); err == nil {
		text := fmt.Sprintf("Din bokning för %s translators, %dmin, %s har accepterats av en tolk. Vänligen öppna appen för att se detaljer om tolken.",
			language, job.Duration, due)
		s.dispatcher.PushToUser(ctx, customer, job, notify.TypeJobAccepted, text)
	} else {
		s.logger.Error("load customer failed", "job_id", job.ID, "error", err)
	}
	return &AcceptResult{
		Accepted: true,
		Job:      job,
		Message: fmt.Sprintf("Du har nu accepterat och fått bokningen för %stolk %dmin %s. Var god och kolla i Din kökalender.",
			language, job.Duration, due),
	}, nil
}

// claim runs the atomic accept and, on a win, mails the confirmation to the
// customer.
func (s *Service) claim(ctx context.Context, job *domain.Job, translator *domain.User) (bool, error) {
	if job.Status != domain.StatusPending {
		return false, nil
	}
	now := s.clock.Now()
	won, err := s.repo.AcceptJob(ctx, job.ID, translator.ID, now)
	if err != nil {
		return false, fmt.Errorf("accept job: %w", err)
	}
	if !won {
		return false, nil
	}
	job.Status = domain.StatusAssigned

	customer, err := s.repo.GetUser(ctx, job.UserID)
	if err != nil {
		s.logger.Error("load customer failed", "job_id", job.ID, "error", err)
		return true, nil
	}
	subject := fmt.Sprintf("Bekräftelse - tolk har accepterat er bokning (bokning #%d)", job.ID)
	s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "job-accepted", map[string]any{
		"user": customer, "job": job,
	})
	return true, nil
}

func (s *Service) takenMessage(ctx context.Context, job *domain.Job) string {
	language := s.languageName(ctx, job.FromLanguageID)
	return fmt.Sprintf("Denna %stolkning %dmin %s har redan accepterats av annan tolk. Du har inte fått denna tolkning",
		language, job.Duration, job.Due.Format(time.DateTime))
}
