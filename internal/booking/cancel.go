package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
	"github.com/tolkmarket/booking-be/internal/notify"
)

const cancelWindow = 24 * time.Hour

const msgLateCancel = "Du kan inte avboka en bokning som sker inom 24 timmar genom appen. " +
	"Vänligen ring på +46 73 75 86 865 och gör din avbokning över telefon. Tack!"

// Cancel withdraws a booking on behalf of the caller. Customers may cancel
// at any time, with the final status recording whether 24 hours of notice
// were given. Translators may only cancel with more than 24 hours of notice,
// which reopens the job and re-broadcasts it to everyone else.
func (s *Service) Cancel(ctx context.Context, jobID int64, caller *domain.User) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	now := s.clock.Now()

	if caller.IsCustomer() {
		return s.cancelByCustomer(ctx, job, now)
	}
	return s.cancelByTranslator(ctx, job, caller, now)
}

func (s *Service) cancelByCustomer(ctx context.Context, job *domain.Job, now time.Time) error {
	job.WithdrawAt = &now
	if job.Due.Sub(now) >= cancelWindow {
		job.Status = domain.StatusWithdrawBefore24
	} else {
		job.Status = domain.StatusWithdrawAfter24
	}
	if err := s.repo.UpdateJob(ctx, job, nil); err != nil {
		return fmt.Errorf("withdraw job: %w", err)
	}
	s.logger.Info("booking canceled by customer", "job_id", job.ID, "status", job.Status)

	if tr := s.activeTranslator(ctx, job.ID); tr != nil {
		language := s.languageName(ctx, job.FromLanguageID)
		text := fmt.Sprintf("Kunden har avbokat bokningen för %stolk, %dmin, %s. Var god och kolla dina tidigare bokningar för detaljer.",
			language, job.Duration, job.Due.Format(time.DateTime))
		s.dispatcher.PushToUser(ctx, tr, job, notify.TypeJobCanceled, text)
	}
	return nil
}

func (s *Service) cancelByTranslator(ctx context.Context, job *domain.Job, translator *domain.User, now time.Time) error {
	if job.Due.Sub(now) <= cancelWindow {
		return &domain.PolicyRefusal{Message: msgLateCancel}
	}

	if customer, err := s.repo.GetUser(ctx, job.UserID); err == nil {
		language := s.languageName(ctx, job.FromLanguageID)
		text := fmt.Sprintf("Er %stolk, %dmin %s, har avbokat tolkningen. Vi letar nu efter en ny tolk som kan ersätta denne. Tack!",
			language, job.Duration, job.Due.Format(time.DateTime))
		s.dispatcher.PushToUser(ctx, customer, job, notify.TypeJobCanceled, text)
	} else {
		s.logger.Error("load customer failed", "job_id", job.ID, "error", err)
	}

	job.Status = domain.StatusPending
	job.CreatedAt = now
	job.WillExpireAt = s.expiry.WillExpireAt(job.Due, now)
	if err := s.repo.UpdateJob(ctx, job, nil); err != nil {
		return fmt.Errorf("reopen job: %w", err)
	}
	if err := s.repo.CloseActiveAssignments(ctx, job.ID, now); err != nil {
		return fmt.Errorf("release assignment: %w", err)
	}
	s.logger.Info("booking canceled by translator", "job_id", job.ID, "translator_id", translator.ID)

	s.broadcastToEligible(ctx, job, translator.ID)
	return nil
}
