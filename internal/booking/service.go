package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// Clock abstracts time.Now so lifecycle rules can be tested at fixed instants.
type Clock interface {
	Now() time.Time
}

// Mailer delivers templated transactional mail. Failures are logged by the
// caller and never abort the surrounding operation.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, template string, data map[string]any) error
}

// Dispatcher fans push and SMS notifications out to users. Counts report how
// many deliveries were attempted, not how many arrived.
type Dispatcher interface {
	NotifyTranslators(ctx context.Context, translators []domain.User, job *domain.Job, language string, data map[string]any) int
	PushToUser(ctx context.Context, user *domain.User, job *domain.Job, notificationType, text string) bool
	SMSTranslators(ctx context.Context, translators []domain.User, job *domain.Job, fallbackTown string) int
}

// ExpiryPolicy computes the deadline after which a pending job times out.
type ExpiryPolicy interface {
	WillExpireAt(due, createdAt time.Time) time.Time
}

// Service owns the booking lifecycle: creation, status transitions,
// reassignment, the acceptance race and session close-out. All side effects
// run through the injected collaborators.
type Service struct {
	repo       Repository
	mailer     Mailer
	dispatcher Dispatcher
	expiry     ExpiryPolicy
	clock      Clock
	logger     *slog.Logger
}

func NewService(repo Repository, mailer Mailer, dispatcher Dispatcher, expiry ExpiryPolicy, clock Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		mailer:     mailer,
		dispatcher: dispatcher,
		expiry:     expiry,
		clock:      clock,
		logger:     logger,
	}
}

// customerEmail prefers the booking's own contact address over the account
// address.
func customerEmail(job *domain.Job, user *domain.User) string {
	if job.UserEmail != "" {
		return job.UserEmail
	}
	return user.Email
}

func (s *Service) mail(ctx context.Context, toEmail, toName, subject, template string, data map[string]any) {
	if toEmail == "" {
		return
	}
	if err := s.mailer.Send(ctx, toEmail, toName, subject, template, data); err != nil {
		s.logger.Error("send mail failed", "template", template, "to", toEmail, "error", err)
	}
}
