package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
	"github.com/tolkmarket/booking-be/internal/notify"
)

// UpdateRequest carries the admin edit form. Zero values of TranslatorID,
// FromLanguageID and Due mean "unchanged".
type UpdateRequest struct {
	Status          string
	AdminComments   string
	Due             time.Time
	FromLanguageID  int64
	TranslatorID    int64
	TranslatorEmail string
	Reference       string
	SessionTime     string
}

// UpdateResult reports which aspects of the booking actually changed.
type UpdateResult struct {
	Message           string
	StatusChanged     bool
	TranslatorChanged bool
	DueChanged        bool
	LanguageChanged   bool
}

// Update applies an admin edit in one pass: translator reassignment first,
// then due, language and status, each recorded as an audit entry. Every
// notification fires after the row persists, status sends first, and the
// due/translator/language notices are skipped entirely once the booking's
// due moment has passed.
func (s *Service) Update(ctx context.Context, jobID int64, req UpdateRequest) (*UpdateResult, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.GetUser(ctx, job.UserID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var audit []domain.AuditEntry
	reassign, err := s.changeTranslator(ctx, job, req, now, &audit)
	if err != nil {
		return nil, err
	}

	var oldDue time.Time
	dueChanged := false
	if !req.Due.IsZero() && !req.Due.Equal(job.Due) {
		oldDue = job.Due
		audit = append(audit, domain.AuditEntry{
			Field:    domain.AuditFieldDue,
			OldValue: job.Due.Format(time.DateTime),
			NewValue: req.Due.Format(time.DateTime),
		})
		job.Due = req.Due
		dueChanged = true
	}

	var oldLanguage string
	langChanged := false
	if req.FromLanguageID != 0 && req.FromLanguageID != job.FromLanguageID {
		oldLanguage = s.languageName(ctx, job.FromLanguageID)
		audit = append(audit, domain.AuditEntry{
			Field:    domain.AuditFieldLanguage,
			OldValue: oldLanguage,
			NewValue: s.languageName(ctx, req.FromLanguageID),
		})
		job.FromLanguageID = req.FromLanguageID
		langChanged = true
	}

	oldStatus := job.Status
	var notices pendingNotices
	statusChanged := s.changeStatus(ctx, job, req, reassign, customer, now, &notices)
	if statusChanged {
		audit = append(audit, domain.AuditEntry{
			Field:    domain.AuditFieldStatus,
			OldValue: oldStatus,
			NewValue: job.Status,
		})
	}

	job.AdminComments = req.AdminComments
	job.Reference = req.Reference
	if err := s.repo.UpdateJob(ctx, job, audit); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	for _, entry := range audit {
		s.logger.Info("booking updated",
			"job_id", job.ID, "field", entry.Field,
			"old", entry.OldValue, "new", entry.NewValue)
	}
	notices.flush(ctx)

	result := &UpdateResult{
		Message:           "Updated",
		StatusChanged:     statusChanged,
		TranslatorChanged: reassign.changed,
		DueChanged:        dueChanged,
		LanguageChanged:   langChanged,
	}
	if !job.Due.After(now) {
		return result, nil
	}

	if dueChanged {
		s.sendChangedDate(ctx, job, customer, oldDue, reassign)
	}
	if reassign.changed {
		s.sendChangedTranslator(ctx, job, customer, reassign)
	}
	if langChanged {
		s.sendChangedLanguage(ctx, job, customer, oldLanguage, reassign)
	}
	return result, nil
}

// reassignment captures the outcome of a translator change within one update.
type reassignment struct {
	changed bool
	old     *domain.User
	current *domain.User
}

func (s *Service) changeTranslator(ctx context.Context, job *domain.Job, req UpdateRequest, now time.Time, audit *[]domain.AuditEntry) (reassignment, error) {
	var res reassignment

	requestedID := req.TranslatorID
	if req.TranslatorEmail != "" {
		u, err := s.repo.UserByEmail(ctx, req.TranslatorEmail)
		if err != nil {
			return res, err
		}
		requestedID = u.ID
	}
	if requestedID == 0 {
		return res, nil
	}

	current, err := s.repo.CurrentAssignment(ctx, job.ID)
	if err != nil {
		return res, err
	}
	if current != nil && !current.Active() {
		current = nil
	}
	if current != nil {
		if current.UserID == requestedID {
			return res, nil
		}
		old, err := s.repo.GetUser(ctx, current.UserID)
		if err != nil {
			return res, err
		}
		res.old = old
		if err := s.repo.CloseActiveAssignments(ctx, job.ID, now); err != nil {
			return res, fmt.Errorf("close assignment: %w", err)
		}
	}

	next, err := s.repo.GetUser(ctx, requestedID)
	if err != nil {
		return res, err
	}
	willExpire := job.WillExpireAt
	if current != nil {
		willExpire = current.WillExpireAt
	}
	if err := s.repo.CreateAssignment(ctx, &domain.Assignment{
		JobID:        job.ID,
		UserID:       requestedID,
		CreatedAt:    now,
		WillExpireAt: willExpire,
	}); err != nil {
		return res, fmt.Errorf("create assignment: %w", err)
	}

	oldEmail := ""
	if res.old != nil {
		oldEmail = res.old.Email
	}
	*audit = append(*audit, domain.AuditEntry{
		Field:    domain.AuditFieldTranslator,
		OldValue: oldEmail,
		NewValue: next.Email,
	})
	res.changed = true
	res.current = next
	return res, nil
}

// pendingNotices collects the sends a status transition wants to make, held
// back until the row actually persists. A failed persist flushes nothing, so
// nobody hears about a change that never happened.
type pendingNotices struct {
	sends []func(context.Context)
}

func (p *pendingNotices) add(send func(context.Context)) {
	p.sends = append(p.sends, send)
}

func (p *pendingNotices) flush(ctx context.Context) {
	for _, send := range p.sends {
		send(ctx)
	}
}

// changeStatus runs the per-state transition table. It mutates job.Status
// only when the transition is allowed and reports whether it did.
func (s *Service) changeStatus(ctx context.Context, job *domain.Job, req UpdateRequest, reassign reassignment, customer *domain.User, now time.Time, notices *pendingNotices) bool {
	target := req.Status
	if target == "" || target == job.Status {
		return false
	}
	switch job.Status {
	case domain.StatusTimedOut:
		return s.fromTimedout(ctx, job, target, reassign, customer, now, notices)
	case domain.StatusPending:
		return s.fromPending(job, target, req.AdminComments, reassign, customer, notices)
	case domain.StatusAssigned:
		return s.fromAssigned(job, target, req.AdminComments, customer, notices)
	case domain.StatusStarted:
		return s.fromStarted(job, target, req, customer, now, notices)
	case domain.StatusCompleted, domain.StatusWithdrawAfter24:
		if target == domain.StatusTimedOut && req.AdminComments != "" {
			job.Status = target
			return true
		}
		return false
	default:
		return false
	}
}

func (s *Service) fromTimedout(ctx context.Context, job *domain.Job, target string, reassign reassignment, customer *domain.User, now time.Time, notices *pendingNotices) bool {
	language := s.languageName(ctx, job.FromLanguageID)
	data := map[string]any{"user": customer, "job": job}

	if target == domain.StatusPending {
		job.Status = target
		job.CreatedAt = now
		job.EmailSent = false
		job.EmailSent16h = false
		job.EmailSent48h = false
		subject := fmt.Sprintf("Vi har nu återöppnat er bokning av %stolk för bokning #%d", language, job.ID)
		notices.add(func(ctx context.Context) {
			s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "job-change-status-to-customer", data)
			s.broadcastToEligible(ctx, job, 0)
		})
		return true
	}
	if reassign.changed {
		job.Status = target
		subject := fmt.Sprintf("Bekräftelse - tolk har accepterat er bokning (bokning #%d)", job.ID)
		notices.add(func(ctx context.Context) {
			s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "job-accepted", data)
		})
		return true
	}
	return false
}

func (s *Service) fromPending(job *domain.Job, target, comments string, reassign reassignment, customer *domain.User, notices *pendingNotices) bool {
	switch target {
	case domain.StatusAssigned:
		if !reassign.changed {
			return false
		}
		job.Status = target
		data := map[string]any{"user": customer, "job": job}
		subject := fmt.Sprintf("Bekräftelse - tolk har accepterat er bokning (bokning #%d)", job.ID)
		notices.add(func(ctx context.Context) {
			s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "job-accepted", data)
			s.mail(ctx, reassign.current.Email, reassign.current.Name, subject, "job-changed-translator-new-translator", map[string]any{
				"user": reassign.current, "job": job,
			})
			s.sendSessionStartReminder(ctx, customer, job)
			s.sendSessionStartReminder(ctx, reassign.current, job)
		})
		return true
	case domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24, domain.StatusTimedOut:
		if target == domain.StatusTimedOut && comments == "" {
			return false
		}
		job.Status = target
		subject := fmt.Sprintf("Avbokning av bokningsnr: #%d", job.ID)
		notices.add(func(ctx context.Context) {
			s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "status-changed-from-pending-or-assigned-customer", map[string]any{
				"user": customer, "job": job,
			})
		})
		return true
	default:
		return false
	}
}

func (s *Service) fromAssigned(job *domain.Job, target, comments string, customer *domain.User, notices *pendingNotices) bool {
	switch target {
	case domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24, domain.StatusTimedOut:
		if target == domain.StatusTimedOut && comments == "" {
			return false
		}
		job.Status = target
		subject := fmt.Sprintf("Information om avslutad tolkning för bokningsnummer #%d", job.ID)
		notices.add(func(ctx context.Context) {
			s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "status-changed-from-pending-or-assigned-customer", map[string]any{
				"user": customer, "job": job,
			})
			if tr := s.activeTranslator(ctx, job.ID); tr != nil {
				s.mail(ctx, tr.Email, tr.Name, subject, "job-cancel-translator", map[string]any{
					"user": tr, "job": job,
				})
			}
		})
		return true
	default:
		return false
	}
}

func (s *Service) fromStarted(job *domain.Job, target string, req UpdateRequest, customer *domain.User, now time.Time, notices *pendingNotices) bool {
	if req.AdminComments == "" {
		return false
	}
	if target == domain.StatusCompleted {
		parts := strings.Split(req.SessionTime, ":")
		if len(parts) < 2 {
			return false
		}
		job.Status = target
		job.EndAt = &now
		job.SessionTime = req.SessionTime
		notices.add(func(ctx context.Context) {
			s.sendSessionEndedMail(ctx, job, customer, parts[0]+" tim "+parts[1]+" min")
		})
		return true
	}
	job.Status = target
	return true
}

// sendSessionEndedMail mails the invoice notice to the customer and the
// payroll notice to the serving translator.
func (s *Service) sendSessionEndedMail(ctx context.Context, job *domain.Job, customer *domain.User, sessionText string) {
	subject := fmt.Sprintf("Information om avslutad tolkning för bokningsnummer #%d", job.ID)
	s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "session-ended", map[string]any{
		"user": customer, "job": job, "session_time": sessionText, "for_text": "faktura",
	})
	if tr := s.activeTranslator(ctx, job.ID); tr != nil {
		s.mail(ctx, tr.Email, tr.Name, subject, "session-ended", map[string]any{
			"user": tr, "job": job, "session_time": sessionText, "for_text": "lön",
		})
	}
}

func (s *Service) activeTranslator(ctx context.Context, jobID int64) *domain.User {
	a, err := s.repo.CurrentAssignment(ctx, jobID)
	if err != nil || a == nil {
		return nil
	}
	u, err := s.repo.GetUser(ctx, a.UserID)
	if err != nil {
		s.logger.Error("load translator failed", "assignment_id", a.ID, "error", err)
		return nil
	}
	return u
}

// sendSessionStartReminder pushes the pre-session reminder a user sees
// shortly before the booking starts.
func (s *Service) sendSessionStartReminder(ctx context.Context, user *domain.User, job *domain.Job) {
	language := s.languageName(ctx, job.FromLanguageID)
	place := "telefon"
	if job.PhysicalOnly() {
		place = "plats i " + job.Town
	}
	text := fmt.Sprintf(
		"Detta är en påminnelse om att du har en %stolkning (på %s) kl %s på %s som vara i %d min. Lycka till och kom ihåg att ge feedback efter utförd tolkning!",
		language, place, job.Due.Format("15:04"), job.Due.Format("2006-01-02"), job.Duration)
	s.dispatcher.PushToUser(ctx, user, job, notify.TypeSessionStartRemind, text)
}

func (s *Service) sendChangedDate(ctx context.Context, job *domain.Job, customer *domain.User, oldDue time.Time, reassign reassignment) {
	subject := fmt.Sprintf("Meddelande om ändring av tolkbokning för uppdrag #%d", job.ID)
	data := map[string]any{"user": customer, "job": job, "old_time": oldDue.Format(time.DateTime)}
	s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "job-changed-date", data)
	if tr := s.changedRecipient(ctx, job, reassign); tr != nil {
		s.mail(ctx, tr.Email, tr.Name, subject, "job-changed-date", map[string]any{
			"user": tr, "job": job, "old_time": oldDue.Format(time.DateTime),
		})
	}
}

func (s *Service) sendChangedTranslator(ctx context.Context, job *domain.Job, customer *domain.User, reassign reassignment) {
	subject := fmt.Sprintf("Meddelande om tilldelning av tolkuppdrag för uppdrag #%d", job.ID)
	s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "job-changed-translator-customer", map[string]any{
		"user": customer, "job": job,
	})
	if reassign.old != nil {
		s.mail(ctx, reassign.old.Email, reassign.old.Name, subject, "job-changed-translator-old-translator", map[string]any{
			"user": reassign.old, "job": job,
		})
	}
	if reassign.current != nil {
		s.mail(ctx, reassign.current.Email, reassign.current.Name, subject, "job-changed-translator-new-translator", map[string]any{
			"user": reassign.current, "job": job,
		})
	}
}

func (s *Service) sendChangedLanguage(ctx context.Context, job *domain.Job, customer *domain.User, oldLanguage string, reassign reassignment) {
	subject := fmt.Sprintf("Meddelande om ändring av tolkbokning för uppdrag #%d", job.ID)
	data := map[string]any{"user": customer, "job": job, "old_lang": oldLanguage}
	s.mail(ctx, customerEmail(job, customer), customer.Name, subject, "job-changed-lang", data)
	if tr := s.changedRecipient(ctx, job, reassign); tr != nil {
		s.mail(ctx, tr.Email, tr.Name, subject, "job-changed-lang", map[string]any{
			"user": tr, "job": job, "old_lang": oldLanguage,
		})
	}
}

// changedRecipient picks which translator hears about a due or language
// change: the one taking over when a reassignment happened in the same
// update, otherwise whoever currently serves the job.
func (s *Service) changedRecipient(ctx context.Context, job *domain.Job, reassign reassignment) *domain.User {
	if reassign.changed {
		return reassign.current
	}
	return s.activeTranslator(ctx, job.ID)
}
