package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

const (
	dueLayout = "1/2/2006 15:04"

	// Immediate bookings start this far from the moment of creation.
	immediateLeadTime = 5 * time.Minute

	msgMissingField  = "Du måste fylla in alla fält"
	msgMustChoose    = "Du måste göra ett val här"
	msgPastDue       = "Can't create booking in the past"
	msgNotACustomer  = "Translator can not create booking"
	msgEmailReceived = "Vi har mottagit er tolkbokning. Svarsbekräftelse kommer att skickas när vi har hittat en tolk. Bokningsnr: #%d"
)

// CreateRequest carries the raw booking form. Contact-type fields are
// pointers so "not chosen" is distinguishable from "chosen no".
type CreateRequest struct {
	FromLanguageID       int64
	Immediate            bool
	DueDate              string // "1/2/2006"
	DueTime              string // "15:04"
	Duration             int
	CustomerPhoneType    *bool
	CustomerPhysicalType *bool
	JobFor               []string
}

// CreateResult echoes back what the form flow needs to render a summary.
type CreateResult struct {
	ID           int64
	Type         string // "immediate" or "regular"
	JobFor       []string
	CustomerTown string
	CustomerType string
}

// Create validates the form, derives matching attributes from job_for and the
// customer profile, and persists a pending job. Notification fan-out happens
// later, once FinalizeJob supplies the contact details.
func (s *Service) Create(ctx context.Context, user *domain.User, req CreateRequest) (*CreateResult, error) {
	if !user.IsCustomer() {
		return nil, domain.NewValidationError("", msgNotACustomer)
	}
	if req.FromLanguageID == 0 {
		return nil, domain.NewValidationError("from_language_id", msgMissingField)
	}
	if !req.Immediate {
		if req.DueDate == "" {
			return nil, domain.NewValidationError("due_date", msgMissingField)
		}
		if req.DueTime == "" {
			return nil, domain.NewValidationError("due_time", msgMissingField)
		}
		if req.CustomerPhoneType == nil && req.CustomerPhysicalType == nil {
			return nil, domain.NewValidationError("customer_phone_type", msgMustChoose)
		}
	}
	if req.Duration == 0 {
		return nil, domain.NewValidationError("duration", msgMissingField)
	}

	now := s.clock.Now()
	phone := req.CustomerPhoneType != nil && *req.CustomerPhoneType
	physical := req.CustomerPhysicalType != nil && *req.CustomerPhysicalType

	var due time.Time
	resultType := "regular"
	if req.Immediate {
		due = now.Add(immediateLeadTime)
		phone = true
		resultType = "immediate"
	} else {
		parsed, err := time.ParseInLocation(dueLayout, req.DueDate+" "+req.DueTime, now.Location())
		if err != nil {
			return nil, domain.NewValidationError("due_date", msgMissingField)
		}
		if parsed.Before(now) {
			return nil, domain.NewValidationError("due_date", msgPastDue)
		}
		due = parsed
	}

	gender, certified := deriveJobFor(req.JobFor)

	job := &domain.Job{
		UserID:               user.ID,
		FromLanguageID:       req.FromLanguageID,
		Immediate:            req.Immediate,
		Duration:             req.Duration,
		Status:               domain.StatusPending,
		Gender:               gender,
		Certified:            certified,
		Due:                  due,
		JobType:              jobTypeFor(user.Meta.ConsumerType),
		CustomerPhoneType:    phone,
		CustomerPhysicalType: physical,
		Town:                 user.Meta.Town,
		CreatedAt:            now,
		WillExpireAt:         s.expiry.WillExpireAt(due, now),
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	return &CreateResult{
		ID:           job.ID,
		Type:         resultType,
		JobFor:       displayJobFor(job),
		CustomerTown: user.Meta.Town,
		CustomerType: user.Meta.ConsumerType,
	}, nil
}

// deriveJobFor maps the job_for checkboxes onto the gender and certification
// requirements. Combined normal+specialised picks keep the broader pool.
func deriveJobFor(jobFor []string) (domain.Gender, domain.Certified) {
	var gender domain.Gender
	var certified domain.Certified
	seen := make(map[string]bool, len(jobFor))
	for _, v := range jobFor {
		seen[v] = true
	}

	switch {
	case seen["male"]:
		gender = domain.GenderMale
	case seen["female"]:
		gender = domain.GenderFemale
	}

	switch {
	case seen["normal"] && seen["certified"]:
		certified = domain.CertifiedBoth
	case seen["normal"] && seen["certified_in_law"]:
		certified = domain.CertifiedNLaw
	case seen["normal"] && seen["certified_in_health"]:
		certified = domain.CertifiedNHealth
	case seen["certified"]:
		certified = domain.CertifiedYes
	case seen["certified_in_law"]:
		certified = domain.CertifiedLaw
	case seen["certified_in_health"]:
		certified = domain.CertifiedHealth
	case seen["normal"]:
		certified = domain.CertifiedNormal
	}
	return gender, certified
}

func jobTypeFor(consumerType string) domain.JobType {
	switch consumerType {
	case "rwsconsumer":
		return domain.JobTypeRWS
	case "ngo":
		return domain.JobTypeUnpaid
	default:
		return domain.JobTypePaid
	}
}

// displayJobFor renders the stored requirements back into the labels the
// booking form shows.
func displayJobFor(job *domain.Job) []string {
	var out []string
	switch job.Gender {
	case domain.GenderMale:
		out = append(out, "Man")
	case domain.GenderFemale:
		out = append(out, "Kvinna")
	}
	switch job.Certified {
	case domain.CertifiedBoth:
		out = append(out, "normal", "certified")
	case domain.CertifiedYes:
		out = append(out, "certified")
	case "":
	default:
		out = append(out, string(job.Certified))
	}
	return out
}

// FinalizeRequest completes a freshly created booking with contact details.
type FinalizeRequest struct {
	JobID        int64
	UserEmail    string
	Reference    string
	Address      string
	Instructions string
	Town         string
}

// FinalizeJob stores the contact block, confirms the booking by mail and
// broadcasts it to every eligible translator. Empty address fields fall back
// to the customer profile.
func (s *Service) FinalizeJob(ctx context.Context, req FinalizeRequest) (*domain.Job, error) {
	job, err := s.repo.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUser(ctx, job.UserID)
	if err != nil {
		return nil, err
	}

	job.UserEmail = req.UserEmail
	job.Reference = req.Reference
	if req.Address != "" {
		job.Address = req.Address
		job.Instructions = req.Instructions
		job.Town = req.Town
	}
	if job.Address == "" {
		job.Address = user.Meta.Address
	}
	if job.Instructions == "" {
		job.Instructions = user.Meta.Instructions
	}
	if job.Town == "" {
		job.Town = user.Meta.Town
	}
	if err := s.repo.UpdateJob(ctx, job, nil); err != nil {
		return nil, fmt.Errorf("finalize job: %w", err)
	}

	subject := fmt.Sprintf("Vi har mottagit er tolkbokning. Bokningsnr: #%d", job.ID)
	s.mail(ctx, customerEmail(job, user), user.Name, subject, "job-created", map[string]any{
		"user": user,
		"job":  job,
	})

	s.broadcastToEligible(ctx, job, 0)
	return job, nil
}
