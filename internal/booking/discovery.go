package booking

import (
	"context"
	"fmt"
	"sort"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

const (
	msgNotATranslator = "Only translators can browse potential bookings"

	// History pages default to the size the mobile apps request.
	historyPageSize = 15
)

var (
	openJobStatuses = []string{
		domain.StatusPending,
		domain.StatusAssigned,
		domain.StatusStarted,
	}
	historyJobStatuses = []string{
		domain.StatusCompleted,
		domain.StatusWithdrawBefore24,
		domain.StatusWithdrawAfter24,
		domain.StatusTimedOut,
	}
)

// jobTypeForTranslator is the inverse of translatorTypeFor: the funding type
// a translator category serves. Anything unrecognised falls back to unpaid
// work.
func jobTypeForTranslator(tt domain.TranslatorType) domain.JobType {
	switch tt {
	case domain.TranslatorProfessional:
		return domain.JobTypePaid
	case domain.TranslatorRWS:
		return domain.JobTypeRWS
	default:
		return domain.JobTypeUnpaid
	}
}

// admittedRequirements is the inverse of acceptableLevels: the certification
// requirements a translator at the given level satisfies.
func admittedRequirements(level string) []domain.Certified {
	base := []domain.Certified{domain.CertifiedNone, domain.CertifiedNormal}
	switch level {
	case domain.LevelCertified:
		return append(base, domain.CertifiedYes, domain.CertifiedBoth)
	case domain.LevelCertifiedLaw:
		return append(base, domain.CertifiedYes, domain.CertifiedBoth,
			domain.CertifiedLaw, domain.CertifiedNLaw)
	case domain.LevelCertifiedHealth:
		return append(base, domain.CertifiedYes, domain.CertifiedBoth,
			domain.CertifiedHealth, domain.CertifiedNHealth)
	default:
		return base
	}
}

// PotentialJobs lists the pending bookings a translator could accept right
// now: matching funding type, language, gender preference and certification
// requirement, minus customers who blacklisted the translator. On-site-only
// bookings outside the translator's towns are dropped, mirroring the
// broadcast filter.
func (s *Service) PotentialJobs(ctx context.Context, translatorID int64) ([]domain.Job, error) {
	user, err := s.repo.GetUser(ctx, translatorID)
	if err != nil {
		return nil, err
	}
	if !user.IsTranslator() {
		return nil, domain.NewValidationError("user_id", msgNotATranslator)
	}

	genders := []domain.Gender{domain.GenderNone}
	if user.Meta.Gender != "" {
		genders = append(genders, user.Meta.Gender)
	}
	jobs, err := s.repo.PotentialJobs(ctx, JobCriteria{
		TranslatorID: user.ID,
		JobType:      jobTypeForTranslator(user.Meta.TranslatorType),
		LanguageIDs:  user.Meta.Languages,
		Genders:      genders,
		Certified:    admittedRequirements(user.Meta.TranslatorLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("query potential jobs: %w", err)
	}

	out := jobs[:0]
	for _, job := range jobs {
		if job.PhysicalOnly() && !user.CoversTown(job.Town) {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

// UserJobs is a caller's open bookings grouped the way the apps render them:
// immediate bookings first, then the scheduled ones in due order.
type UserJobs struct {
	UserType  domain.Role
	Emergency []domain.Job
	Normal    []domain.Job
}

// UserJobs returns the caller's pending, assigned and started bookings. A
// customer sees the bookings they created, a translator the ones they serve.
func (s *Service) UserJobs(ctx context.Context, userID int64) (*UserJobs, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	filter := JobFilter{Statuses: openJobStatuses}
	if user.IsTranslator() {
		filter.TranslatorID = user.ID
	} else {
		filter.CustomerID = user.ID
	}
	jobs, err := s.repo.ListJobs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list user jobs: %w", err)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Due.Before(jobs[j].Due) })

	result := &UserJobs{UserType: user.Role}
	for _, job := range jobs {
		if job.Immediate {
			result.Emergency = append(result.Emergency, job)
		} else {
			result.Normal = append(result.Normal, job)
		}
	}
	return result, nil
}

// UserJobsHistory returns one page of the caller's finished bookings.
func (s *Service) UserJobsHistory(ctx context.Context, userID int64, f JobFilter) ([]domain.Job, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	f.Statuses = historyJobStatuses
	if user.IsTranslator() {
		f.TranslatorID = user.ID
	} else {
		f.CustomerID = user.ID
	}
	if f.PageSize <= 0 {
		f.PageSize = historyPageSize
	}
	return s.repo.ListJobs(ctx, f)
}
