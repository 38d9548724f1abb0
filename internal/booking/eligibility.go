package booking

import (
	"context"
	"fmt"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// translatorTypeFor maps a job's funding type onto the translator category
// allowed to serve it. An unmapped type is a data error, never a silent
// empty pool.
func translatorTypeFor(jt domain.JobType) (domain.TranslatorType, error) {
	switch jt {
	case domain.JobTypePaid:
		return domain.TranslatorProfessional, nil
	case domain.JobTypeRWS:
		return domain.TranslatorRWS, nil
	case domain.JobTypeUnpaid:
		return domain.TranslatorVolunteer, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownJobType, jt)
	}
}

// acceptableLevels widens or narrows the certification pool. A plain or
// unspecified requirement admits every level; "yes"/"both" admit only the
// certified tiers; the specialised values admit exactly one tier.
func acceptableLevels(c domain.Certified) []string {
	switch c {
	case domain.CertifiedYes, domain.CertifiedBoth:
		return []string{
			domain.LevelCertified,
			domain.LevelCertifiedLaw,
			domain.LevelCertifiedHealth,
		}
	case domain.CertifiedLaw, domain.CertifiedNLaw:
		return []string{domain.LevelCertifiedLaw}
	case domain.CertifiedHealth, domain.CertifiedNHealth:
		return []string{domain.LevelCertifiedHealth}
	default:
		return []string{
			domain.LevelCertified,
			domain.LevelCertifiedLaw,
			domain.LevelCertifiedHealth,
			domain.LevelLayman,
			domain.LevelReadCourses,
		}
	}
}

// EligibleTranslators resolves the full candidate pool for a job: matching
// type, language, gender and level, minus the customer's blacklist, and, for
// on-site bookings, only translators covering the job's town.
func (s *Service) EligibleTranslators(ctx context.Context, job *domain.Job) ([]domain.User, error) {
	ttype, err := translatorTypeFor(job.JobType)
	if err != nil {
		return nil, err
	}
	excluded, err := s.repo.Blacklist(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("load blacklist: %w", err)
	}

	candidates, err := s.repo.EligibleTranslators(ctx, Criteria{
		TranslatorType: ttype,
		LanguageID:     job.FromLanguageID,
		Gender:         job.Gender,
		Levels:         acceptableLevels(job.Certified),
		ExcludeUserIDs: excluded,
	})
	if err != nil {
		return nil, fmt.Errorf("query translators: %w", err)
	}

	if !job.PhysicalOnly() {
		return candidates, nil
	}
	out := candidates[:0]
	for _, tr := range candidates {
		if tr.CoversTown(job.Town) {
			out = append(out, tr)
		}
	}
	return out, nil
}

// broadcastToEligible pushes a job announcement to every eligible translator
// except excludeUserID. Returns how many deliveries were attempted.
func (s *Service) broadcastToEligible(ctx context.Context, job *domain.Job, excludeUserID int64) int {
	translators, err := s.EligibleTranslators(ctx, job)
	if err != nil {
		s.logger.Error("resolve eligible translators failed", "job_id", job.ID, "error", err)
		return 0
	}
	filtered := translators[:0]
	for _, tr := range translators {
		if tr.ID == excludeUserID {
			continue
		}
		// The emergency opt-out only covers short-notice work.
		if job.Immediate && tr.Meta.NotGetEmergency {
			continue
		}
		filtered = append(filtered, tr)
	}
	if len(filtered) == 0 {
		return 0
	}

	language := s.languageName(ctx, job.FromLanguageID)
	customer, err := s.repo.GetUser(ctx, job.UserID)
	if err != nil {
		s.logger.Error("load customer failed", "job_id", job.ID, "error", err)
		return 0
	}
	sent := s.dispatcher.NotifyTranslators(ctx, filtered, job, language, BroadcastData(job, customer, language))
	s.dispatcher.SMSTranslators(ctx, filtered, job, customer.Meta.Town)
	return sent
}

func (s *Service) languageName(ctx context.Context, id int64) string {
	name, err := s.repo.LanguageName(ctx, id)
	if err != nil {
		s.logger.Error("resolve language failed", "language_id", id, "error", err)
		return ""
	}
	return name
}
