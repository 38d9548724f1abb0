package booking

import (
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// BroadcastData flattens a job into the wire payload carried by push
// notifications. Boolean flags ride as "yes"/"no" strings and the
// requirement fields use the Swedish display labels clients render as-is.
func BroadcastData(job *domain.Job, customer *domain.User, language string) map[string]any {
	data := map[string]any{
		"job_id":                 job.ID,
		"from_language_id":       job.FromLanguageID,
		"from_language":          language,
		"immediate":              yesNo(job.Immediate),
		"duration":               job.Duration,
		"status":                 job.Status,
		"gender":                 string(job.Gender),
		"certified":              string(job.Certified),
		"due":                    job.Due.Format(time.DateTime),
		"due_date":               job.Due.Format("2006-01-02"),
		"due_time":               job.Due.Format("15:04:05"),
		"job_type":               string(job.JobType),
		"customer_phone_type":    yesNo(job.CustomerPhoneType),
		"customer_physical_type": yesNo(job.CustomerPhysicalType),
		"customer_town":          customer.Meta.Town,
		"customer_type":          customer.Meta.ConsumerType,
	}

	var jobFor []string
	switch job.Gender {
	case domain.GenderMale:
		jobFor = append(jobFor, "Man")
	case domain.GenderFemale:
		jobFor = append(jobFor, "Kvinna")
	}
	switch job.Certified {
	case domain.CertifiedBoth:
		jobFor = append(jobFor, "Godkänd tolk", "Auktoriserad")
	case domain.CertifiedYes:
		jobFor = append(jobFor, "Auktoriserad")
	case domain.CertifiedNormal:
		jobFor = append(jobFor, "Godkänd tolk")
	case domain.CertifiedHealth, domain.CertifiedNHealth:
		jobFor = append(jobFor, "Sjukvårdstolk")
	case domain.CertifiedLaw, domain.CertifiedNLaw:
		jobFor = append(jobFor, "Rättstolk")
	case "":
	default:
		jobFor = append(jobFor, string(job.Certified))
	}
	data["job_for"] = jobFor
	return data
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
