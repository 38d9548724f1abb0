package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// SMSGateway sends one text message, best effort.
type SMSGateway interface {
	Send(ctx context.Context, toNumber, body string) error
}

// SMSTranslators texts every translator about a new booking. The message
// variant depends on the contact type: physical-only jobs mention the town,
// everything else is treated as a phone job. Returns the recipient count.
func (d *Dispatcher) SMSTranslators(ctx context.Context, translators []domain.User, job *domain.Job, fallbackTown string) int {
	city := job.Town
	if city == "" {
		city = fallbackTown
	}

	date := job.Due.Format("02.01.2006")
	clock := job.Due.Format("15:04")
	duration := MinutesToHoursMins(job.Duration)

	var message string
	if job.PhysicalOnly() {
		message = fmt.Sprintf(
			"Ny platstolkning den %s kl %s i %s som varar i %s. Bokningsnr: %d. Acceptera i appen om du vill ha uppdraget.",
			date, clock, city, duration, job.ID)
	} else {
		message = fmt.Sprintf(
			"Ny telefontolkning den %s kl %s som varar i %s. Bokningsnr: %d. Acceptera i appen om du vill ha uppdraget.",
			date, clock, duration, job.ID)
	}

	d.logger.Info("sms broadcast for job",
		slog.Int64("job_id", job.ID),
		slog.Int("recipients", len(translators)),
	)

	for _, tr := range translators {
		if err := d.sms.Send(ctx, tr.Mobile, message); err != nil {
			d.logger.Error("sms delivery failed",
				slog.Int64("job_id", job.ID),
				slog.String("email", tr.Email),
				slog.Any("error", err),
			)
			continue
		}
		d.logger.Debug("sms sent",
			slog.Int64("job_id", job.ID),
			slog.String("email", tr.Email),
		)
	}

	return len(translators)
}

// MinutesToHoursMins renders a minute count as "HHh MMmin", dropping the zero
// component.
func MinutesToHoursMins(minutes int) string {
	if minutes <= 0 {
		return "0min"
	}
	hours := minutes / 60
	mins := minutes % 60
	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%02dh %02dmin", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%02dh", hours)
	default:
		return fmt.Sprintf("%02dmin", mins)
	}
}
