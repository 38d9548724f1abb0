// Package notify decides who gets pushed about a booking, when, and with what
// payload. Actual delivery is a collaborator; nothing here retries or blocks
// a booking mutation on transport success.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// Notification types carried in the push payload.
const (
	TypeSuitableJob        = "suitable_job"
	TypeJobAccepted        = "job_accepted"
	TypeJobExpired         = "job_expired"
	TypeJobCanceled        = "job_cancel"
	TypeSessionStartRemind = "session_start_remind"
)

// Notification is the provider-agnostic push message handed to the gateway.
type Notification struct {
	Tags         []TagCondition    `json:"tags"`
	Data         map[string]any    `json:"data"`
	Title        string            `json:"title"`
	Contents     map[string]string `json:"contents"`
	AndroidSound string            `json:"android_sound"`
	IOSSound     string            `json:"ios_sound"`
	SendAfter    *time.Time        `json:"send_after,omitempty"`
}

// TagCondition is one element of the provider targeting expression. Email
// conditions are joined with explicit OR operator elements.
type TagCondition struct {
	Key      string `json:"key,omitempty"`
	Relation string `json:"relation,omitempty"`
	Value    string `json:"value,omitempty"`
	Operator string `json:"operator,omitempty"`
}

// Gateway delivers one notification, best effort. The dispatcher never
// retries a failed delivery.
type Gateway interface {
	Deliver(ctx context.Context, n Notification) error
}

// Clock abstracts time for night-window checks.
type Clock interface {
	Now() time.Time
}

// Dispatcher partitions recipients into immediate and delayed delivery and
// shapes the push payload. It returns how many recipients were attempted;
// transport failures are logged and swallowed.
type Dispatcher struct {
	gateway  Gateway
	sms      SMSGateway
	clock    Clock
	schedule Schedule
	logger   *slog.Logger
	title    string
}

// NewDispatcher wires a dispatcher. title is the push headline shown by the
// provider (the product name).
func NewDispatcher(gateway Gateway, sms SMSGateway, clock Clock, logger *slog.Logger, title string) *Dispatcher {
	return &Dispatcher{
		gateway:  gateway,
		sms:      sms,
		clock:    clock,
		schedule: Schedule{},
		logger:   logger,
		title:    title,
	}
}

// NotifyTranslators pushes a new-booking notification to every translator in
// the list, splitting the recipients into an immediate and a delayed batch.
// data is the broadcast payload describing the job.
func (d *Dispatcher) NotifyTranslators(ctx context.Context, translators []domain.User, job *domain.Job, language string, data map[string]any) int {
	if len(translators) == 0 {
		return 0
	}

	var text string
	if job.Immediate {
		text = fmt.Sprintf("Ny akutbokning för %s tolk %dmin", language, job.Duration)
	} else {
		text = fmt.Sprintf("Ny bokning för %s tolk %dmin %s", language, job.Duration, job.Due.Format("2006-01-02 15:04:05"))
	}

	now := d.clock.Now()
	var immediate, delayed []domain.User
	for _, tr := range translators {
		if d.needDelay(&tr, now) {
			delayed = append(delayed, tr)
		} else {
			immediate = append(immediate, tr)
		}
	}

	d.logger.Info("push broadcast for job",
		slog.Int64("job_id", job.ID),
		slog.Int("immediate_recipients", len(immediate)),
		slog.Int("delayed_recipients", len(delayed)),
	)

	d.send(ctx, immediate, job, TypeSuitableJob, text, data, nil)
	if len(delayed) > 0 {
		after := d.schedule.NextBusinessTime(now)
		d.send(ctx, delayed, job, TypeSuitableJob, text, data, &after)
	}

	return len(immediate) + len(delayed)
}

// PushToUser sends a single-recipient push, honoring the user's opt-out and
// night-delay preferences. Returns whether a delivery was attempted.
func (d *Dispatcher) PushToUser(ctx context.Context, user *domain.User, job *domain.Job, notificationType, text string) bool {
	if user.Meta.NotGetNotification {
		return false
	}

	var after *time.Time
	now := d.clock.Now()
	if d.needDelay(user, now) {
		t := d.schedule.NextBusinessTime(now)
		after = &t
	}

	d.send(ctx, []domain.User{*user}, job, notificationType, text, nil, after)
	return true
}

func (d *Dispatcher) needDelay(user *domain.User, now time.Time) bool {
	return d.schedule.IsNight(now) && user.Meta.NotGetNighttime
}

// send builds and fires one gateway delivery for a recipient partition.
func (d *Dispatcher) send(ctx context.Context, users []domain.User, job *domain.Job, notificationType, text string, data map[string]any, after *time.Time) {
	if len(users) == 0 {
		return
	}

	payload := map[string]any{
		"job_id":            job.ID,
		"notification_type": notificationType,
	}
	for k, v := range data {
		payload[k] = v
	}

	androidSound, iosSound := sounds(notificationType, job.Immediate)

	n := Notification{
		Tags:         UserTags(users),
		Data:         payload,
		Title:        d.title,
		Contents:     map[string]string{"en": text},
		AndroidSound: androidSound,
		IOSSound:     iosSound,
		SendAfter:    after,
	}

	if err := d.gateway.Deliver(ctx, n); err != nil {
		d.logger.Error("push delivery failed",
			slog.Int64("job_id", job.ID),
			slog.String("notification_type", notificationType),
			slog.Int("recipients", len(users)),
			slog.Any("error", err),
		)
		return
	}

	d.logger.Debug("push delivered",
		slog.Int64("job_id", job.ID),
		slog.String("notification_type", notificationType),
		slog.Int("recipients", len(users)),
		slog.Bool("delayed", after != nil),
	)
}

// UserTags builds the provider targeting expression matching any of the
// recipients by case-normalized email.
func UserTags(users []domain.User) []TagCondition {
	tags := make([]TagCondition, 0, len(users)*2-1)
	for i, u := range users {
		if i > 0 {
			tags = append(tags, TagCondition{Operator: "OR"})
		}
		tags = append(tags, TagCondition{
			Key:      "email",
			Relation: "=",
			Value:    strings.ToLower(u.Email),
		})
	}
	return tags
}

func sounds(notificationType string, immediate bool) (android, ios string) {
	if notificationType != TypeSuitableJob {
		return "default", "default"
	}
	if immediate {
		return "emergency_booking", "emergency_booking.mp3"
	}
	return "normal_booking", "normal_booking.mp3"
}
