package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tolkmarket/booking-be/internal/notify"
	"github.com/tolkmarket/booking-be/shared/rabbitmq"
)

// Publisher hands notifications to the delivery queue instead of calling the
// push provider inline, so a slow provider never stalls a booking mutation.
// It satisfies notify.Gateway.
type Publisher struct {
	rabbit *rabbitmq.Client
	logger *slog.Logger
}

func NewPublisher(rabbit *rabbitmq.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		rabbit: rabbit,
		logger: logger,
	}
}

func (p *Publisher) Deliver(ctx context.Context, n notify.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := p.rabbit.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	p.logger.Debug("notification enqueued",
		slog.Int("body_size", len(body)),
	)
	return nil
}
