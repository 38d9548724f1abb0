package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// MailerConfig points at the transactional mail API.
type MailerConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	FromEmail string        `yaml:"from_email"`
	FromName  string        `yaml:"from_name"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MailClient sends templated mail through the mail provider's REST API. It
// satisfies booking.Mailer.
type MailClient struct {
	client    *resty.Client
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

func NewMailClient(cfg MailerConfig, logger *slog.Logger) *MailClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &MailClient{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

type mailRequest struct {
	FromEmail string         `json:"from_email"`
	FromName  string         `json:"from_name"`
	ToEmail   string         `json:"to_email"`
	ToName    string         `json:"to_name"`
	Subject   string         `json:"subject"`
	Template  string         `json:"template"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (c *MailClient) Send(ctx context.Context, toEmail, toName, subject, template string, data map[string]any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(mailRequest{
			FromEmail: c.fromEmail,
			FromName:  c.fromName,
			ToEmail:   toEmail,
			ToName:    toName,
			Subject:   subject,
			Template:  template,
			Variables: data,
		}).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail provider returned %s: %s", resp.Status(), resp.String())
	}

	c.logger.Debug("mail accepted by provider",
		slog.String("to", toEmail),
		slog.String("template", template),
	)
	return nil
}
