package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// SMSConfig points at the SMS provider account.
type SMSConfig struct {
	BaseURL    string        `yaml:"base_url"`
	AccountSID string        `yaml:"account_sid"`
	AuthToken  string        `yaml:"auth_token"`
	FromNumber string        `yaml:"from_number"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SMSClient sends text messages through the SMS provider's REST API. It
// satisfies notify.SMSGateway.
type SMSClient struct {
	client *resty.Client
	from   string
	sid    string
	logger *slog.Logger
}

func NewSMSClient(cfg SMSConfig, logger *slog.Logger) *SMSClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken)

	return &SMSClient{
		client: client,
		from:   cfg.FromNumber,
		sid:    cfg.AccountSID,
		logger: logger,
	}
}

func (c *SMSClient) Send(ctx context.Context, toNumber, body string) error {
	if toNumber == "" {
		return fmt.Errorf("recipient has no mobile number")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"From": c.from,
			"To":   toNumber,
			"Body": body,
		}).
		Post(fmt.Sprintf("/Accounts/%s/Messages.json", c.sid))
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms provider returned %s: %s", resp.Status(), resp.String())
	}

	c.logger.Debug("sms accepted by provider", slog.String("to", toNumber))
	return nil
}
