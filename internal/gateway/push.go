package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tolkmarket/booking-be/internal/notify"
)

// PushConfig points at the push provider application.
type PushConfig struct {
	BaseURL string        `yaml:"base_url"`
	AppID   string        `yaml:"app_id"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// PushClient delivers notifications through the push provider's REST API.
// It satisfies notify.Gateway.
type PushClient struct {
	client *resty.Client
	appID  string
	logger *slog.Logger
}

func NewPushClient(cfg PushConfig, logger *slog.Logger) *PushClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Basic "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &PushClient{
		client: client,
		appID:  cfg.AppID,
		logger: logger,
	}
}

type pushRequest struct {
	AppID        string                `json:"app_id"`
	Filters      []notify.TagCondition `json:"filters"`
	Data         map[string]any        `json:"data"`
	Headings     map[string]string     `json:"headings"`
	Contents     map[string]string     `json:"contents"`
	AndroidSound string                `json:"android_sound,omitempty"`
	IOSSound     string                `json:"ios_sound,omitempty"`
	SendAfter    string                `json:"send_after,omitempty"`
}

// Deliver posts one notification. The provider handles the actual fan-out to
// every device matching the tag filters.
func (c *PushClient) Deliver(ctx context.Context, n notify.Notification) error {
	req := pushRequest{
		AppID:        c.appID,
		Filters:      n.Tags,
		Data:         n.Data,
		Headings:     map[string]string{"en": n.Title},
		Contents:     n.Contents,
		AndroidSound: n.AndroidSound,
		IOSSound:     n.IOSSound,
	}
	if n.SendAfter != nil {
		req.SendAfter = n.SendAfter.Format(time.RFC3339)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/notifications")
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("push provider returned %s: %s", resp.Status(), resp.String())
	}

	c.logger.Debug("push delivered",
		slog.Int("filters", len(n.Tags)),
		slog.String("status", resp.Status()),
	)
	return nil
}
