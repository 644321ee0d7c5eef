package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookNotifier POSTs events as JSON to a fixed URL.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	c := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &WebhookNotifier{client: c, url: url}
}

// NotifyMilestone fails on transport errors and non-2xx responses.
func (w *WebhookNotifier) NotifyMilestone(ctx context.Context, event MilestoneEvent) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(&event).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
