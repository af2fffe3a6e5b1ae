// Package notify delivers operational alerts to a chat webhook.
// Delivery is best-effort: callers fire-and-forget and log failures.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notifier is the notification sink consumed by admin-facing actions.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Webhook posts JSON messages to a chat webhook URL.
type Webhook struct {
	url   string
	httpc *http.Client
}

// NewWebhook creates a webhook notifier.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:   url,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts {"text": ...} to the webhook.
func (w *Webhook) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// Nop is a no-op notifier used when no webhook is configured.
type Nop struct{}

// Notify discards the message.
func (Nop) Notify(ctx context.Context, text string) error { return nil }
