// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package alert monitors device liveness. The watchdog tracks the feeder's
// check-in deadline and raises an alert when the device goes quiet; alerts
// go to the log and, when configured, to a webhook.
package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Notifier delivers an outage alert out of process.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// WebhookNotifier POSTs alerts as JSON to a configured URL. The payload is
// intentionally generic so any relay (IFTTT, ntfy, a chat hook) can consume
// it.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier posting to the given URL.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Notify delivers one alert. Failures are returned to the caller; the
// watchdog logs them and moves on, it never retries a stale alert.
func (n *WebhookNotifier) Notify(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{
		"message": message,
		"at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}
