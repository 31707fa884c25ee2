// Package webhook delivers HMAC-signed flagged-attempt alerts to an
// external HR endpoint so suspected spoofing is surfaced outside the
// kiosk itself.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/civicworks/presence/internal/retry"
)

// EventFlagged is sent when an attempt is stored for admin review.
const EventFlagged = "attempt.flagged"

// EventPayload is the wire envelope every delivery carries.
type EventPayload struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Config points the notifier at the receiving endpoint. Secret signs
// every payload; receivers verify with the same secret.
type Config struct {
	URL    string
	Secret string
}

// deliveryRetry bounds re-delivery of one event. Alerts are
// best-effort; a receiver that stays down loses the event.
var deliveryRetry = retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second}

// Notifier posts signed event payloads to a single configured URL.
type Notifier struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewNotifier(cfg Config, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Notify signs and delivers one event, retrying transient failures.
func (n *Notifier) Notify(ctx context.Context, eventType string, data interface{}) error {
	payload, err := json.Marshal(EventPayload{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	signature := Sign(n.cfg.Secret, payload)

	err = deliveryRetry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Presence-Signature", signature)
		req.Header.Set("X-Presence-Event", eventType)
		req.Header.Set("User-Agent", "Presence-Webhook/1.0")

		resp, err := n.client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("webhook delivery failed: HTTP %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		n.logger.Error("webhook delivery gave up",
			"event", eventType,
			"url", n.cfg.URL,
			"error", err)
		return err
	}

	return nil
}
