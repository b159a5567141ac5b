package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/use-agent/bookingwatch/config"
)

// SignatureHeader carries the HMAC-SHA256 of the request body when a
// secret is configured.
const SignatureHeader = "X-Bookingwatch-Signature"

// EventNotification is the event type of every webhook payload.
const EventNotification = "booking.notification"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string    `json:"type"`
	JobID     string    `json:"job_id"`
	Timestamp int64     `json:"timestamp"`
	Data      EventData `json:"data"`
}

// EventData holds the composed message.
type EventData struct {
	Text string `json:"text"`
}

// Webhook posts each message as a signed JSON event.
type Webhook struct {
	client *resty.Client
	url    string
	secret string
}

// NewWebhook returns nil when no URL is configured.
func NewWebhook(cfg config.WebhookConfig) *Webhook {
	if cfg.URL == "" {
		return nil
	}
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "Bookingwatch-Webhook/1.0")
	return &Webhook{client: client, url: cfg.URL, secret: cfg.Secret}
}

// Notify delivers a single event. There is no retry.
func (w *Webhook) Notify(ctx context.Context, text string) Result {
	event := &Event{
		Type:      EventNotification,
		JobID:     uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Data:      EventData{Text: text},
	}

	if err := w.deliver(ctx, event); err != nil {
		slog.Warn("webhook delivery failed",
			"url", w.url,
			"event", event.Type,
			"job_id", event.JobID,
			"error", err,
		)
		return Result{Message: err.Error()}
	}

	slog.Info("webhook delivered",
		"url", w.url,
		"event", event.Type,
		"job_id", event.JobID,
	)
	return Result{OK: true, Message: "webhook delivered"}
}

func (w *Webhook) deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if w.secret != "" {
		req.SetHeader(SignatureHeader, "sha256="+Sign(w.secret, body))
	}

	res, err := req.Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	if res.StatusCode() >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", res.StatusCode())
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
