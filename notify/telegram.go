package notify

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/use-agent/bookingwatch/config"
)

// Env fallbacks read when the bot token or chat id is not configured.
const (
	EnvBotToken = "TELEGRAM_BOT_TOKEN"
	EnvChatID   = "TELEGRAM_CHAT_ID"
)

const defaultTelegramAPI = "https://api.telegram.org"

// Telegram posts messages through the Bot API sendMessage method with HTML
// parse mode.
type Telegram struct {
	client   *resty.Client
	apiBase  string
	botToken string
	chatID   string
}

// NewTelegram resolves credentials once: an explicit config value wins,
// otherwise TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID are read from the
// environment.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = defaultTelegramAPI
	}

	return &Telegram{
		client:   client,
		apiBase:  apiBase,
		botToken: firstNonEmpty(cfg.BotToken, os.Getenv(EnvBotToken)),
		chatID:   firstNonEmpty(cfg.ChatID, os.Getenv(EnvChatID)),
	}
}

// Configured reports whether both credentials are present.
func (t *Telegram) Configured() bool {
	return t.botToken != "" && t.chatID != ""
}

// Notify sends text once. Missing credentials skip the call entirely.
func (t *Telegram) Notify(ctx context.Context, text string) Result {
	if !t.Configured() {
		slog.Warn("telegram credentials not configured, skipping notification")
		return Result{Message: "telegram credentials not configured"}
	}

	res, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":    t.chatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post(t.apiBase + "/bot" + t.botToken + "/sendMessage")
	if err != nil {
		// The request URL carries the token, so only the cause is logged.
		slog.Error("error sending telegram message", "error", redact(err.Error(), t.botToken))
		return Result{Message: "telegram request failed"}
	}

	if res.StatusCode() != http.StatusOK {
		slog.Error("failed to send telegram message",
			"status", res.StatusCode(),
			"body", res.String(),
		)
		return Result{Message: "telegram returned " + res.Status()}
	}

	slog.Info("telegram message sent successfully")
	return Result{OK: true, Message: "telegram message sent"}
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "<redacted>")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
