package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/bookingwatch/config"
)

func TestTelegram_PostsFormAndSucceedsOn200(t *testing.T) {
	var (
		gotPath string
		gotForm map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "123:abc", ChatID: "42", APIBase: srv.URL + "/"})
	res := tg.Notify(context.Background(), "<b>hi</b> & bye")

	assert.True(t, res.OK)
	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, map[string]string{
		"chat_id":    "42",
		"text":       "<b>hi</b> & bye",
		"parse_mode": "HTML",
	}, gotForm)
}

func TestTelegram_Non200IsNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "t", ChatID: "c", APIBase: srv.URL})
	res := tg.Notify(context.Background(), "text")

	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "400")
}

func TestTelegram_TransportErrorIsNotOK(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "secret-token", ChatID: "c", APIBase: base})
	res := tg.Notify(context.Background(), "text")

	assert.False(t, res.OK)
	assert.NotContains(t, res.Message, "secret-token")
}

func TestTelegram_MissingCredentialsSkipsCall(t *testing.T) {
	t.Setenv(EnvBotToken, "")
	t.Setenv(EnvChatID, "")

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "only-token", APIBase: srv.URL})
	res := tg.Notify(context.Background(), "text")

	assert.False(t, tg.Configured())
	assert.False(t, res.OK)
	assert.Zero(t, calls.Load())
}

func TestTelegram_FallsBackToEnvironment(t *testing.T) {
	t.Setenv(EnvBotToken, "env-token")
	t.Setenv(EnvChatID, "env-chat")

	tg := NewTelegram(config.TelegramConfig{ChatID: "explicit-chat"})

	assert.True(t, tg.Configured())
	assert.Equal(t, "env-token", tg.botToken)
	assert.Equal(t, "explicit-chat", tg.chatID)
	assert.Equal(t, defaultTelegramAPI, tg.apiBase)
}
