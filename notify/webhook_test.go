package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/bookingwatch/config"
)

func TestWebhook_SignsPayload(t *testing.T) {
	var (
		body []byte
		sig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		sig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(config.WebhookConfig{URL: srv.URL, Secret: "s3cret"})
	require.NotNil(t, wh)

	res := wh.Notify(context.Background(), "price update")
	require.True(t, res.OK)

	var event Event
	require.NoError(t, json.Unmarshal(body, &event))
	assert.Equal(t, EventNotification, event.Type)
	assert.Equal(t, "price update", event.Data.Text)
	assert.NotEmpty(t, event.JobID)
	assert.Equal(t, "sha256="+Sign("s3cret", body), sig)
}

func TestWebhook_NoSecretNoSignature(t *testing.T) {
	var sig = "unset"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get(SignatureHeader)
	}))
	defer srv.Close()

	res := NewWebhook(config.WebhookConfig{URL: srv.URL}).Notify(context.Background(), "x")

	assert.True(t, res.OK)
	assert.Empty(t, sig)
}

func TestWebhook_ErrorStatusIsNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res := NewWebhook(config.WebhookConfig{URL: srv.URL}).Notify(context.Background(), "x")

	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "502")
}

func TestNewWebhook_DisabledWithoutURL(t *testing.T) {
	assert.Nil(t, NewWebhook(config.WebhookConfig{Secret: "s"}))
}
