package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/bookingwatch/models"
)

func strPtr(s string) *string { return &s }

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestCheckPrices(t *testing.T) {
	var got models.RunRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/runs", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.RunResponse{
			RunID: "run-1",
			Results: []*models.JobResult{{
				Price:     strPtr("€ 90"),
				URL:       "https://www.booking.com/hotel/aurora.html",
				Status:    200,
				HotelName: strPtr("Aurora"),
			}},
			Errors: []models.TargetError{{Target: "https://t/2", Code: models.ErrCodeTimeout, Message: "timed out"}},
		})
	}))
	defer srv.Close()

	handler := handleCheckPrices(newClient(srv.URL, "k"))
	res, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "check_prices",
			Arguments: map[string]any{"urls": []any{"https://t/1", "https://t/2"}},
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Equal(t, []string{"https://t/1", "https://t/2"}, got.Targets)
	text := textOf(t, res)
	assert.Contains(t, text, "Run run-1: 1 checked, 1 failed")
	assert.Contains(t, text, "Hotel: Aurora")
	assert.Contains(t, text, "Price: € 90")
	assert.Contains(t, text, "FAILED https://t/2: [SCRAPE_TIMEOUT] timed out")
}

func TestCheckPrices_Busy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(models.RunResponse{
			Error: &models.ErrorDetail{Code: models.ErrCodeBusy, Message: "a run is already in progress"},
		})
	}))
	defer srv.Close()

	res, err := handleCheckPrices(newClient(srv.URL, "k"))(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), models.ErrCodeBusy)
}

func TestLatestPrices(t *testing.T) {
	checked := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.ResultsResponse{Results: []models.ResultSnapshot{{
			Target:    "https://t/1",
			Result:    &models.JobResult{URL: "https://t/1/final", Status: 200},
			CheckedAt: checked,
		}}})
	}))
	defer srv.Close()

	res, err := handleLatestPrices(newClient(srv.URL, "k"))(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	text := textOf(t, res)
	assert.Contains(t, text, "Checked: 2024-05-01T09:00:00Z")
	assert.Contains(t, text, "Price: not found")
	assert.Contains(t, text, "URL: https://t/1/final (status 200)")
}

func TestLatestPrices_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	res, err := handleLatestPrices(newClient(srv.URL, "k"))(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "No results recorded yet")
}
