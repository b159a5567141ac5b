package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/share", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hop", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hotel", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/hotel", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Hotel Example</title></head><body>ok</body></html>`))
	})
	mux.HandleFunc("/temporary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Location", "/hotel")
		w.WriteHeader(http.StatusTemporaryRedirect)
		_, _ = w.Write([]byte(`<html><body>moved</body></html>`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPEngine_FollowsAllowedRedirects(t *testing.T) {
	srv := redirectServer(t)

	page, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{
		URL:              srv.URL + "/share",
		RedirectStatuses: []int{301, 302},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, srv.URL+"/hotel", page.FinalURL)
	assert.Equal(t, 2, page.RedirectCount)
	assert.Equal(t, "Hotel Example", page.Title)
	assert.Equal(t, "http", page.EngineName)
}

func TestHTTPEngine_StopsOnRedirectOutsideAllowlist(t *testing.T) {
	srv := redirectServer(t)

	page, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{
		URL:              srv.URL + "/temporary",
		RedirectStatuses: []int{301, 302},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTemporaryRedirect, page.StatusCode)
	assert.Equal(t, srv.URL+"/temporary", page.FinalURL)
	assert.Zero(t, page.RedirectCount)
}

func TestHTTPEngine_EmptyAllowlistFollowsEverything(t *testing.T) {
	srv := redirectServer(t)

	page, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/temporary"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, srv.URL+"/hotel", page.FinalURL)
	assert.Equal(t, 1, page.RedirectCount)
}

func TestHTTPEngine_Failures(t *testing.T) {
	srv := redirectServer(t)
	eng := NewHTTPEngine()

	for _, path := range []string{"/gone", "/json"} {
		t.Run(path, func(t *testing.T) {
			_, err := eng.Fetch(context.Background(), &FetchRequest{URL: srv.URL + path})
			assert.Error(t, err)
		})
	}
}

func TestFetchRequest_Directives(t *testing.T) {
	req := &FetchRequest{Directives: []Directive{InitScript("1"), WaitNetworkIdle()}}

	assert.True(t, req.Has(DirectiveWaitNetworkIdle))
	assert.True(t, req.Has(DirectiveInitScript))
	assert.False(t, (&FetchRequest{}).Has(DirectiveWaitNetworkIdle))
}
