package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/bookingwatch/config"
	"github.com/use-agent/bookingwatch/engine"
	"github.com/use-agent/bookingwatch/job"
	"github.com/use-agent/bookingwatch/models"
	"github.com/use-agent/bookingwatch/notify"
)

func bookingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Share-abc", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hotel/aurora.html", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/hotel/aurora.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
			<h2 class="d2fee87262 pp-header__title">Aurora</h2>
			<span class="prco-price"> € 90 </span>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestCmd(out, errOut *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetContext(context.Background())
	return cmd
}

func TestRunTargets_JSONLines(t *testing.T) {
	srv := bookingServer(t)
	j := job.New(engine.NewHTTPEngine(), job.WithNotifier(notify.Nop{}))

	var out, errOut bytes.Buffer
	err := runTargets(newTestCmd(&out, &errOut), j, []string{srv.URL + "/Share-abc"}, "json")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "€ 90", got["price"])
	assert.Equal(t, srv.URL+"/hotel/aurora.html", got["url"])
	assert.EqualValues(t, 200, got["status"])
}

func TestRunTargets_FailureExitsNonZero(t *testing.T) {
	srv := bookingServer(t)
	j := job.New(engine.NewHTTPEngine())

	var out, errOut bytes.Buffer
	err := runTargets(newTestCmd(&out, &errOut),
		j, []string{srv.URL + "/missing", srv.URL + "/Share-abc"}, "table")

	require.ErrorIs(t, err, errTargetsFailed)
	assert.Contains(t, errOut.String(), "/missing")
	assert.Contains(t, out.String(), "Aurora")
	assert.Contains(t, out.String(), "€ 90")
}

func TestRenderTable_AbsentFields(t *testing.T) {
	var out bytes.Buffer
	renderTable(&out, []*models.JobResult{{URL: "https://t/1", Status: 200}})

	assert.Contains(t, out.String(), "https://t/1")
	assert.Contains(t, out.String(), "-")
}

func TestDirectives(t *testing.T) {
	d := directives(config.ScraperConfig{WaitNetworkIdle: true})
	req := &engine.FetchRequest{Directives: d}
	assert.True(t, req.Has(engine.DirectiveInitScript))
	assert.True(t, req.Has(engine.DirectiveWaitNetworkIdle))

	req.Directives = directives(config.ScraperConfig{})
	assert.False(t, req.Has(engine.DirectiveWaitNetworkIdle))
}

func TestNewApp_HTTPModeNeedsNoBrowser(t *testing.T) {
	a, err := newApp(&config.Config{Engine: config.EngineConfig{FetchMode: modeHTTP}})
	require.NoError(t, err)
	defer a.close()

	assert.Nil(t, a.scraper)
	assert.Equal(t, "http", a.fetcher.Name())
}

func TestNewApp_UnknownMode(t *testing.T) {
	_, err := newApp(&config.Config{Engine: config.EngineConfig{FetchMode: "carrier-pigeon"}})
	assert.Error(t, err)
}
