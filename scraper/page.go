package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/bookingwatch/engine"
	"github.com/use-agent/bookingwatch/models"
	"github.com/ysmood/gson"
)

// navigationEntryJS reads the final status code and same-origin redirect
// count from the Navigation Timing entry. Both are 0 when unavailable.
const navigationEntryJS = `() => {
	try {
		const entries = performance.getEntriesByType("navigation");
		if (entries.length > 0) {
			return {status: entries[0].responseStatus || 0, redirects: entries[0].redirectCount || 0};
		}
	} catch(e) {}
	return {status: 0, redirects: 0};
}`

// Render loads req.URL in a pooled browser tab and returns the rendered page.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard          – optional deadline on the whole render
//  2. Acquire page           – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup         – about:blank + return to pool (leak prevention)
//  4. Stealth + init scripts – installed before navigation
//  5. Headers                – user agent + extra request headers
//  6. Hijack mount           – optional resource / ad blocking
//  7. Idle listener setup    – MUST be registered before Navigate
//  8. Navigate
//  9. Wait                   – load event, then network idle or DOM stable
//  10. Extract               – HTML, title, final URL, status, redirect count
//
// The browser follows every redirect itself, so req.RedirectStatuses only
// documents intent here; the final status is what the navigation entry
// reports after the chain settles.
func (s *Scraper) Render(ctx context.Context, req *engine.FetchRequest) (*engine.RenderedPage, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := req.Timeout
	if timeout == 0 {
		timeout = s.scraperCfg.NavigationTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 3. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	var removers []func() error
	defer func() {
		for _, remove := range removers {
			_ = remove()
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank",
				"error", navErr,
			)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Stealth injection + init scripts ───────────────────────────
	if req.Stealth {
		if remove, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		} else {
			removers = append(removers, remove)
		}
	}
	for _, d := range req.Directives {
		if d.Kind != engine.DirectiveInitScript || d.Script == "" {
			continue
		}
		remove, evalErr := page.EvalOnNewDocument(d.Script)
		if evalErr != nil {
			slog.Warn("init script injection failed", "url", req.URL, "error", evalErr)
			continue
		}
		removers = append(removers, remove)
	}

	// ── 5. Headers ────────────────────────────────────────────────────
	applyHeaders(page, req.Headers)

	// ── 6. Mount hijack router (optional resource / ad blocking) ──────
	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes, s.scraperCfg.BlockAds)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// Bind request context to page.
	p := page.Context(ctx)

	// ── 7. Set up network idle waiter BEFORE navigation ───────────────
	// WaitRequestIdle conflicts with the Fetch domain used by the hijack
	// router, so a page with blocking enabled falls back to WaitDOMStable.
	var waitIdle func()
	if req.Has(engine.DirectiveWaitNetworkIdle) && router == nil {
		waitIdle = p.WaitRequestIdle(s.idleWindow(), nil, nil, nil)
	}

	// ── 8. Navigate ───────────────────────────────────────────────────
	if navErr := p.Navigate(req.URL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	// ── 9. Wait strategy ──────────────────────────────────────────────
	if loadErr := p.WaitLoad(); loadErr != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(loadErr, "page load did not complete")
		}
		slog.Debug("WaitLoad failed, proceeding with current DOM", "url", req.URL, "error", loadErr)
	}
	if waitIdle != nil {
		waitIdle()
	} else if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}
	if err := ctx.Err(); err != nil {
		return nil, categorizeError(err, "page did not become idle")
	}

	// ── 10. Extract rendered HTML + navigation facts ──────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	var statusCode, redirects int
	if res, err := p.Eval(navigationEntryJS); err == nil {
		statusCode = res.Value.Get("status").Int()
		redirects = res.Value.Get("redirects").Int()
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.RenderedPage{
		HTML:          rawHTML,
		Title:         evalStringOrEmpty(p, `() => document.title`),
		StatusCode:    statusCode,
		FinalURL:      finalURL,
		RedirectCount: redirects,
	}, nil
}

func (s *Scraper) idleWindow() time.Duration {
	if s.scraperCfg.IdleWindow > 0 {
		return s.scraperCfg.IdleWindow
	}
	return 500 * time.Millisecond
}

// applyHeaders sets the user agent override and any remaining headers as
// extra HTTP headers on the page. Failures are logged and ignored.
func applyHeaders(page *rod.Page, headers map[string]string) {
	extra := make(map[string]string, len(headers))
	for k, v := range headers {
		extra[k] = v
	}

	if ua, ok := extra["User-Agent"]; ok {
		delete(extra, "User-Agent")
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: extra["Accept-Language"],
		}); err != nil {
			slog.Warn("failed to override user agent", "error", err)
		}
	}

	if len(extra) == 0 {
		return
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(extra)}).Call(page); err != nil {
		slog.Warn("failed to set extra headers", "error", err)
	}
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers
// can tell timeouts from navigation failures.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
