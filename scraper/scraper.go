package scraper

import (
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/bookingwatch/config"
	"github.com/use-agent/bookingwatch/models"
)

// launchFlags hide the automation markers booking.com checks for and stop
// Chrome from throttling a background tab while it waits for prices.
var launchFlags = map[flags.Flag][]string{
	"disable-blink-features":                 {"AutomationControlled"},
	"disable-features":                       {"AudioServiceOutOfProcess,TranslateUI"},
	"disable-background-timer-throttling":    nil,
	"disable-backgrounding-occluded-windows": nil,
	"disable-renderer-backgrounding":         nil,
	"disable-ipc-flooding-protection":        nil,
	"disable-popup-blocking":                 nil,
	"disable-prompt-on-repost":               nil,
	"disable-component-update":               nil,
	"disable-default-apps":                   nil,
	"disable-dev-shm-usage":                  nil,
	"disable-extensions":                     nil,
	"no-first-run":                           nil,
}

// Scraper owns the browser process and a bounded pool of reusable tabs.
// It is safe for concurrent use.
type Scraper struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	maxPages    int
	scraperCfg  config.ScraperConfig
	activePages atomic.Int32
}

// NewScraper launches Chrome and connects to it.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)
	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}
	for name, values := range launchFlags {
		l.Set(name, values...)
	}
	l.Delete("enable-automation")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	maxPages := browserCfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	slog.Info("page pool created", "maxPages", maxPages)

	return &Scraper{
		browser:    browser,
		pagePool:   rod.NewPagePool(maxPages),
		maxPages:   maxPages,
		scraperCfg: scraperCfg,
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.maxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := s.browser.Close(); err != nil {
		slog.Warn("closing browser failed", "error", err)
	}
	slog.Info("scraper shutdown complete")
}
