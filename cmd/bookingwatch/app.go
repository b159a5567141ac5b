package main

import (
	"fmt"
	"log/slog"

	"github.com/use-agent/bookingwatch/config"
	"github.com/use-agent/bookingwatch/engine"
	"github.com/use-agent/bookingwatch/job"
	"github.com/use-agent/bookingwatch/notify"
	"github.com/use-agent/bookingwatch/scraper"
)

// Fetch modes accepted by BOOKINGWATCH_FETCH_MODE.
const (
	modeBrowser = "browser"
	modeHTTP    = "http"
	modeAuto    = "auto"
)

// app holds the long-lived collaborators shared by every run.
type app struct {
	scraper *scraper.Scraper // nil in http mode
	fetcher engine.Engine
}

// newApp launches the browser when the fetch mode needs one and builds the
// matching engine.
func newApp(c *config.Config) (*app, error) {
	a := &app{}

	switch c.Engine.FetchMode {
	case modeHTTP:
		a.fetcher = engine.NewHTTPEngine()
	case modeBrowser, "":
		sc, err := scraper.NewScraper(c.Browser, c.Scraper)
		if err != nil {
			return nil, err
		}
		a.scraper = sc
		a.fetcher = engine.NewRodEngine(sc.Render, false)
	case modeAuto:
		sc, err := scraper.NewScraper(c.Browser, c.Scraper)
		if err != nil {
			return nil, err
		}
		a.scraper = sc
		a.fetcher = newDispatcher(c.Engine, sc.Render)
	default:
		return nil, fmt.Errorf("unknown fetch mode %q (want browser, http or auto)", c.Engine.FetchMode)
	}

	slog.Info("fetch engine ready", "mode", c.Engine.FetchMode, "engine", a.fetcher.Name())
	return a, nil
}

// newDispatcher races the HTTP engine against the plain and stealth
// browser tiers.
func newDispatcher(ec config.EngineConfig, render engine.RodFetchFunc) *engine.Dispatcher {
	engines := []engine.Engine{
		engine.NewHTTPEngine(),
		engine.NewRodEngine(render, false),
		engine.NewRodEngine(render, true),
	}
	memory := engine.NewDomainMemory(ec.DomainMemoryTTL)
	slog.Info("multi-engine dispatcher enabled",
		"engines", len(engines),
		"delays", ec.EscalationDelays,
	)
	return engine.NewDispatcher(engines, ec.EscalationDelays, memory)
}

func (a *app) close() {
	if a.scraper != nil {
		a.scraper.Close()
	}
}

// newJob wires the configured notifiers, headers and directives into a Job.
func (a *app) newJob(c *config.Config) *job.Job {
	return job.New(a.fetcher,
		job.WithNotifier(newNotifier(c)),
		job.WithHeaders(c.Scraper.Headers()),
		job.WithRedirectStatuses(c.Scraper.RedirectStatuses...),
		job.WithDirectives(directives(c.Scraper)...),
	)
}

func directives(sc config.ScraperConfig) []engine.Directive {
	d := []engine.Directive{engine.InitScript(job.NavigationLoggerScript)}
	if sc.WaitNetworkIdle {
		d = append(d, engine.WaitNetworkIdle())
	}
	return d
}

func newNotifier(c *config.Config) notify.Notifier {
	notifiers := notify.Multi{notify.NewTelegram(c.Telegram)}
	if wh := notify.NewWebhook(c.Webhook); wh != nil {
		notifiers = append(notifiers, wh)
	}
	return notifiers
}
