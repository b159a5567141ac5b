package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"
)

// Dispatcher races engine tiers with staged start delays: the cheapest
// tier starts at once and heavier tiers join only if nothing has succeeded
// by their delay. The winner is remembered per host.
type Dispatcher struct {
	engines []Engine
	delays  []time.Duration
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines[i] starts delays[i] after the
// race begins; missing delays mean an immediate start.
func NewDispatcher(engines []Engine, delays []time.Duration, memory *DomainMemory) *Dispatcher {
	d := make([]time.Duration, len(engines))
	copy(d, delays)
	return &Dispatcher{engines: engines, delays: d, memory: memory}
}

// Name identifies the dispatcher when it stands in for a single engine.
func (d *Dispatcher) Name() string { return "auto" }

// Fetch implements Engine.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*RenderedPage, error) {
	return d.Dispatch(ctx, req)
}

// Dispatch tries the engine remembered for the request's host first and
// falls back to a full race. When every engine fails, the error of the
// last one to finish is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*RenderedPage, error) {
	if len(d.engines) == 0 {
		return nil, errors.New("dispatcher: no engines configured")
	}
	host := hostOf(req.URL)

	if eng := d.remembered(host); eng != nil {
		page, err := eng.Fetch(ctx, req)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		slog.Info("remembered engine failed, running full race",
			"host", host, "engine", eng.Name(), "error", err)
		d.memory.Delete(host)
	}

	return d.race(ctx, req, host)
}

func (d *Dispatcher) remembered(host string) Engine {
	if d.memory == nil {
		return nil
	}
	name := d.memory.Get(host)
	if name == "" {
		return nil
	}
	for _, eng := range d.engines {
		if eng.Name() == name {
			slog.Debug("domain memory hit", "host", host, "engine", name)
			return eng
		}
	}
	return nil
}

type outcome struct {
	page *RenderedPage
	err  error
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, host string) (*RenderedPage, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so losing tiers never block after the race is decided.
	outcomes := make(chan outcome, len(d.engines))
	started := 0
	start := func(e Engine) {
		started++
		slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
		go func() {
			page, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			outcomes <- outcome{page: page, err: err}
		}()
	}

	next := 0
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C
	launchDue := func() {
		for next < len(d.engines) && d.delays[next] <= 0 {
			start(d.engines[next])
			next++
		}
	}
	armNext := func(elapsed time.Duration) {
		if next < len(d.engines) {
			timer.Reset(max(d.delays[next]-elapsed, 0))
		}
	}

	begin := time.Now()
	launchDue()
	armNext(0)

	var lastErr error
	finished := 0
	for finished < len(d.engines) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timer.C:
			start(d.engines[next])
			next++
			// Later tiers may share the same delay.
			elapsed := time.Since(begin)
			for next < len(d.engines) && d.delays[next] <= elapsed {
				start(d.engines[next])
				next++
			}
			armNext(elapsed)

		case o := <-outcomes:
			finished++
			if o.err == nil {
				slog.Info("engine won race", "engine", o.page.EngineName, "url", req.URL)
				if d.memory != nil {
					d.memory.Set(host, o.page.EngineName)
				}
				return o.page, nil
			}
			lastErr = o.err
			// Everything launched so far failed: escalate now instead of
			// waiting out the next delay.
			if finished == started && next < len(d.engines) {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				start(d.engines[next])
				next++
				armNext(time.Since(begin))
			}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("dispatcher: all engines failed for " + req.URL)
	}
	return nil, lastErr
}

// hostOf returns the hostname of rawURL, or rawURL itself when it does not
// parse.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
