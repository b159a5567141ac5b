package engine

import (
	"context"
	"fmt"
)

// RodFetchFunc is the callback type that wraps the scraper's browser render.
// It is injected from main to avoid a circular import (engine/ -> scraper/).
type RodFetchFunc func(ctx context.Context, req *FetchRequest) (*RenderedPage, error)

// RodEngine is a browser-based engine that delegates to the rod scraper
// via a callback function. The forceStealth flag distinguishes between
// the plain (rod) and stealth (rod-stealth) tiers.
type RodEngine struct {
	fetchFunc    RodFetchFunc
	forceStealth bool
	name         string
}

// NewRodEngine creates a RodEngine.
//   - fetchFunc: callback that invokes the rod-based scraper.
//   - forceStealth: when true, the engine always sets Stealth=true on requests.
func NewRodEngine(fetchFunc RodFetchFunc, forceStealth bool) *RodEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &RodEngine{
		fetchFunc:    fetchFunc,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *RodEngine) Name() string { return e.name }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*RenderedPage, error) {
	if e.fetchFunc == nil {
		return nil, fmt.Errorf("%s: fetchFunc not configured", e.name)
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	page, err := e.fetchFunc(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	page.EngineName = e.name
	return page, nil
}
