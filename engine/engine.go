package engine

import (
	"context"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Fetch renders the page for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*RenderedPage, error)
}

// DirectiveKind enumerates the pre-navigation page directives.
type DirectiveKind string

const (
	// DirectiveInitScript injects Script into every new document before
	// any page script runs.
	DirectiveInitScript DirectiveKind = "init_script"

	// DirectiveWaitNetworkIdle holds the fetch until the page's network
	// activity has been idle for a short window.
	DirectiveWaitNetworkIdle DirectiveKind = "wait_network_idle"
)

// Directive is a page instruction applied around navigation.
type Directive struct {
	Kind   DirectiveKind
	Script string
}

// InitScript returns a directive that installs js on every new document.
func InitScript(js string) Directive {
	return Directive{Kind: DirectiveInitScript, Script: js}
}

// WaitNetworkIdle returns a directive that waits for network idle.
func WaitNetworkIdle() Directive {
	return Directive{Kind: DirectiveWaitNetworkIdle}
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool

	// Directives are applied in order; engines ignore kinds they cannot honour.
	Directives []Directive

	// RedirectStatuses lists the redirect codes that are followed. A
	// redirect with any other code becomes the final response.
	RedirectStatuses []int
}

// Has reports whether the request carries a directive of the given kind.
func (r *FetchRequest) Has(kind DirectiveKind) bool {
	for _, d := range r.Directives {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// FollowsRedirect reports whether a redirect with the given status is
// followed.
func (r *FetchRequest) FollowsRedirect(status int) bool {
	for _, s := range r.RedirectStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// RenderedPage is the outcome of fetching a target: the final URL after
// redirects, the final status code and the document content.
type RenderedPage struct {
	HTML          string
	Title         string
	StatusCode    int
	FinalURL      string
	RedirectCount int
	EngineName    string
}
