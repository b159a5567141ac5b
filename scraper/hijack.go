package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// configToProto maps human-readable config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// trackerDomains are ad and analytics hosts that keep a booking page's
// network busy long after the price has rendered.
var trackerDomains = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"facebook.net":          {},
	"connect.facebook.net":  {},
	"bat.bing.com":          {},
	"criteo.com":            {},
	"criteo.net":            {},
	"hotjar.com":            {},
	"scorecardresearch.com": {},
	"adnxs.com":             {},
	"taboola.com":           {},
	"outbrain.com":          {},
	"consensu.org":          {},
}

// isTrackerDomain checks a hostname and each of its parent domains
// against the blocklist.
func isTrackerDomain(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := trackerDomains[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			break
		}
		host = host[idx+1:]
	}
	return false
}

// setupHijack installs a request interceptor on the page that blocks the
// configured resource types and, when blockAds is set, tracker domains.
//
// Returns the running HijackRouter so the caller can defer router.Stop().
// Returns nil if there is nothing to block.
func setupHijack(page *rod.Page, blockedTypes []string, blockAds bool) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	if len(blocked) == 0 && !blockAds {
		return nil
	}

	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to block or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, shouldBlock := blocked[ctx.Request.Type()]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		if blockAds {
			if u, err := url.Parse(ctx.Request.URL().String()); err == nil && isTrackerDomain(u.Hostname()) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}

		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	go router.Run()

	return router
}
