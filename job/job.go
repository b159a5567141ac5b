// Package job runs the fetch, extract and notify pass over a set of
// booking targets.
package job

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"
	"github.com/use-agent/bookingwatch/engine"
	"github.com/use-agent/bookingwatch/extract"
	"github.com/use-agent/bookingwatch/models"
	"github.com/use-agent/bookingwatch/notify"
)

// NavigationLoggerScript logs each page unload to the browser console so
// redirect hops show up in the browser's own log.
const NavigationLoggerScript = `window.addEventListener('beforeunload', function(e) {
	console.log('Navigating away from page:', window.location.href);
});`

// DefaultRedirectStatuses are the redirect codes followed when none are
// configured.
var DefaultRedirectStatuses = []int{301, 302}

// DefaultDirectives returns the directives applied to every navigation
// unless overridden.
func DefaultDirectives() []engine.Directive {
	return []engine.Directive{
		engine.InitScript(NavigationLoggerScript),
		engine.WaitNetworkIdle(),
	}
}

// TargetError is the error outcome of one target whose fetch failed.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("job: fetch %s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error { return e.Err }

// Code returns the ScrapeError code of the underlying failure.
func (e *TargetError) Code() string {
	var se *models.ScrapeError
	if errors.As(e.Err, &se) {
		return se.Code
	}
	return models.ErrCodeNavigation
}

// Job processes targets one at a time in input order.
type Job struct {
	fetcher          engine.Engine
	notifier         notify.Notifier
	extractor        *extract.Extractor
	directives       []engine.Directive
	redirectStatuses []int
	headers          map[string]string
}

// Option configures a Job.
type Option func(*Job)

// WithNotifier sets where composed messages are sent.
func WithNotifier(n notify.Notifier) Option {
	return func(j *Job) { j.notifier = n }
}

// WithExtractor replaces the booking.com field extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(j *Job) { j.extractor = e }
}

// WithDirectives replaces the default navigation directives.
func WithDirectives(d ...engine.Directive) Option {
	return func(j *Job) { j.directives = d }
}

// WithRedirectStatuses replaces the redirect allowlist.
func WithRedirectStatuses(statuses ...int) Option {
	return func(j *Job) { j.redirectStatuses = statuses }
}

// WithHeaders sets the request headers sent with every fetch.
func WithHeaders(h map[string]string) Option {
	return func(j *Job) { j.headers = h }
}

// New creates a Job that fetches through fetcher.
func New(fetcher engine.Engine, opts ...Option) *Job {
	j := &Job{
		fetcher:          fetcher,
		notifier:         notify.Nop{},
		extractor:        extract.New(),
		directives:       DefaultDirectives(),
		redirectStatuses: DefaultRedirectStatuses,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type runIDKey struct{}

// ContextWithRunID attaches a run identifier that Run uses instead of
// generating one.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run identifier attached to ctx, if any.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Run returns a lazy sequence with one element per target, in order. Each
// element is either a result or a *TargetError; a failed target never stops
// the run. The sequence ends early when the consumer stops ranging or ctx
// is cancelled.
func (j *Job) Run(ctx context.Context, targets []string) iter.Seq2[*models.JobResult, error] {
	return func(yield func(*models.JobResult, error) bool) {
		runID := RunIDFromContext(ctx)
		if runID == "" {
			runID = uuid.NewString()
			ctx = ContextWithRunID(ctx, runID)
		}
		slog.Info("run started", "run_id", runID, "targets", len(targets))

		var ok, failed int
		defer func() {
			slog.Info("run finished", "run_id", runID, "ok", ok, "failed", failed)
		}()

		for _, target := range targets {
			result, err := j.Process(ctx, target)
			if err != nil {
				failed++
			} else {
				ok++
			}
			if !yield(result, err) {
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// Process fetches one target, extracts its fields, sends the summary and
// returns the result. Only a fetch failure is an error.
func (j *Job) Process(ctx context.Context, target string) (*models.JobResult, error) {
	logger := slog.With("run_id", RunIDFromContext(ctx), "target", target)

	page, err := j.fetcher.Fetch(ctx, &engine.FetchRequest{
		URL:              target,
		Headers:          j.headers,
		Directives:       j.directives,
		RedirectStatuses: j.redirectStatuses,
	})
	if err != nil {
		var se *models.ScrapeError
		if !errors.As(err, &se) {
			err = models.NewScrapeError(models.ErrCodeNavigation, "fetch failed", err)
		}
		logger.Error("fetch failed", "error", err)
		return nil, &TargetError{Target: target, Err: err}
	}

	logger.Info("processing url", "url", page.FinalURL, "engine", page.EngineName)
	logger.Info("status code", "status", page.StatusCode)
	if page.RedirectCount > 0 {
		logger.Info("redirected", "from", target, "to", page.FinalURL, "redirects", page.RedirectCount)
	}

	fields := j.extractor.ExtractHTML(page.HTML)
	logger.Info("extracted fields",
		"price", models.StringValue(fields.Price),
		"hotel_name", models.StringValue(fields.HotelName),
		"hotel_address", models.StringValue(fields.HotelAddress),
	)

	outcome := j.notifier.Notify(ctx, ComposeMessage(fields))
	if outcome.OK {
		logger.Info("notification sent", "detail", outcome.Message)
	} else {
		logger.Warn("notification not sent", "detail", outcome.Message)
	}

	return &models.JobResult{
		Price:        fields.Price,
		URL:          page.FinalURL,
		Status:       page.StatusCode,
		Target:       target,
		HotelName:    fields.HotelName,
		HotelAddress: fields.HotelAddress,
		Notified:     outcome.OK,
		Engine:       page.EngineName,
	}, nil
}
