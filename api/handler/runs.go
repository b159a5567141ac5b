package handler

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/bookingwatch/cache"
	"github.com/use-agent/bookingwatch/job"
	"github.com/use-agent/bookingwatch/models"
)

// Runner produces one outcome per target.
type Runner interface {
	Run(ctx context.Context, targets []string) iter.Seq2[*models.JobResult, error]
}

// Runs serialises job runs: the browser is shared, so a second run
// request while one is in flight is rejected rather than queued.
type Runs struct {
	runner         Runner
	cache          *cache.Cache
	defaultTargets []string
	mu             sync.Mutex
}

// NewRuns creates the run handlers. cc may be nil.
func NewRuns(runner Runner, cc *cache.Cache, defaultTargets []string) *Runs {
	return &Runs{runner: runner, cache: cc, defaultTargets: defaultTargets}
}

// Post returns a handler for POST /api/v1/runs.
//
//  1. Bind the optional target override.
//  2. Take the run lock or answer 409.
//  3. Run synchronously, collecting results and per-target errors.
//  4. Record results in the snapshot cache.
func (h *Runs) Post() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		runID := uuid.NewString()

		var req models.RunRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, models.RunResponse{
					RunID: runID,
					Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()},
				})
				return
			}
		}
		targets := req.Targets
		if len(targets) == 0 {
			targets = h.defaultTargets
		}
		if len(targets) == 0 {
			c.JSON(http.StatusBadRequest, models.RunResponse{
				RunID: runID,
				Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: "no targets configured"},
			})
			return
		}

		if !h.mu.TryLock() {
			c.JSON(http.StatusConflict, models.RunResponse{
				RunID: runID,
				Error: &models.ErrorDetail{Code: models.ErrCodeBusy, Message: "a run is already in progress"},
			})
			return
		}
		defer h.mu.Unlock()

		resp := models.RunResponse{
			RunID:   runID,
			Results: make([]*models.JobResult, 0, len(targets)),
			Errors:  []models.TargetError{},
		}

		ctx := job.ContextWithRunID(c.Request.Context(), runID)
		for result, err := range h.runner.Run(ctx, targets) {
			if err != nil {
				resp.Errors = append(resp.Errors, targetError(err))
				continue
			}
			resp.Results = append(resp.Results, result)
			if h.cache != nil {
				h.cache.Set(result.Target, result)
			}
		}

		resp.TookMs = time.Since(start).Milliseconds()
		c.JSON(http.StatusOK, resp)
	}
}

// Results returns a handler for GET /api/v1/results.
func (h *Runs) Results() gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshots := []models.ResultSnapshot{}
		if h.cache != nil {
			snapshots = h.cache.All()
		}
		c.JSON(http.StatusOK, models.ResultsResponse{Results: snapshots})
	}
}

func targetError(err error) models.TargetError {
	out := models.TargetError{Code: models.ErrCodeInternal, Message: err.Error()}

	var te *job.TargetError
	if errors.As(err, &te) {
		out.Target = te.Target
		out.Code = te.Code()
	}
	var se *models.ScrapeError
	if errors.As(err, &se) {
		out.Message = se.Message
	}
	return out
}
