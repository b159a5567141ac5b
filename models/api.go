package models

import "time"

// RunRequest is the payload for POST /api/v1/runs.
type RunRequest struct {
	// Targets overrides the configured target URLs for this run.
	Targets []string `json:"targets,omitempty" binding:"omitempty,max=50,dive,url"`
}

// TargetError reports a target whose fetch failed.
type TargetError struct {
	Target  string `json:"target"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunResponse is the response for POST /api/v1/runs.
type RunResponse struct {
	RunID   string        `json:"run_id"`
	Results []*JobResult  `json:"results"`
	Errors  []TargetError `json:"errors"`
	TookMs  int64         `json:"took_ms"`
	Error   *ErrorDetail  `json:"error,omitempty"`
}

// ErrorResponse wraps an error detail for endpoints without a richer
// response body.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ResultSnapshot is the latest result recorded for one target.
type ResultSnapshot struct {
	Target    string     `json:"target"`
	Result    *JobResult `json:"result"`
	CheckedAt time.Time  `json:"checked_at"`
}

// ResultsResponse is the response for GET /api/v1/results.
type ResultsResponse struct {
	Results []ResultSnapshot `json:"results"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
