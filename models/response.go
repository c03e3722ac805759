package models

// Batch failure stages.
const (
	StageFetch     = "fetch"
	StagePartition = "partition"
	StageExtract   = "extract"
)

// FetchResult is the outcome of a single-route fetch.
type FetchResult struct {
	Rows []FlightObservation `json:"rows"`

	// FromCache is true when the rows were served from the route cache.
	FromCache bool `json:"from_cache"`

	// Rejected counts observation blocks that failed extraction.
	Rejected int `json:"rejected"`
}

// DateFailure reports the failure of one date pair inside a batch.
type DateFailure struct {
	LeaveDate  string `json:"leave_date"`
	ReturnDate string `json:"return_date"`
	Stage      string `json:"stage"`
	Code       string `json:"code"`
	Message    string `json:"message"`

	// Rejected is the number of blocks dropped for this date pair when
	// Stage is "extract".
	Rejected int `json:"rejected,omitempty"`
}

// BatchResult is the outcome of a batch fetch over one route.
type BatchResult struct {
	Rows      []FlightObservation `json:"rows"`
	Failures  []DateFailure       `json:"failures,omitempty"`
	FromCache bool                `json:"from_cache"`
}

// FlightsResponse is the response body for the flight endpoints.
type FlightsResponse struct {
	Success   bool                `json:"success"`
	Route     string              `json:"route,omitempty"`
	Count     int                 `json:"count"`
	Rows      []FlightObservation `json:"rows"`
	Failures  []DateFailure       `json:"failures,omitempty"`
	Rejected  int                 `json:"rejected,omitempty"`
	FromCache bool                `json:"from_cache"`
	Error     *ErrorDetail        `json:"error,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// SweepJob tracks an in-progress date-window sweep.
type SweepJob struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"` // "processing", "completed", "partial", "failed"
	Route     string        `json:"route"`
	Pairs     int           `json:"pairs"`
	Rows      int           `json:"rows"`
	Failures  []DateFailure `json:"failures,omitempty"`
	Error     *ErrorDetail  `json:"error,omitempty"`
	CreatedAt int64         `json:"created_at"` // unix timestamp
}

// SweepResponse is the immediate response for POST /api/v1/flights/sweep.
type SweepResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Pairs  int    `json:"pairs"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Routes    int       `json:"cached_routes"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// PageResult is the rendered text of one page in a batch fetch.
// Err is set instead of Lines when the page failed or timed out.
type PageResult struct {
	URL   string
	Lines []string
	Err   error
}
