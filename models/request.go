package models

import "strings"

// FetchRequest is one route search: origin, destination and the YYYY-MM-DD
// leave and return dates. It is built per call and never persisted.
type FetchRequest struct {
	Origin     string `json:"origin" binding:"required,min=3,max=4"`
	Dest       string `json:"dest" binding:"required,min=3,max=4"`
	LeaveDate  string `json:"leave_date" binding:"required"`
	ReturnDate string `json:"return_date" binding:"required"`

	// UseCache serves the request from the route cache when fresh and
	// persists newly scraped rows.
	UseCache bool `json:"use_cache,omitempty"`
}

// Normalize upper-cases the airport codes and trims the dates.
func (r *FetchRequest) Normalize() {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Dest = strings.ToUpper(strings.TrimSpace(r.Dest))
	r.LeaveDate = strings.TrimSpace(r.LeaveDate)
	r.ReturnDate = strings.TrimSpace(r.ReturnDate)
}

// Route returns the cache route of the request.
func (r *FetchRequest) Route() Route {
	return NewRoute(r.Origin, r.Dest)
}

// BatchFetchRequest is the payload for POST /api/v1/flights/batch.
// LeaveDates and ReturnDates are parallel lists of the same length.
type BatchFetchRequest struct {
	Origin      string   `json:"origin" binding:"required,min=3,max=4"`
	Dest        string   `json:"dest" binding:"required,min=3,max=4"`
	LeaveDates  []string `json:"leave_dates" binding:"required,min=1,max=400"`
	ReturnDates []string `json:"return_dates" binding:"required,min=1,max=400"`
	UseCache    bool     `json:"use_cache,omitempty"`
}

// Requests expands the batch into one FetchRequest per date pair.
// The caller must check that both date lists have the same length.
func (b *BatchFetchRequest) Requests() []FetchRequest {
	out := make([]FetchRequest, 0, len(b.LeaveDates))
	for i := range b.LeaveDates {
		req := FetchRequest{
			Origin:     b.Origin,
			Dest:       b.Dest,
			LeaveDate:  b.LeaveDates[i],
			ReturnDate: b.ReturnDates[i],
			UseCache:   b.UseCache,
		}
		req.Normalize()
		out = append(out, req)
	}
	return out
}

// SweepRequest is the payload for POST /api/v1/flights/sweep.
// Every leave/return pair within Width days of the given dates is fetched
// and cached.
type SweepRequest struct {
	Origin     string `json:"origin" binding:"required,min=3,max=4"`
	Dest       string `json:"dest" binding:"required,min=3,max=4"`
	LeaveDate  string `json:"leave_date" binding:"required"`
	ReturnDate string `json:"return_date" binding:"required"`
	Width      int    `json:"width" binding:"omitempty,min=1,max=30"`
}

// Defaults applies default values to unset fields.
func (r *SweepRequest) Defaults() {
	if r.Width == 0 {
		r.Width = 3
	}
}

// FlightQuery filters the cached rows of a route.
// Empty string fields and zero prices match everything, except AccessDate
// which the cache defaults to today.
type FlightQuery struct {
	Origin     string  `form:"origin" binding:"required"`
	Dest       string  `form:"dest" binding:"required"`
	LeaveDate  string  `form:"depart-date"`
	ReturnDate string  `form:"return-date"`
	AccessDate string  `form:"access-date"`
	PriceMin   float64 `form:"price-min"`
	PriceMax   float64 `form:"price-max"`
}

// Defaults applies default price bounds.
func (q *FlightQuery) Defaults() {
	if q.PriceMax <= 0 {
		q.PriceMax = 1e9
	}
}
