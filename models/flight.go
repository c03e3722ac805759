package models

import "strings"

// FlightObservation is one scraped search result row.
//
// LayoverDuration, StopLocations, CO2EmissionKg and EmissionDiffPercent are
// optional. The layover pair is set from the stop count (duration only for a
// single stop, locations for any stop), the emission pair is set together
// whenever the source row carried emission data.
type FlightObservation struct {
	LeaveDate  string `json:"leave_date"`
	ReturnDate string `json:"return_date"`

	DepartTime  string `json:"depart_time"`
	ArrivalTime string `json:"arrival_time"`
	Airlines    string `json:"airlines"`
	TravelTime  string `json:"travel_time"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Stops       int    `json:"num_stops"`

	LayoverDuration *string  `json:"layover_time,omitempty"`
	StopLocations   []string `json:"stop_location,omitempty"`

	CO2EmissionKg       *float64 `json:"co2_emission_kg,omitempty"`
	EmissionDiffPercent *int     `json:"emission_avg_diff_percent,omitempty"`

	Price    float64 `json:"price"`
	TripType string  `json:"trip_type"`

	// AccessDate is the YYYY-MM-DD day the row was scraped.
	AccessDate string `json:"access_date"`
}

// RowKey identifies an observation for deduplication inside a route entry.
type RowKey struct {
	LeaveDate   string
	ReturnDate  string
	DepartTime  string
	ArrivalTime string
	AccessDate  string
}

// Key returns the deduplication key of the observation.
func (f *FlightObservation) Key() RowKey {
	return RowKey{
		LeaveDate:   f.LeaveDate,
		ReturnDate:  f.ReturnDate,
		DepartTime:  f.DepartTime,
		ArrivalTime: f.ArrivalTime,
		AccessDate:  f.AccessDate,
	}
}

// StopLocation returns the stop locations joined for display.
func (f *FlightObservation) StopLocation() string {
	return strings.Join(f.StopLocations, ", ")
}

// RouteEntry is the persisted collection of observations for one route.
type RouteEntry struct {
	Route Route               `json:"route"`
	Rows  []FlightObservation `json:"rows"`
}
