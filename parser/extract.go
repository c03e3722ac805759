package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/use-agent/flightscrape/models"
)

// Tokens the source inserts or uses as placeholders inside a block.
const (
	separateTicketsLabel = "Separate tickets booked together"
	nonstopLabel         = "Nonstop"
	avgEmissionsLabel    = "Avg emissions"
	missingPlaceholder   = "–"
	routeSeparator       = "–"
)

// ExtractError describes why a block was rejected.
type ExtractError struct {
	// Block is the index of the block in the partitioned stream.
	Block int
	// Position is the token index (after drift) that could not be read.
	Position int
	Field    string
	Reason   string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("block %d: %s at position %d: %s", e.Block, e.Field, e.Position, e.Reason)
}

// Stamp carries the request-level values copied onto every row.
type Stamp struct {
	LeaveDate  string
	ReturnDate string
	AccessDate string
}

// cursor reads block fields at a base position shifted by the current drift.
// Each optional token the source may insert bumps drift by one, so adding a
// new insertion rule only means adding another bump.
type cursor struct {
	block []string
	index int
	drift int
}

func (c *cursor) at(pos int, field string) (string, error) {
	i := pos + c.drift
	if i < 0 || i >= len(c.block) {
		return "", &ExtractError{Block: c.index, Position: i, Field: field, Reason: "out of range"}
	}
	return c.block[i], nil
}

func (c *cursor) fail(pos int, field, reason string) error {
	return &ExtractError{Block: c.index, Position: pos + c.drift, Field: field, Reason: reason}
}

// Extract maps one observation block into a FlightObservation.
// index is only used to label errors. Any missing or unparsable field
// rejects the whole block with an *ExtractError.
func Extract(block []string, index int, stamp Stamp) (*models.FlightObservation, error) {
	c := &cursor{block: block, index: index}
	obs := &models.FlightObservation{
		LeaveDate:  stamp.LeaveDate,
		ReturnDate: stamp.ReturnDate,
		AccessDate: stamp.AccessDate,
	}

	var err error
	if obs.DepartTime, err = c.at(0, "depart_time"); err != nil {
		return nil, err
	}
	if obs.ArrivalTime, err = c.at(1, "arrival_time"); err != nil {
		return nil, err
	}

	label, err := c.at(2, "airlines")
	if err != nil {
		return nil, err
	}
	if strings.Contains(label, separateTicketsLabel) {
		c.drift++
	}

	if obs.Airlines, err = c.at(2, "airlines"); err != nil {
		return nil, err
	}
	if obs.TravelTime, err = c.at(3, "travel_time"); err != nil {
		return nil, err
	}

	route, err := c.at(4, "route")
	if err != nil {
		return nil, err
	}
	origin, dest, ok := strings.Cut(route, routeSeparator)
	if !ok {
		return nil, c.fail(4, "route", fmt.Sprintf("no %q in %q", routeSeparator, route))
	}
	obs.Origin = strings.TrimSpace(origin)
	// Multi-leg routes render as "JFK–ORD–LAX"; keep the first leg's origin
	// and the next code as destination.
	dest, _, _ = strings.Cut(dest, routeSeparator)
	obs.Destination = strings.TrimSpace(dest)
	if obs.Origin == "" || obs.Destination == "" {
		return nil, c.fail(4, "route", fmt.Sprintf("missing airport code in %q", route))
	}

	stopsTok, err := c.at(5, "num_stops")
	if err != nil {
		return nil, err
	}
	if obs.Stops, err = parseStops(stopsTok); err != nil {
		return nil, c.fail(5, "num_stops", err.Error())
	}

	if obs.Stops > 0 {
		layover, err := c.at(6, "layover")
		if err != nil {
			return nil, err
		}
		if obs.Stops == 1 {
			duration, location := splitLayover(layover)
			obs.LayoverDuration = &duration
			obs.StopLocations = []string{location}
		} else {
			obs.StopLocations = []string{layover}
		}
		c.drift++
	}

	co2, err := c.at(6, "co2_emission")
	if err != nil {
		return nil, err
	}

	pricePos := 7
	if co2 != missingPlaceholder {
		kg, err := parseKilograms(co2)
		if err != nil {
			return nil, c.fail(6, "co2_emission", err.Error())
		}
		obs.CO2EmissionKg = &kg

		diffTok, err := c.at(7, "emission_diff")
		if err != nil {
			return nil, err
		}
		diff, err := parseEmissionDiff(diffTok)
		if err != nil {
			return nil, c.fail(7, "emission_diff", err.Error())
		}
		obs.EmissionDiffPercent = &diff
		pricePos = 8
	}

	priceTok, err := c.at(pricePos, "price")
	if err != nil {
		return nil, err
	}
	if obs.Price, err = parsePrice(priceTok); err != nil {
		return nil, c.fail(pricePos, "price", err.Error())
	}

	if obs.TripType, err = c.at(pricePos+1, "trip_type"); err != nil {
		return nil, err
	}

	return obs, nil
}

// parseStops reads "Nonstop", "1 stop" or "2 stops".
func parseStops(tok string) (int, error) {
	if strings.Contains(tok, nonstopLabel) {
		return 0, nil
	}
	head, _, ok := strings.Cut(tok, "stop")
	if !ok {
		return 0, fmt.Errorf("unrecognised stop descriptor %q", tok)
	}
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid stop count %q", tok)
	}
	return n, nil
}

// splitLayover splits a single-stop token such as "1 hr 5 minATL" into its
// duration and location parts. Tokens without minutes ("2 hrORD") are split
// after the hour unit; anything else is treated as a bare location.
func splitLayover(tok string) (duration, location string) {
	if d, loc, ok := strings.Cut(tok, "min"); ok {
		return strings.TrimSpace(d), strings.TrimSpace(loc)
	}
	if d, loc, ok := strings.Cut(tok, "hr"); ok {
		return strings.TrimSpace(d) + " hr", strings.TrimSpace(loc)
	}
	return "", strings.TrimSpace(tok)
}

// parseKilograms reads "1,150 kg CO2e" style tokens.
func parseKilograms(tok string) (float64, error) {
	s := strings.ReplaceAll(tok, ",", "")
	s, _, _ = strings.Cut(s, " kg")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid emission %q", tok)
	}
	return v, nil
}

// parseEmissionDiff reads "Avg emissions" or "+12% emissions".
func parseEmissionDiff(tok string) (int, error) {
	if tok == avgEmissionsLabel {
		return 0, nil
	}
	head, _, ok := strings.Cut(tok, "%")
	if !ok {
		return 0, fmt.Errorf("invalid emission difference %q", tok)
	}
	v, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, fmt.Errorf("invalid emission difference %q", tok)
	}
	return v, nil
}

// parsePrice reads "$1,234" style tokens. Any leading currency symbol,
// single- or multi-rune ("$", "€", "CA$"), is dropped.
func parsePrice(tok string) (float64, error) {
	s := strings.TrimLeftFunc(tok, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("invalid price %q", tok)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", tok)
	}
	return v, nil
}
