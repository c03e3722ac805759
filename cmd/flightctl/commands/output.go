package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/use-agent/flightscrape/models"
)

func printRows(w io.Writer, rows []models.FlightObservation) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Leave", "Return", "Depart", "Arrive", "Airlines", "Duration", "Route", "Stops", "Layover", "CO2", "Price"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.LeaveDate, r.ReturnDate, r.DepartTime, r.ArrivalTime, r.Airlines, r.TravelTime,
			r.Origin + "–" + r.Destination, r.Stops, layover(r), co2(r), fmt.Sprintf("%.0f", r.Price),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "", "", "Rows", len(rows)})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func printFailures(w io.Writer, failures []models.DateFailure) {
	for _, f := range failures {
		fmt.Fprintf(w, "failed %s/%s at %s: %s: %s\n", f.LeaveDate, f.ReturnDate, f.Stage, f.Code, f.Message)
	}
}

func layover(r models.FlightObservation) string {
	loc := r.StopLocation()
	if r.LayoverDuration != nil {
		return *r.LayoverDuration + " " + loc
	}
	if loc == "" {
		return "-"
	}
	return loc
}

func co2(r models.FlightObservation) string {
	if r.CO2EmissionKg == nil {
		return "-"
	}
	s := strconv.FormatFloat(*r.CO2EmissionKg, 'f', -1, 64) + " kg"
	if r.EmissionDiffPercent != nil && *r.EmissionDiffPercent != 0 {
		s += fmt.Sprintf(" (%+d%%)", *r.EmissionDiffPercent)
	}
	return s
}
