package parser

import (
	"errors"
	"log/slog"

	"github.com/use-agent/flightscrape/models"
)

// Result is the outcome of parsing one rendered results page.
type Result struct {
	Rows []models.FlightObservation

	// Blocks is the number of observation blocks found.
	Blocks int

	// Rejected holds one error per block that failed extraction.
	Rejected []*ExtractError

	// Dropped is the number of trailing tokens left without a closing
	// boundary.
	Dropped int
}

// Parse runs the filter, partition and extraction stages over raw page
// lines. Rejected blocks are collected and logged, never fatal.
func Parse(lines []string, stamp Stamp) *Result {
	tokens := FilterTokens(lines)
	blocks, rest := Partition(tokens)

	res := &Result{
		Rows:    make([]models.FlightObservation, 0, len(blocks)),
		Blocks:  len(blocks),
		Dropped: len(rest),
	}
	if len(rest) > 0 {
		slog.Debug("trailing tokens without boundary dropped",
			"code", models.ErrCodeBoundaryNotFound,
			"tokens", len(rest),
			"leave", stamp.LeaveDate,
			"return", stamp.ReturnDate,
		)
	}

	for i, block := range blocks {
		obs, err := Extract(block, i, stamp)
		if err != nil {
			var ee *ExtractError
			if !errors.As(err, &ee) {
				ee = &ExtractError{Block: i, Position: -1, Reason: err.Error()}
			}
			res.Rejected = append(res.Rejected, ee)
			slog.Debug("observation block rejected",
				"code", models.ErrCodeMalformedBlock,
				"index", i,
				"error", err,
			)
			continue
		}
		res.Rows = append(res.Rows, *obs)
	}
	return res
}

// Err summarises a result that produced no rows, or returns nil.
func (r *Result) Err() error {
	if len(r.Rows) > 0 {
		return nil
	}
	if r.Blocks == 0 {
		return models.NewScrapeError(models.ErrCodeBoundaryNotFound, "no observation blocks found in page text", nil)
	}
	var first error
	if len(r.Rejected) > 0 {
		first = r.Rejected[0]
	}
	return models.NewScrapeError(models.ErrCodeMalformedBlock, "every observation block was rejected", first)
}
