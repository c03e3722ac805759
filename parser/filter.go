package parser

import "strings"

const (
	// resultsMarker opens the results table on the rendered page.
	resultsMarker = "Sort by:"

	// moreFlightsMarker closes a results section.
	moreFlightsMarker = "more flights"

	// separator is the padded dash used by summary lines ("$250 – $400").
	separator = " – "
)

// noiseWords mark summary and header lines interleaved with the rows.
// Matched case-insensitively.
var noiseWords = []string{"price", "prices", "other"}

// FilterTokens strips everything that is not flight-row content from the
// rendered page text. Collection starts after the "Sort by:" line and stops
// at any line mentioning "more flights". Order is preserved.
func FilterTokens(lines []string) []string {
	var out []string
	collecting := false

	for _, line := range lines {
		if strings.Contains(line, moreFlightsMarker) {
			collecting = false
		}

		if collecting && !isNoise(line) {
			out = append(out, line)
		}

		if line == resultsMarker {
			collecting = true
		}
	}
	return out
}

func isNoise(line string) bool {
	if strings.Contains(line, separator) {
		return true
	}
	lower := strings.ToLower(line)
	for _, w := range noiseWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
