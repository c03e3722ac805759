package flights

import (
	"time"

	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
)

// DatePair is one leave/return combination.
type DatePair struct {
	LeaveDate  string
	ReturnDate string
}

// SweepDates returns every (leave+i, return+j) for i, j in [-width, width)
// where the shifted leave date sorts before the shifted return date.
func SweepDates(leaveDate, returnDate string, width int) ([]DatePair, error) {
	if width < 1 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "sweep width must be at least 1", nil)
	}
	leave, err := time.Parse(cache.DateLayout, leaveDate)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid leave date", err)
	}
	ret, err := time.Parse(cache.DateLayout, returnDate)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid return date", err)
	}

	pairs := make([]DatePair, 0, 4*width*width)
	for i := -width; i < width; i++ {
		l := leave.AddDate(0, 0, i).Format(cache.DateLayout)
		for j := -width; j < width; j++ {
			r := ret.AddDate(0, 0, j).Format(cache.DateLayout)
			if l < r {
				pairs = append(pairs, DatePair{LeaveDate: l, ReturnDate: r})
			}
		}
	}
	return pairs, nil
}

// SplitPairs returns the parallel leave and return lists of pairs.
func SplitPairs(pairs []DatePair) (leaves, returns []string) {
	leaves = make([]string, len(pairs))
	returns = make([]string, len(pairs))
	for i, p := range pairs {
		leaves[i] = p.LeaveDate
		returns[i] = p.ReturnDate
	}
	return leaves, returns
}

// DefaultAirports is the airport set swept by the automation job.
var DefaultAirports = []string{"JFK", "LGA", "RDU", "IST", "CDG", "EWR", "LHR", "TPA", "SAW"}

// DefaultSameCity groups airports serving one metro area. Routes between
// two airports of a group are never swept.
var DefaultSameCity = [][]string{
	{"LGA", "EWR", "JFK"},
	{"IST", "SAW"},
}

// RoutePair is an ordered origin/destination search.
type RoutePair struct {
	Origin string
	Dest   string
}

// RoutePairs enumerates every ordered pair of distinct airports, skipping
// pairs inside the same city group. Order follows airports.
func RoutePairs(airports []string, sameCity [][]string) []RoutePair {
	city := make(map[string]int, len(airports))
	for g, group := range sameCity {
		for _, code := range group {
			city[code] = g + 1
		}
	}

	var pairs []RoutePair
	for _, a := range airports {
		for _, b := range airports {
			if a == b {
				continue
			}
			if ca, cb := city[a], city[b]; ca != 0 && ca == cb {
				continue
			}
			pairs = append(pairs, RoutePair{Origin: a, Dest: b})
		}
	}
	return pairs
}
