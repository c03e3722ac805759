package flights

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/use-agent/flightscrape/models"
)

// DefaultURLTemplate is the Google Flights natural-language query for a
// round trip.
const DefaultURLTemplate = "https://www.google.com/travel/flights?q=Flights%20to%20{{.Dest}}%20from%20{{.Origin}}%20on%20{{.LeaveDate}}%20through%20{{.ReturnDate}}"

// URLBuilder renders search URLs from a text/template. Fields are path
// escaped before substitution. Dates are not validated.
type URLBuilder struct {
	tmpl *template.Template
}

// NewURLBuilder parses tmpl, or DefaultURLTemplate when tmpl is empty.
func NewURLBuilder(tmpl string) (*URLBuilder, error) {
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}
	t, err := template.New("url").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid url template", err)
	}
	return &URLBuilder{tmpl: t}, nil
}

// Build returns the search URL for one request.
func (b *URLBuilder) Build(req models.FetchRequest) (string, error) {
	data := models.FetchRequest{
		Origin:     url.PathEscape(req.Origin),
		Dest:       url.PathEscape(req.Dest),
		LeaveDate:  url.PathEscape(req.LeaveDate),
		ReturnDate: url.PathEscape(req.ReturnDate),
	}
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("cannot build url for %s-%s", req.Origin, req.Dest), err)
	}
	return sb.String(), nil
}

// BuildURL renders the default template.
func BuildURL(origin, dest, leaveDate, returnDate string) string {
	b, _ := NewURLBuilder("")
	u, _ := b.Build(models.FetchRequest{
		Origin:     origin,
		Dest:       dest,
		LeaveDate:  leaveDate,
		ReturnDate: returnDate,
	})
	return u
}
