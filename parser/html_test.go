package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const savedPage = `<html><body id="yDmH0d">
<script>var x = "10:00 AM";</script>
<div>Sort by:</div>
<ul>
  <li><span>10:00 AM</span><span>12:00 PM</span><div>Delta</div>
  <div>2 hr</div><div>JFK–LAX</div><div>Nonstop</div>
  <div>150 kg</div><div>Avg emissions</div><div>$250</div><div>Round trip</div></li>
  <li><span>1:00 PM</span></li>
</ul>
</body></html>`

func TestLinesFromHTML(t *testing.T) {
	lines, err := LinesFromHTML(savedPage, "body#yDmH0d")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Sort by:", "10:00 AM", "12:00 PM", "Delta", "2 hr", "JFK–LAX", "Nonstop",
		"150 kg", "Avg emissions", "$250", "Round trip", "1:00 PM",
	}, lines)

	res := Parse(lines, testStamp)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "LAX", res.Rows[0].Destination)
}

func TestLinesFromHTML_FallsBackToBody(t *testing.T) {
	lines, err := LinesFromHTML(`<html><body><p>Sort by:</p></body></html>`, "#missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sort by:"}, lines)
}

func TestLinesFromHTML_BadSelector(t *testing.T) {
	_, err := LinesFromHTML(savedPage, "[[")
	assert.Error(t, err)
}

func TestLinesFromHTML_FirstMatchOnly(t *testing.T) {
	page := `<html><body><div class="r">Sort by:</div><div class="r">ignored</div></body></html>`
	lines, err := LinesFromHTML(page, "div.r")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sort by:"}, lines)
}
