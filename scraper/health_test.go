package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageHealth(t *testing.T) {
	start := time.Now()

	h := newPageHealth(start)
	h.record(false)
	h.record(false)
	h.record(true)
	assert.Equal(t, 1.5, h.errScore)
	assert.False(t, h.shouldRetire(start))

	h.record(false)
	h.record(false)
	assert.True(t, h.shouldRetire(start), "three net failures retire the page")

	h = newPageHealth(start)
	h.record(true)
	assert.Zero(t, h.errScore)
	assert.True(t, h.shouldRetire(start.Add(maxPageAge)))

	h = newPageHealth(start)
	for i := 0; i < maxUses; i++ {
		h.record(true)
	}
	assert.True(t, h.shouldRetire(start))
}
