package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 31, 23, 0, 0, 0, time.FixedZone("CET", 3600))
	c := NewFakeClock(start)

	assert.Equal(t, time.UTC, c.Now().Location())
	c.Advance(2 * time.Hour)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), c.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, System{}.Now().Location())
}
