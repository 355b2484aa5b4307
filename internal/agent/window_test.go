package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2026, 8, 31, hour, 30, 0, 0, time.UTC)
}

func TestWithinActiveHours(t *testing.T) {
	tests := []struct {
		name       string
		hour       int
		start, end int
		want       bool
	}{
		{"inside simple window", 10, 9, 17, true},
		{"at start boundary", 9, 9, 17, true},
		{"at end boundary", 17, 9, 17, false},
		{"before simple window", 8, 9, 17, false},
		{"full day", 3, 0, 24, true},
		{"start equals end is always active", 12, 7, 7, true},
		{"wrap, late evening", 23, 22, 6, true},
		{"wrap, early morning", 5, 22, 6, true},
		{"wrap, midday outside", 12, 22, 6, false},
		{"wrap, at end boundary", 6, 22, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withinActiveHours(at(tt.hour), tt.start, tt.end))
		})
	}
}

func TestNextWindowOpen(t *testing.T) {
	now := at(12) // 12:30

	open := nextWindowOpen(now, 22)
	assert.Equal(t, time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC), open)

	// Start hour already passed today: opens tomorrow.
	open = nextWindowOpen(now, 9)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), open)
}
