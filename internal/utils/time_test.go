package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Hour, "2h0m"},
		{3*time.Hour + 25*time.Minute, "3h25m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.d))
	}
}

func TestDayKey(t *testing.T) {
	day := time.Date(2025, 9, 5, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2025-09-05", DayKey(day))
}
