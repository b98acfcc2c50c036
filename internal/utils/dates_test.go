package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    time.Time
		loc      *time.Location
		expected time.Time
	}{
		{
			name:     "UTC midday",
			input:    time.Date(2024, 3, 10, 13, 45, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "nil location falls back to UTC",
			input:    time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC),
			loc:      nil,
			expected: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "UTC early morning is previous day in New York",
			input:    time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
			loc:      newYork,
			expected: time.Date(2024, 3, 9, 0, 0, 0, 0, newYork),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(StartOfDay(tt.input, tt.loc)))
		})
	}
}

func TestDayRange(t *testing.T) {
	start, end := DayRange(time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC), time.UTC)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestCalendarDaysBetween(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name     string
		from     time.Time
		to       time.Time
		loc      *time.Location
		expected int
	}{
		{
			name:     "same day",
			from:     time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: 0,
		},
		{
			name:     "late evening to next morning is one day",
			from:     time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: 1,
		},
		{
			name:     "past date is negative",
			from:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: -120,
		},
		{
			name:     "across spring daylight saving change",
			from:     time.Date(2024, 3, 9, 12, 0, 0, 0, newYork),
			to:       time.Date(2024, 3, 11, 12, 0, 0, 0, newYork),
			loc:      newYork,
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalendarDaysBetween(tt.from, tt.to, tt.loc))
		})
	}
}
