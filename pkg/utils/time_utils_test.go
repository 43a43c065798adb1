package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastWeekPeriod(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart string
		wantEnd   string
	}{
		{
			name:      "monday midnight returns the week that just ended",
			now:       time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
			wantStart: "2024-01-01",
			wantEnd:   "2024-01-07",
		},
		{
			name:      "mid week still returns the previous full week",
			now:       time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC),
			wantStart: "2024-01-01",
			wantEnd:   "2024-01-07",
		},
		{
			name:      "sunday belongs to the current week",
			now:       time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC),
			wantStart: "2024-01-01",
			wantEnd:   "2024-01-07",
		},
		{
			name:      "crosses a year boundary",
			now:       time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
			wantStart: "2023-12-25",
			wantEnd:   "2023-12-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := LastWeekPeriod(tt.now)
			assert.Equal(t, tt.wantStart, FormatDate(p.Start))
			assert.Equal(t, tt.wantEnd, FormatDate(p.End))
			assert.Equal(t, time.Monday, p.Start.Weekday())
			assert.Equal(t, time.Sunday, p.End.Weekday())
			assert.Equal(t, 0, p.Start.Hour())
			assert.Equal(t, 23, p.End.Hour())
			assert.Equal(t, 59, p.End.Second())
			assert.Equal(t, int64(6), DayNumber(p.End)-DayNumber(p.Start))
		})
	}
}

func TestLastWeekPeriodKeepsLocation(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	p := LastWeekPeriod(time.Date(2024, 1, 8, 0, 30, 0, 0, loc))

	assert.Equal(t, loc, p.Start.Location())
	assert.Equal(t, "2024-01-01", FormatDate(p.Start))
	assert.Equal(t, "2024-01-07", FormatDate(p.End))
}

func TestValidatePeriod(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan7 := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidatePeriod(jan1, jan7))
	assert.NoError(t, ValidatePeriod(jan1, jan1))
	assert.True(t, errors.Is(ValidatePeriod(jan7, jan1), ErrInvalidPeriod))
	assert.True(t, errors.Is(ValidatePeriod(time.Time{}, jan7), ErrInvalidPeriod))
	assert.True(t, errors.Is(ValidatePeriod(jan1, time.Time{}), ErrInvalidPeriod))
}

func TestParsePeriodDate(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)

	d, err := ParsePeriodDate("2024-01-03", loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", FormatDate(d))
	assert.Equal(t, loc, d.Location())

	d, err = ParsePeriodDate("2024-01-03T20:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-04", FormatDate(d), "RFC3339 input is converted to the settlement zone")

	for _, raw := range []string{"", "2024-13-01", "2024-02-30", "yesterday"} {
		_, err := ParsePeriodDate(raw, loc)
		assert.ErrorIs(t, err, ErrInvalidPeriod, raw)
	}
}

func TestDayNumberIgnoresClockAndZone(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	a := time.Date(2024, 1, 3, 0, 0, 0, 0, loc)
	b := time.Date(2024, 1, 3, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, DayNumber(a), DayNumber(b))
	assert.Equal(t, int64(1), DayNumber(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))-DayNumber(a))
}
