package app

import (
	"testing"
	"time"

	"billvault/internal/domain/billing"

	"github.com/stretchr/testify/require"
)

func TestYearMonth(t *testing.T) {
	require.Equal(t, uint32(202503), yearMonth(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
	require.Equal(t, uint32(202512), yearMonth(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)))

	// Local-zone inputs normalize to UTC before bucketing.
	tokyo := time.FixedZone("JST", 9*3600)
	require.Equal(t, uint32(202502), yearMonth(time.Date(2025, 3, 1, 2, 0, 0, 0, tokyo)))
}

func TestSameCalendarDay(t *testing.T) {
	morning := time.Date(2025, 3, 10, 0, 0, 1, 0, time.UTC).Unix()
	night := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC).Unix()
	nextDay := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC).Unix()

	require.True(t, sameCalendarDay(morning, night))
	require.False(t, sameCalendarDay(night, nextDay))
}

func TestAddOneMonth(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "plain advance",
			in:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			want: time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "clamps to shorter month",
			in:   time.Date(2025, 1, 31, 8, 30, 0, 0, time.UTC),
			want: time.Date(2025, 2, 28, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "leap february",
			in:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "december rolls into january",
			in:   time.Date(2025, 12, 15, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "31st into 30-day month",
			in:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := addOneMonth(tc.in.Unix())
			require.NoError(t, err)
			require.Equal(t, tc.want.Unix(), got)
		})
	}
}

func TestAddOneMonthRejectsNegative(t *testing.T) {
	_, err := addOneMonth(-1)
	require.ErrorIs(t, err, billing.ErrInvalidTimestamp)
}

func TestDayOfMonth(t *testing.T) {
	require.Equal(t, 28, dayOfMonth(time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC).Unix()))
	require.Equal(t, 1, dayOfMonth(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Unix()))
}
