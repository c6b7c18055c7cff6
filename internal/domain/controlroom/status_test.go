package controlroom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWindows = FreshnessWindows{Live: 5 * time.Minute, Stale: 30 * time.Minute}

func ptr[T any](v T) *T { return &v }

func TestActivityFor(t *testing.T) {
	in := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	out := in.Add(9 * time.Hour)

	assert.Equal(t, PrimaryNotStarted, ActivityFor(nil, nil))
	assert.Equal(t, PrimaryInProgress, ActivityFor(&in, nil))
	assert.Equal(t, PrimaryFinished, ActivityFor(&in, &out))
}

func TestFreshnessAt(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ping *time.Time
		want SecondaryStatus
	}{
		{"no ping", nil, SecondaryNone},
		{"just now", ptr(now), SecondaryLive},
		{"live boundary", ptr(now.Add(-5 * time.Minute)), SecondaryLive},
		{"stale", ptr(now.Add(-6 * time.Minute)), SecondaryStale},
		{"stale boundary", ptr(now.Add(-30 * time.Minute)), SecondaryStale},
		{"dormant", ptr(now.Add(-2 * time.Hour)), SecondaryDormant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FreshnessAt(tt.ping, now, testWindows))
		})
	}
}

func TestLivePosition_ToMarker(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	clockIn := now.Add(-3 * time.Hour)

	t.Run("ping wins over clock-in", func(t *testing.T) {
		m, ok := LivePosition{
			EmployeeID:   "e1",
			EmployeeName: "Ayu",
			ClockIn:      &clockIn,
			ClockInLat:   ptr(-6.2),
			ClockInLon:   ptr(106.8),
			PingLat:      ptr(-6.21),
			PingLon:      ptr(106.81),
			PingAt:       ptr(now.Add(-time.Minute)),
		}.ToMarker(now, testWindows)

		require.True(t, ok)
		assert.Equal(t, MarkerInput{
			ID: "e1", Label: "Ayu", Lat: -6.21, Lon: 106.81,
			PrimaryStatus: PrimaryInProgress, SecondaryStatus: SecondaryLive,
		}, m)
	})

	t.Run("clock-in location has no freshness", func(t *testing.T) {
		m, ok := LivePosition{
			EmployeeID: "e2",
			ClockIn:    &clockIn,
			ClockOut:   ptr(now),
			ClockInLat: ptr(-6.2),
			ClockInLon: ptr(106.8),
		}.ToMarker(now, testWindows)

		require.True(t, ok)
		assert.Equal(t, PrimaryFinished, m.PrimaryStatus)
		assert.Equal(t, SecondaryNone, m.SecondaryStatus)
		assert.Equal(t, LatLng{Lat: -6.2, Lon: 106.8}, m.Position())
	})

	t.Run("no coordinate", func(t *testing.T) {
		_, ok := LivePosition{EmployeeID: "e3", PingLat: ptr(1.0)}.ToMarker(now, testWindows)
		assert.False(t, ok)
	})
}
