package controlroom

import "time"

// FreshnessWindows bounds the age of the last position ping for each
// secondary status. Pings older than Stale are dormant.
type FreshnessWindows struct {
	Live  time.Duration
	Stale time.Duration
}

// ActivityFor derives the primary status from the attendance clock times.
func ActivityFor(clockIn, clockOut *time.Time) PrimaryStatus {
	switch {
	case clockIn == nil:
		return PrimaryNotStarted
	case clockOut == nil:
		return PrimaryInProgress
	default:
		return PrimaryFinished
	}
}

// FreshnessAt derives the secondary status from the age of the last ping.
func FreshnessAt(lastPing *time.Time, now time.Time, w FreshnessWindows) SecondaryStatus {
	if lastPing == nil {
		return SecondaryNone
	}
	age := now.Sub(*lastPing)
	switch {
	case age <= w.Live:
		return SecondaryLive
	case age <= w.Stale:
		return SecondaryStale
	default:
		return SecondaryDormant
	}
}

// ToMarker classifies a live position into a marker. ok is false when the
// employee has no known coordinate at all.
func (p LivePosition) ToMarker(now time.Time, w FreshnessWindows) (MarkerInput, bool) {
	m := MarkerInput{
		ID:              p.EmployeeID,
		Label:           p.EmployeeName,
		PrimaryStatus:   ActivityFor(p.ClockIn, p.ClockOut),
		SecondaryStatus: SecondaryNone,
	}

	switch {
	case p.PingLat != nil && p.PingLon != nil:
		m.Lat, m.Lon = *p.PingLat, *p.PingLon
		m.SecondaryStatus = FreshnessAt(p.PingAt, now, w)
	case p.ClockInLat != nil && p.ClockInLon != nil:
		m.Lat, m.Lon = *p.ClockInLat, *p.ClockInLon
	default:
		return MarkerInput{}, false
	}
	return m, true
}
