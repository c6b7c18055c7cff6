package controlroom

import (
	"time"

	"github.com/paulmach/orb"
)

// PrimaryStatus is the activity state of an employee for the current work day.
type PrimaryStatus string

const (
	PrimaryNotStarted PrimaryStatus = "NOT_STARTED"
	PrimaryInProgress PrimaryStatus = "IN_PROGRESS"
	PrimaryFinished   PrimaryStatus = "FINISHED"
)

// SecondaryStatus is the freshness of the last known position.
type SecondaryStatus string

const (
	SecondaryLive    SecondaryStatus = "LIVE"
	SecondaryStale   SecondaryStatus = "STALE"
	SecondaryDormant SecondaryStatus = "DORMANT"
	SecondaryNone    SecondaryStatus = "NONE"
)

var (
	PrimaryStatuses   = []PrimaryStatus{PrimaryNotStarted, PrimaryInProgress, PrimaryFinished}
	SecondaryStatuses = []SecondaryStatus{SecondaryLive, SecondaryStale, SecondaryDormant, SecondaryNone}
)

func (s PrimaryStatus) IsValid() bool {
	switch s {
	case PrimaryNotStarted, PrimaryInProgress, PrimaryFinished:
		return true
	}
	return false
}

func (s SecondaryStatus) IsValid() bool {
	switch s {
	case SecondaryLive, SecondaryStale, SecondaryDormant, SecondaryNone:
		return true
	}
	return false
}

// LatLng is a WGS84 coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point converts to an orb point (X = lon, Y = lat).
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Lon, l.Lat}
}

func LatLngFromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lon: p.Lon()}
}

// MarkerInput is one geo-tagged person in a snapshot.
// IDs are unique within a snapshot.
type MarkerInput struct {
	ID              string          `json:"id"`
	Lat             float64         `json:"lat"`
	Lon             float64         `json:"lon"`
	Label           string          `json:"label"`
	PrimaryStatus   PrimaryStatus   `json:"primary_status"`
	SecondaryStatus SecondaryStatus `json:"secondary_status"`
}

func (m MarkerInput) Position() LatLng {
	return LatLng{Lat: m.Lat, Lon: m.Lon}
}

// LivePosition is a row read by a snapshot source before it is classified.
type LivePosition struct {
	EmployeeID   string
	EmployeeName string
	ClockIn      *time.Time
	ClockOut     *time.Time
	ClockInLat   *float64
	ClockInLon   *float64
	PingLat      *float64
	PingLon      *float64
	PingAt       *time.Time
}
