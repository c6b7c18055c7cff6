package livemap

import (
	"math"
	"strconv"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
)

const (
	// OffsetDegrees is the radius of the circle coincident markers are spread on (~20 m).
	OffsetDegrees = 0.00018

	// groupKeyDigits is the rounding precision used to detect coincident markers (~0.11 m).
	groupKeyDigits = 6
)

// PreparedMarker is a marker ready to draw.
type PreparedMarker struct {
	Input   controlroom.MarkerInput
	Display controlroom.LatLng
	Style   controlroom.MarkerStyle
}

// GroupKey identifies the rounded coordinate a marker belongs to. Two markers
// collide if and only if their keys are equal.
func GroupKey(lat, lon float64) string {
	return roundedString(lat) + "," + roundedString(lon)
}

func roundedString(v float64) string {
	scale := math.Pow(10, groupKeyDigits)
	r := math.Round(v*scale) / scale
	if r == 0 {
		// collapse -0 so that tiny negative and positive values share a key
		r = 0
	}
	return strconv.FormatFloat(r, 'f', groupKeyDigits, 64)
}

// Prepare declusters and styles a snapshot. Markers keep their input order.
// Members of a group of N > 1 coincident markers are placed evenly on a circle
// of OffsetDegrees around the true coordinate, in input order starting at
// angle 0. Non-finite coordinates are not checked.
func Prepare(markers []controlroom.MarkerInput) []PreparedMarker {
	totals := make(map[string]int, len(markers))
	keys := make([]string, len(markers))
	for i, m := range markers {
		keys[i] = GroupKey(m.Lat, m.Lon)
		totals[keys[i]]++
	}

	cursors := make(map[string]int)
	prepared := make([]PreparedMarker, 0, len(markers))
	for i, m := range markers {
		key := keys[i]
		display := m.Position()

		if total := totals[key]; total > 1 {
			display = Offset(display, cursors[key], total)
			cursors[key]++
		}

		prepared = append(prepared, PreparedMarker{
			Input:   m,
			Display: display,
			Style:   Classify(m.PrimaryStatus, m.SecondaryStatus),
		})
	}
	return prepared
}

// Offset returns the position of member index of a group of size total.
func Offset(origin controlroom.LatLng, index, total int) controlroom.LatLng {
	angle := 2 * math.Pi * float64(index) / float64(total)
	return controlroom.LatLng{
		Lat: origin.Lat + math.Sin(angle)*OffsetDegrees,
		Lon: origin.Lon + math.Cos(angle)*OffsetDegrees,
	}
}
