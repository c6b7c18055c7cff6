package livemap

import "github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"

var (
	// StyleActiveLive marks someone working right now with a live position.
	StyleActiveLive = controlroom.MarkerStyle{
		Name:        "active_live",
		Radius:      10,
		StrokeColor: "#b91c1c",
		FillColor:   "#ef4444",
		FillOpacity: 0.9,
		Weight:      3,
	}

	StyleStale = controlroom.MarkerStyle{
		Name:        "stale",
		Radius:      8,
		StrokeColor: "#b45309",
		FillColor:   "#f59e0b",
		FillOpacity: 0.85,
		Weight:      2,
	}

	StyleAbsent = controlroom.MarkerStyle{
		Name:        "absent",
		Radius:      8,
		StrokeColor: "#9f1239",
		FillColor:   "#fb7185",
		FillOpacity: 0.8,
		Weight:      2,
	}

	StyleDormant = controlroom.MarkerStyle{
		Name:        "dormant",
		Radius:      7,
		StrokeColor: "#475569",
		FillColor:   "#cbd5e1",
		FillOpacity: 0.25,
		Weight:      2,
	}

	StyleDefault = controlroom.MarkerStyle{
		Name:        "default",
		Radius:      7,
		StrokeColor: "#1d4ed8",
		FillColor:   "#3b82f6",
		FillOpacity: 0.75,
		Weight:      2,
	}
)

// Classify picks a style for a status pair. Rules are evaluated in priority
// order and the first match wins.
func Classify(primary controlroom.PrimaryStatus, secondary controlroom.SecondaryStatus) controlroom.MarkerStyle {
	switch {
	case primary == controlroom.PrimaryInProgress && secondary == controlroom.SecondaryLive:
		return StyleActiveLive
	case secondary == controlroom.SecondaryStale:
		return StyleStale
	case primary == controlroom.PrimaryNotStarted:
		return StyleAbsent
	case secondary == controlroom.SecondaryDormant:
		return StyleDormant
	default:
		return StyleDefault
	}
}
