package livemap

import (
	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/paulmach/orb"
)

// SurfaceOptions configures a newly created surface.
type SurfaceOptions struct {
	Center      controlroom.LatLng
	Zoom        int
	ZoomControl bool
	Attribution bool
}

// FitOptions configures FitBounds.
type FitOptions struct {
	PaddingPx int
	MaxZoom   int
	Animate   bool
}

// Surface is a live pannable and zoomable map viewport.
type Surface interface {
	AddTileLayer(urlTemplate string)
	AddOverlay() Overlay
	SetView(center controlroom.LatLng, zoom int, animate bool)
	FitBounds(bounds orb.Bound, opts FitOptions)
	Center() controlroom.LatLng
	Zoom() int
	// InvalidateSize re-measures the container.
	InvalidateSize()
	Remove()
}

// Overlay is a layer holding drawn markers.
type Overlay interface {
	AddCircleMarker(key string, at controlroom.LatLng, style controlroom.MarkerStyle, callout string) MarkerHandle
	Clear()
}

// MarkerHandle is a drawn marker.
type MarkerHandle interface {
	OpenPopup()
}

// SurfaceFactory creates a surface for a mounting controller.
type SurfaceFactory func(opts SurfaceOptions) (Surface, error)
