package mapsurface

import (
	"encoding/json"
	"sync"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/livemap"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Surface is a headless map viewport. It keeps the state a browser map would
// hold (center, zoom, container size, drawn markers, open popup) so the scene
// can be serialized and replayed by a thin client renderer.
//
// Calls on a removed surface are ignored.
type Surface struct {
	mu sync.RWMutex

	center      controlroom.LatLng
	zoom        int
	zoomControl bool
	attribution bool
	tileURL     string

	// width/height are the measured size used for fitting; the container
	// size only takes effect on InvalidateSize.
	width           int
	height          int
	containerWidth  int
	containerHeight int

	overlays    []*Overlay
	openPopup   *Marker
	relayouts   int
	lastAnimate bool
	removed     bool
}

// New creates a surface measured at width x height pixels.
func New(opts livemap.SurfaceOptions, width, height int) *Surface {
	return &Surface{
		center:          opts.Center,
		zoom:            clampZoom(opts.Zoom, maxZoom),
		zoomControl:     opts.ZoomControl,
		attribution:     opts.Attribution,
		width:           width,
		height:          height,
		containerWidth:  width,
		containerHeight: height,
	}
}

// Factory returns a livemap.SurfaceFactory creating surfaces of the given
// size. created, if non-nil, receives every surface built.
func Factory(width, height int, created func(*Surface)) livemap.SurfaceFactory {
	return func(opts livemap.SurfaceOptions) (livemap.Surface, error) {
		s := New(opts, width, height)
		if created != nil {
			created(s)
		}
		return s, nil
	}
}

func (s *Surface) AddTileLayer(urlTemplate string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return
	}
	s.tileURL = urlTemplate
}

func (s *Surface) AddOverlay() livemap.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &Overlay{surface: s}
	if !s.removed {
		s.overlays = append(s.overlays, o)
	}
	return o
}

func (s *Surface) SetView(center controlroom.LatLng, zoom int, animate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return
	}
	s.center = center
	s.zoom = clampZoom(zoom, maxZoom)
	s.lastAnimate = animate
}

func (s *Surface) FitBounds(bounds orb.Bound, opts livemap.FitOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return
	}
	s.center, s.zoom = fitView(bounds, s.width, s.height, opts.PaddingPx, opts.MaxZoom)
	s.lastAnimate = opts.Animate
}

func (s *Surface) Center() controlroom.LatLng {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.center
}

func (s *Surface) Zoom() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoom
}

func (s *Surface) InvalidateSize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return
	}
	s.width, s.height = s.containerWidth, s.containerHeight
	s.relayouts++
}

func (s *Surface) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = true
	s.overlays = nil
	s.openPopup = nil
}

// SetContainerSize records a new container size. It is measured on the next
// InvalidateSize.
func (s *Surface) SetContainerSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containerWidth, s.containerHeight = width, height
}

// Size returns the measured size.
func (s *Surface) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// VisibleBounds returns the geographic extent currently in view.
func (s *Surface) VisibleBounds() orb.Bound {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return visibleBound(s.center, s.zoom, s.width, s.height)
}

func (s *Surface) Relayouts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relayouts
}

func (s *Surface) LastAnimated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAnimate
}

func (s *Surface) Removed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.removed
}

// Scene snapshots the full render state.
func (s *Surface) Scene() controlroom.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scene := controlroom.Scene{
		Center:    s.center,
		Zoom:      s.zoom,
		Width:     s.width,
		Height:    s.height,
		TileURL:   s.tileURL,
		Markers:   []controlroom.SceneMarker{},
		Relayouts: s.relayouts,
		Destroyed: s.removed,
	}
	if s.removed {
		return scene
	}

	b := visibleBound(s.center, s.zoom, s.width, s.height)
	scene.Bounds = &controlroom.SceneBounds{
		South: b.Min.Lat(),
		West:  b.Min.Lon(),
		North: b.Max.Lat(),
		East:  b.Max.Lon(),
	}

	for _, o := range s.overlays {
		for _, m := range o.markers {
			open := m == s.openPopup
			if open {
				id := m.key
				scene.OpenPopupID = &id
			}
			scene.Markers = append(scene.Markers, controlroom.SceneMarker{
				ID:        m.key,
				Position:  m.at,
				Style:     m.style,
				Callout:   m.callout,
				PopupOpen: open,
			})
		}
	}
	return scene
}

// FeatureCollection exports the drawn markers as GeoJSON points.
func (s *Surface) FeatureCollection() *geojson.FeatureCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, o := range s.overlays {
		for _, m := range o.markers {
			f := geojson.NewFeature(m.at.Point())
			f.ID = m.key
			f.Properties["style"] = m.style.Name
			f.Properties["radius"] = m.style.Radius
			f.Properties["stroke_color"] = m.style.StrokeColor
			f.Properties["fill_color"] = m.style.FillColor
			f.Properties["fill_opacity"] = m.style.FillOpacity
			f.Properties["weight"] = m.style.Weight
			f.Properties["callout"] = m.callout
			f.Properties["popup_open"] = m == s.openPopup
			fc.Append(f)
		}
	}
	return fc
}

// MarshalGeoJSON encodes FeatureCollection.
func (s *Surface) MarshalGeoJSON() ([]byte, error) {
	return json.Marshal(s.FeatureCollection())
}

// Overlay is a marker layer on a headless surface.
type Overlay struct {
	surface *Surface
	markers []*Marker
}

func (o *Overlay) AddCircleMarker(key string, at controlroom.LatLng, style controlroom.MarkerStyle, callout string) livemap.MarkerHandle {
	o.surface.mu.Lock()
	defer o.surface.mu.Unlock()

	m := &Marker{overlay: o, key: key, at: at, style: style, callout: callout}
	if !o.surface.removed {
		o.markers = append(o.markers, m)
	}
	return m
}

// Clear removes every marker; an open popup bound to one of them closes.
func (o *Overlay) Clear() {
	o.surface.mu.Lock()
	defer o.surface.mu.Unlock()

	if o.surface.openPopup != nil && o.surface.openPopup.overlay == o {
		o.surface.openPopup = nil
	}
	o.markers = nil
}

func (o *Overlay) Len() int {
	o.surface.mu.RLock()
	defer o.surface.mu.RUnlock()
	return len(o.markers)
}

// Marker is a drawn circle marker.
type Marker struct {
	overlay *Overlay
	key     string
	at      controlroom.LatLng
	style   controlroom.MarkerStyle
	callout string
}

// OpenPopup opens this marker's callout, closing any other.
func (m *Marker) OpenPopup() {
	s := m.overlay.surface
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return
	}
	for _, existing := range m.overlay.markers {
		if existing == m {
			s.openPopup = m
			return
		}
	}
}
