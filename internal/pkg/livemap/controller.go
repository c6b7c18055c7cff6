package livemap

import (
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/paulmach/orb"
)

// Viewport rules applied on repaint and focus, plus the Options defaults.
const (
	SingleMarkerZoom     = 15
	FitMaxZoom           = 15
	FitPaddingPx         = 26
	FocusMinZoom         = 14
	DefaultInitialZoom   = 12
	DefaultRelayoutDelay = 80 * time.Millisecond
	DefaultTileURL       = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
)

// DefaultFallbackCenter is used when the first snapshot is empty.
var DefaultFallbackCenter = controlroom.LatLng{Lat: 39.92077, Lon: 32.85411}

// State is the lifecycle state of a Controller.
type State int

// Lifecycle states. Dispose moves a ready Controller to StateDestroyed.
const (
	StateUnmounted State = iota
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnmounted:
		return "unmounted"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Observer receives repaint and focus outcomes.
type Observer interface {
	ObserveRepaint(markers int)
	ObserveFocus(found bool)
}

type Options struct {
	TileURL        string
	FallbackCenter controlroom.LatLng
	InitialZoom    int
	RelayoutDelay  time.Duration
	Logger         *slog.Logger
	Observer       Observer

	// OnRelayout runs after the delayed relayout has been applied.
	OnRelayout func()
}

type renderedMarker struct {
	handle  MarkerHandle
	display controlroom.LatLng
}

// Controller owns one surface for the lifetime of a mount. It repaints the
// overlay wholesale on every snapshot and focuses rendered markers by id.
// All methods are safe for concurrent use; surface mutation is serialized.
type Controller struct {
	mu         sync.Mutex
	newSurface SurfaceFactory
	opts       Options
	logger     *slog.Logger

	state   State
	surface Surface
	overlay Overlay
	handles map[string]renderedMarker

	relayout    *time.Timer
	relayoutGen uint64
}

func NewController(newSurface SurfaceFactory, opts Options) *Controller {
	if opts.TileURL == "" {
		opts.TileURL = DefaultTileURL
	}
	if opts.FallbackCenter == (controlroom.LatLng{}) {
		opts.FallbackCenter = DefaultFallbackCenter
	}
	if opts.InitialZoom <= 0 {
		opts.InitialZoom = DefaultInitialZoom
	}
	if opts.RelayoutDelay <= 0 {
		opts.RelayoutDelay = DefaultRelayoutDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		newSurface: newSurface,
		opts:       opts,
		logger:     logger,
		state:      StateUnmounted,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mount creates the surface if none exists and paints the first snapshot.
// The surface is centered on the first marker, or on the fallback center
// when the snapshot is empty. Mounting after Dispose creates a new surface.
func (c *Controller) Mount(markers []controlroom.MarkerInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		center := c.opts.FallbackCenter
		if len(markers) > 0 {
			center = markers[0].Position()
		}

		surface, err := c.newSurface(SurfaceOptions{
			Center:      center,
			Zoom:        c.opts.InitialZoom,
			ZoomControl: true,
			Attribution: false,
		})
		if err != nil {
			return fmt.Errorf("failed to create map surface: %w", err)
		}

		surface.AddTileLayer(c.opts.TileURL)
		c.surface = surface
		c.overlay = surface.AddOverlay()
		c.handles = make(map[string]renderedMarker)
		c.state = StateReady

		c.logger.Info("Live map mounted", "center_lat", center.Lat, "center_lon", center.Lon, "zoom", c.opts.InitialZoom)
	}

	c.repaintLocked(markers)
	return nil
}

// Repaint replaces the overlay contents with a new snapshot and fits the
// viewport to it. It is a no-op when no surface is mounted.
func (c *Controller) Repaint(markers []controlroom.MarkerInput) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		c.logger.Debug("Repaint ignored, no mounted surface", "state", c.state.String())
		return
	}
	c.repaintLocked(markers)
}

func (c *Controller) repaintLocked(markers []controlroom.MarkerInput) {
	c.overlay.Clear()
	c.handles = make(map[string]renderedMarker, len(markers))

	prepared := Prepare(markers)
	for _, p := range prepared {
		handle := c.overlay.AddCircleMarker(p.Input.ID, p.Display, p.Style, Callout(p.Input))
		c.handles[p.Input.ID] = renderedMarker{handle: handle, display: p.Display}
	}

	switch {
	case len(prepared) == 1:
		c.surface.SetView(prepared[0].Display, SingleMarkerZoom, true)
	case len(prepared) > 1:
		points := make(orb.MultiPoint, 0, len(prepared))
		for _, p := range prepared {
			points = append(points, p.Display.Point())
		}
		c.surface.FitBounds(points.Bound(), FitOptions{
			PaddingPx: FitPaddingPx,
			MaxZoom:   FitMaxZoom,
			Animate:   true,
		})
	}

	c.scheduleRelayoutLocked()

	if c.opts.Observer != nil {
		c.opts.Observer.ObserveRepaint(len(prepared))
	}
	c.logger.Debug("Live map repainted", "markers", len(prepared))
}

// Focus pans to a rendered marker and opens its callout. The zoom never
// decreases. It reports whether the marker was found; an empty id or an id
// that is not rendered leaves the viewport untouched.
func (c *Controller) Focus(markerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if markerID == "" || c.surface == nil {
		return false
	}

	rendered, ok := c.handles[markerID]
	if !ok {
		if c.opts.Observer != nil {
			c.opts.Observer.ObserveFocus(false)
		}
		c.logger.Debug("Focus target not rendered", "marker_id", markerID)
		return false
	}

	c.surface.SetView(rendered.display, max(c.surface.Zoom(), FocusMinZoom), true)
	rendered.handle.OpenPopup()

	if c.opts.Observer != nil {
		c.opts.Observer.ObserveFocus(true)
	}
	return true
}

// DisplayPosition returns where a marker is currently drawn.
func (c *Controller) DisplayPosition(markerID string) (controlroom.LatLng, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rendered, ok := c.handles[markerID]
	return rendered.display, ok
}

// RequestRelayout schedules a delayed re-measure of the container, replacing
// any pending one.
func (c *Controller) RequestRelayout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return
	}
	c.scheduleRelayoutLocked()
}

func (c *Controller) scheduleRelayoutLocked() {
	if c.relayout != nil {
		c.relayout.Stop()
	}
	c.relayoutGen++
	gen := c.relayoutGen
	c.relayout = time.AfterFunc(c.opts.RelayoutDelay, func() {
		c.runRelayout(gen)
	})
}

func (c *Controller) runRelayout(gen uint64) {
	c.mu.Lock()
	if gen != c.relayoutGen || c.surface == nil {
		c.mu.Unlock()
		return
	}
	c.surface.InvalidateSize()
	hook := c.opts.OnRelayout
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Dispose cancels the pending relayout and removes the surface.
// It is safe to call more than once.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.relayout != nil {
		c.relayout.Stop()
		c.relayout = nil
	}
	c.relayoutGen++

	if c.surface == nil {
		return
	}

	c.surface.Remove()
	c.surface = nil
	c.overlay = nil
	c.handles = nil
	c.state = StateDestroyed

	c.logger.Info("Live map disposed")
}

// Callout renders the popup body for a marker from its raw input coordinate.
func Callout(m controlroom.MarkerInput) string {
	return fmt.Sprintf("<strong>%s</strong><br>%.5f, %.5f", html.EscapeString(m.Label), m.Lat, m.Lon)
}
