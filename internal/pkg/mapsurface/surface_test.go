package mapsurface

import (
	"encoding/json"
	"testing"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/livemap"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSurface() *Surface {
	return New(livemap.SurfaceOptions{
		Center:      controlroom.LatLng{Lat: -6.2, Lon: 106.8},
		Zoom:        12,
		ZoomControl: true,
	}, 960, 600)
}

func TestFitView(t *testing.T) {
	tests := []struct {
		name    string
		bound   orb.Bound
		cap     int
		wantMax int
	}{
		{
			name:    "city block",
			bound:   orb.Bound{Min: orb.Point{106.80, -6.21}, Max: orb.Point{106.82, -6.19}},
			cap:     15,
			wantMax: 15,
		},
		{
			name:    "whole province",
			bound:   orb.Bound{Min: orb.Point{105.0, -8.0}, Max: orb.Point{109.0, -5.0}},
			cap:     15,
			wantMax: 15,
		},
		{
			name:    "two coincident markers spread apart",
			bound:   orb.Bound{Min: orb.Point{32.85393, 39.92077}, Max: orb.Point{32.85429, 39.92095}},
			cap:     15,
			wantMax: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			center, zoom := fitView(tt.bound, 960, 600, 26, tt.cap)
			assert.LessOrEqual(t, zoom, tt.wantMax)
			assert.GreaterOrEqual(t, zoom, minZoom)

			visible := visibleBound(center, zoom, 960, 600)
			assert.True(t, visible.Contains(tt.bound.Min), "min corner outside view")
			assert.True(t, visible.Contains(tt.bound.Max), "max corner outside view")

			if zoom < tt.cap {
				tighter := visibleBound(center, zoom+1, 960-52, 600-52)
				fitsTighter := tighter.Contains(tt.bound.Min) && tighter.Contains(tt.bound.Max)
				assert.False(t, fitsTighter, "zoom %d is not the largest fitting zoom", zoom)
			}
		})
	}
}

func TestFitView_PointBoundUsesCap(t *testing.T) {
	p := orb.Point{32.85411, 39.92077}
	center, zoom := fitView(orb.Bound{Min: p, Max: p}, 960, 600, 26, 15)

	assert.Equal(t, 15, zoom)
	assert.InDelta(t, 39.92077, center.Lat, 1e-9)
	assert.InDelta(t, 32.85411, center.Lon, 1e-9)
}

func TestFitView_TinyContainer(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	_, zoom := fitView(b, 40, 40, 26, 15)
	assert.Equal(t, minZoom, zoom)
}

func TestProjectionRoundTrip(t *testing.T) {
	for _, p := range []controlroom.LatLng{
		{Lat: 0, Lon: 0},
		{Lat: 39.92077, Lon: 32.85411},
		{Lat: -6.2, Lon: 106.8},
		{Lat: 60.1699, Lon: -24.9384},
	} {
		x, y := normalize(p)
		got := denormalize(x, y)
		assert.InDelta(t, p.Lat, got.Lat, 1e-9)
		assert.InDelta(t, p.Lon, got.Lon, 1e-9)
	}
}

func TestClampZoom(t *testing.T) {
	assert.Equal(t, 0, clampZoom(-3, 15))
	assert.Equal(t, 15, clampZoom(18, 15))
	assert.Equal(t, maxZoom, clampZoom(25, 30))
	assert.Equal(t, 9, clampZoom(9, 15))
}

func TestSurface_SetViewClampsZoom(t *testing.T) {
	s := newTestSurface()

	s.SetView(controlroom.LatLng{Lat: 1, Lon: 2}, 42, true)
	assert.Equal(t, maxZoom, s.Zoom())
	assert.Equal(t, controlroom.LatLng{Lat: 1, Lon: 2}, s.Center())
	assert.True(t, s.LastAnimated())
}

func TestSurface_ContainerSizeAppliedOnInvalidate(t *testing.T) {
	s := newTestSurface()
	s.SetContainerSize(1280, 720)

	w, h := s.Size()
	assert.Equal(t, 960, w)
	assert.Equal(t, 600, h)

	s.InvalidateSize()

	w, h = s.Size()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
	assert.Equal(t, 1, s.Relayouts())
}

func TestSurface_PopupRules(t *testing.T) {
	s := newTestSurface()
	o := s.AddOverlay()

	a := o.AddCircleMarker("a", controlroom.LatLng{Lat: -6.2, Lon: 106.8}, livemap.StyleDefault, "A")
	b := o.AddCircleMarker("b", controlroom.LatLng{Lat: -6.3, Lon: 106.9}, livemap.StyleStale, "B")

	a.OpenPopup()
	require.NotNil(t, s.Scene().OpenPopupID)
	assert.Equal(t, "a", *s.Scene().OpenPopupID)

	b.OpenPopup()
	scene := s.Scene()
	assert.Equal(t, "b", *scene.OpenPopupID)
	assert.False(t, scene.Markers[0].PopupOpen)
	assert.True(t, scene.Markers[1].PopupOpen)

	o.Clear()
	assert.Nil(t, s.Scene().OpenPopupID)

	// a stale handle cannot reopen a cleared marker
	a.OpenPopup()
	assert.Nil(t, s.Scene().OpenPopupID)
}

func TestSurface_SceneCarriesBoundsAndTiles(t *testing.T) {
	s := newTestSurface()
	s.AddTileLayer("https://tiles.example.com/{z}/{x}/{y}.png")
	o := s.AddOverlay()
	o.AddCircleMarker("a", controlroom.LatLng{Lat: -6.2, Lon: 106.8}, livemap.StyleActiveLive, "A")

	scene := s.Scene()
	assert.Equal(t, "https://tiles.example.com/{z}/{x}/{y}.png", scene.TileURL)
	assert.Equal(t, 960, scene.Width)
	assert.Equal(t, 600, scene.Height)
	require.NotNil(t, scene.Bounds)
	assert.Less(t, scene.Bounds.South, -6.2)
	assert.Greater(t, scene.Bounds.North, -6.2)
	assert.Less(t, scene.Bounds.West, 106.8)
	assert.Greater(t, scene.Bounds.East, 106.8)
	require.Len(t, scene.Markers, 1)
	assert.Equal(t, livemap.StyleActiveLive, scene.Markers[0].Style)
}

func TestSurface_FeatureCollection(t *testing.T) {
	s := newTestSurface()
	o := s.AddOverlay()
	o.AddCircleMarker("emp-1", controlroom.LatLng{Lat: -6.2, Lon: 106.8}, livemap.StyleDormant, "<strong>Ayu</strong>")
	o.AddCircleMarker("emp-2", controlroom.LatLng{Lat: -6.3, Lon: 106.9}, livemap.StyleDefault, "<strong>Budi</strong>").OpenPopup()

	raw, err := s.MarshalGeoJSON()
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, "emp-1", first.ID)
	assert.Equal(t, orb.Point{106.8, -6.2}, first.Geometry)
	assert.Equal(t, "dormant", first.Properties.MustString("style"))
	assert.False(t, first.Properties.MustBool("popup_open"))
	assert.True(t, fc.Features[1].Properties.MustBool("popup_open"))

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "FeatureCollection", generic["type"])
}

func TestSurface_RemovedIgnoresCalls(t *testing.T) {
	s := newTestSurface()
	o := s.AddOverlay()
	m := o.AddCircleMarker("a", controlroom.LatLng{Lat: -6.2, Lon: 106.8}, livemap.StyleDefault, "A")

	s.Remove()
	center, zoom := s.Center(), s.Zoom()

	s.SetView(controlroom.LatLng{Lat: 10, Lon: 10}, 3, false)
	s.FitBounds(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, livemap.FitOptions{PaddingPx: 26, MaxZoom: 15})
	s.InvalidateSize()
	m.OpenPopup()
	o.AddCircleMarker("b", controlroom.LatLng{Lat: 1, Lon: 1}, livemap.StyleDefault, "B")

	assert.True(t, s.Removed())
	assert.Equal(t, center, s.Center())
	assert.Equal(t, zoom, s.Zoom())
	assert.Equal(t, 0, s.Relayouts())

	scene := s.Scene()
	assert.True(t, scene.Destroyed)
	assert.Empty(t, scene.Markers)
	assert.Nil(t, scene.Bounds)
}
