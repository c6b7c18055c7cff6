package mapsurface

import (
	"math"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	tileSize = 256
	minZoom  = 0
	maxZoom  = 19

	// Web Mercator cannot represent the poles.
	maxMercatorLat = 85.0511287798
)

// halfWorld is half the Web Mercator world width in meters.
var halfWorld = math.Pi * orb.EarthRadius

func worldPixels(zoom int) float64 {
	return tileSize * math.Exp2(float64(zoom))
}

// normalize projects a coordinate into [0,1] world space with y growing south.
func normalize(p controlroom.LatLng) (x, y float64) {
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, p.Lat))
	m := project.WGS84.ToMercator(orb.Point{p.Lon, lat})
	x = (m.X() + halfWorld) / (2 * halfWorld)
	y = (halfWorld - m.Y()) / (2 * halfWorld)
	return x, y
}

func denormalize(x, y float64) controlroom.LatLng {
	y = math.Max(0, math.Min(1, y))
	m := orb.Point{x*2*halfWorld - halfWorld, halfWorld - y*2*halfWorld}
	return controlroom.LatLngFromPoint(project.Mercator.ToWGS84(m))
}

// fitView returns the center and the largest whole zoom at which bounds fit
// inside a width x height container minus padding on every side, capped at
// capZoom.
func fitView(b orb.Bound, width, height, padding, capZoom int) (controlroom.LatLng, int) {
	x0, y0 := normalize(controlroom.LatLngFromPoint(b.Min))
	x1, y1 := normalize(controlroom.LatLngFromPoint(b.Max))
	dx := math.Abs(x1 - x0)
	dy := math.Abs(y0 - y1)

	center := denormalize((x0+x1)/2, (y0+y1)/2)

	availW := float64(width - 2*padding)
	availH := float64(height - 2*padding)
	if availW <= 0 || availH <= 0 {
		return center, clampZoom(minZoom, capZoom)
	}

	zoom := capZoom
	if dx > 0 || dy > 0 {
		scale := math.Inf(1)
		if dx > 0 {
			scale = math.Min(scale, availW/(dx*tileSize))
		}
		if dy > 0 {
			scale = math.Min(scale, availH/(dy*tileSize))
		}
		zoom = int(math.Floor(math.Log2(scale)))
	}
	return center, clampZoom(zoom, capZoom)
}

// visibleBound returns the extent shown by a container centered at center.
func visibleBound(center controlroom.LatLng, zoom, width, height int) orb.Bound {
	cx, cy := normalize(center)
	world := worldPixels(zoom)
	hw := float64(width) / 2 / world
	hh := float64(height) / 2 / world

	sw := denormalize(cx-hw, cy+hh)
	ne := denormalize(cx+hw, cy-hh)
	return orb.Bound{Min: sw.Point(), Max: ne.Point()}
}

func clampZoom(zoom, capZoom int) int {
	if capZoom > maxZoom {
		capZoom = maxZoom
	}
	if zoom > capZoom {
		zoom = capZoom
	}
	if zoom < minZoom {
		zoom = minZoom
	}
	return zoom
}
