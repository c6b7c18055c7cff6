package controlroom

import (
	"fmt"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/validator"
)

const (
	MaxViewportPixels = 8192
	MaxSnapshotSize   = 5000
)

// MarkerStyle is the fixed visual tuple a marker is drawn with.
type MarkerStyle struct {
	Name        string  `json:"name"`
	Radius      int     `json:"radius"`
	StrokeColor string  `json:"stroke_color"`
	FillColor   string  `json:"fill_color"`
	FillOpacity float64 `json:"fill_opacity"`
	Weight      int     `json:"weight"`
}

// ========== REQUESTS ==========

type OpenSessionRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r *OpenSessionRequest) Validate() error {
	return validateViewport(r.Width, r.Height, true)
}

type ResizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r *ResizeRequest) Validate() error {
	return validateViewport(r.Width, r.Height, false)
}

func validateViewport(width, height int, optional bool) error {
	var errs validator.ValidationErrors

	if optional && width == 0 && height == 0 {
		return nil
	}
	if width <= 0 || width > MaxViewportPixels {
		errs = append(errs, validator.ValidationError{
			Field:   "width",
			Message: fmt.Sprintf("width must be between 1 and %d", MaxViewportPixels),
		})
	}
	if height <= 0 || height > MaxViewportPixels {
		errs = append(errs, validator.ValidationError{
			Field:   "height",
			Message: fmt.Sprintf("height must be between 1 and %d", MaxViewportPixels),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PushSnapshotRequest struct {
	Markers []MarkerInput `json:"markers"`
}

func (r *PushSnapshotRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Markers) > MaxSnapshotSize {
		errs = append(errs, validator.ValidationError{
			Field:   "markers",
			Message: fmt.Sprintf("markers must not exceed %d entries", MaxSnapshotSize),
		})
		return errs
	}

	seen := make(map[string]struct{}, len(r.Markers))
	for i, m := range r.Markers {
		field := fmt.Sprintf("markers[%d]", i)

		if validator.IsEmpty(m.ID) {
			errs = append(errs, validator.ValidationError{Field: field + ".id", Message: "id is required"})
		} else if _, dup := seen[m.ID]; dup {
			errs = append(errs, validator.ValidationError{Field: field + ".id", Message: "id must be unique within a snapshot"})
		} else {
			seen[m.ID] = struct{}{}
		}
		if !validator.IsValidLatitude(m.Lat) {
			errs = append(errs, validator.ValidationError{Field: field + ".lat", Message: "lat must be a finite number between -90 and 90"})
		}
		if !validator.IsValidLongitude(m.Lon) {
			errs = append(errs, validator.ValidationError{Field: field + ".lon", Message: "lon must be a finite number between -180 and 180"})
		}
		if !m.PrimaryStatus.IsValid() {
			errs = append(errs, validator.ValidationError{Field: field + ".primary_status", Message: "unknown primary_status"})
		}
		if !m.SecondaryStatus.IsValid() {
			errs = append(errs, validator.ValidationError{Field: field + ".secondary_status", Message: "unknown secondary_status"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FocusRequest carries a nullable marker id. A nil or empty id is a no-op.
type FocusRequest struct {
	MarkerID *string `json:"marker_id"`
}

// ========== RESPONSES ==========

// Scene is the full render state of one session's surface.
type Scene struct {
	Center      LatLng        `json:"center"`
	Zoom        int           `json:"zoom"`
	Bounds      *SceneBounds  `json:"bounds,omitempty"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	TileURL     string        `json:"tile_url"`
	Markers     []SceneMarker `json:"markers"`
	OpenPopupID *string       `json:"open_popup_id,omitempty"`
	Relayouts   int           `json:"relayouts"`
	Destroyed   bool          `json:"destroyed"`
}

// SceneBounds is the geographic extent currently visible.
type SceneBounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

type SceneMarker struct {
	ID        string      `json:"id"`
	Position  LatLng      `json:"position"`
	Style     MarkerStyle `json:"style"`
	Callout   string      `json:"callout"`
	PopupOpen bool        `json:"popup_open"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	Scene     Scene  `json:"scene"`
}

type FocusResponse struct {
	Found bool  `json:"found"`
	Scene Scene `json:"scene"`
}

// StreamTokenResponse represents the short-lived SSE token
type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// HasValidCoordinates reports whether m can be placed on a map.
func (m MarkerInput) HasValidCoordinates() bool {
	return validator.IsValidLatitude(m.Lat) && validator.IsValidLongitude(m.Lon)
}
