package controlroom

import (
	"fmt"
	"math"
	"testing"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	return errs.ToMap()
}

func TestOpenSessionRequest_Validate(t *testing.T) {
	assert.NoError(t, (&OpenSessionRequest{}).Validate(), "zero size falls back to the default")
	assert.NoError(t, (&OpenSessionRequest{Width: 1280, Height: 720}).Validate())

	fields := validationFields(t, (&OpenSessionRequest{Width: 1280}).Validate())
	assert.Contains(t, fields, "height")
	assert.NotContains(t, fields, "width")

	fields = validationFields(t, (&OpenSessionRequest{Width: MaxViewportPixels + 1, Height: -1}).Validate())
	assert.Contains(t, fields, "width")
	assert.Contains(t, fields, "height")
}

func TestResizeRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ResizeRequest{Width: 1, Height: MaxViewportPixels}).Validate())

	fields := validationFields(t, (&ResizeRequest{}).Validate())
	assert.Len(t, fields, 2)
}

func TestPushSnapshotRequest_Validate(t *testing.T) {
	valid := MarkerInput{ID: "a", Lat: 1, Lon: 2, PrimaryStatus: PrimaryFinished, SecondaryStatus: SecondaryNone}

	t.Run("empty snapshot", func(t *testing.T) {
		assert.NoError(t, (&PushSnapshotRequest{}).Validate())
	})

	t.Run("valid markers", func(t *testing.T) {
		b := valid
		b.ID = "b"
		assert.NoError(t, (&PushSnapshotRequest{Markers: []MarkerInput{valid, b}}).Validate())
	})

	t.Run("field errors are indexed", func(t *testing.T) {
		bad := MarkerInput{
			ID:              "",
			Lat:             math.NaN(),
			Lon:             181,
			PrimaryStatus:   "SLEEPING",
			SecondaryStatus: "",
		}
		fields := validationFields(t, (&PushSnapshotRequest{Markers: []MarkerInput{valid, bad, valid}}).Validate())

		assert.Equal(t, map[string]string{
			"markers[1].id":               "id is required",
			"markers[1].lat":              "lat must be a finite number between -90 and 90",
			"markers[1].lon":              "lon must be a finite number between -180 and 180",
			"markers[1].primary_status":   "unknown primary_status",
			"markers[1].secondary_status": "unknown secondary_status",
			"markers[2].id":               "id must be unique within a snapshot",
		}, fields)
	})

	t.Run("oversized snapshot", func(t *testing.T) {
		markers := make([]MarkerInput, MaxSnapshotSize+1)
		for i := range markers {
			markers[i] = valid
			markers[i].ID = fmt.Sprintf("m%d", i)
		}
		fields := validationFields(t, (&PushSnapshotRequest{Markers: markers}).Validate())
		assert.Contains(t, fields, "markers")
	})
}

func TestMarkerInput_HasValidCoordinates(t *testing.T) {
	assert.True(t, MarkerInput{Lat: -90, Lon: 180}.HasValidCoordinates())
	assert.False(t, MarkerInput{Lat: 91}.HasValidCoordinates())
	assert.False(t, MarkerInput{Lon: math.Inf(-1)}.HasValidCoordinates())
}
