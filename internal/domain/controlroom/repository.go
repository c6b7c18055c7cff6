package controlroom

import (
	"context"
	"time"
)

// SnapshotRepository supplies the current marker snapshot for a company.
// Implementations return markers in a stable order.
type SnapshotRepository interface {
	// ListMarkers returns every mappable employee of the company as of now
	ListMarkers(ctx context.Context, companyID string, now time.Time) ([]MarkerInput, error)
}
