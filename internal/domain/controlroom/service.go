package controlroom

import (
	"context"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/sse"
)

// Service defines the control room live-map operations
type Service interface {
	// OpenSession mounts a new live map for the caller's company
	OpenSession(ctx context.Context, req OpenSessionRequest) (*SessionResponse, error)

	// CloseSession disposes the session's surface
	CloseSession(ctx context.Context, sessionID string) error

	// PushSnapshot repaints the session with an externally supplied snapshot
	PushSnapshot(ctx context.Context, sessionID string, req PushSnapshotRequest) (*Scene, error)

	// Focus pans to a rendered marker and opens its callout
	Focus(ctx context.Context, sessionID string, req FocusRequest) (*FocusResponse, error)

	// Resize updates the container size picked up by the next relayout
	Resize(ctx context.Context, sessionID string, req ResizeRequest) (*Scene, error)

	GetScene(ctx context.Context, sessionID string) (*Scene, error)
	GetGeoJSON(ctx context.Context, sessionID string) ([]byte, error)

	// Subscribe returns scene events for the session and a cleanup function.
	// The company is passed explicitly because streams authenticate with a
	// stream token instead of the request JWT.
	Subscribe(ctx context.Context, companyID string, sessionID string) (chan sse.Event, func(), error)

	// RefreshAll repaints every open session from the snapshot source
	RefreshAll(ctx context.Context) error

	// ReapIdle disposes sessions nobody has touched within the idle timeout
	ReapIdle(ctx context.Context) error

	// Shutdown disposes every session
	Shutdown()
}
