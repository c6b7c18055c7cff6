package controlroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/livemap"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/mapsurface"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	EventScene    = "scene"
	EventRelayout = "relayout"
	EventClosed   = "closed"
)

// Config tunes the session manager.
type Config struct {
	MaxSessions      int
	IdleTimeout      time.Duration
	DefaultWidth     int
	DefaultHeight    int
	FetchConcurrency int

	// Map carries the surface defaults every controller is built with.
	Map livemap.Options
}

type session struct {
	id        string
	companyID string
	userID    string
	ctrl      *livemap.Controller
	surface   *mapsurface.Surface
	lastSeen  time.Time
}

type ControlRoomServiceImpl struct {
	mu       sync.RWMutex
	sessions map[string]*session

	source  controlroom.SnapshotRepository
	hub     *sse.Hub
	metrics *metrics.Metrics
	cfg     Config
	now     func() time.Time
}

var _ controlroom.Service = (*ControlRoomServiceImpl)(nil)

func NewControlRoomService(source controlroom.SnapshotRepository, hub *sse.Hub, m *metrics.Metrics, cfg Config) *ControlRoomServiceImpl {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 200
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}
	if cfg.DefaultWidth <= 0 || cfg.DefaultHeight <= 0 {
		cfg.DefaultWidth, cfg.DefaultHeight = 960, 600
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 4
	}
	return &ControlRoomServiceImpl{
		sessions: make(map[string]*session),
		source:   source,
		hub:      hub,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *ControlRoomServiceImpl) fetchSnapshot(ctx context.Context, companyID string) ([]controlroom.MarkerInput, error) {
	start := time.Now()
	markers, err := s.source.ListMarkers(ctx, companyID, s.now())
	s.metrics.ObserveSnapshotFetch(time.Since(start), err)
	if err != nil {
		if errors.Is(err, controlroom.ErrSnapshotUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", controlroom.ErrSnapshotUnavailable, err)
	}
	return markers, nil
}

func (s *ControlRoomServiceImpl) publishScene(sess *session, event string) {
	s.hub.Publish(sess.id, sse.Event{Event: event, Data: sess.surface.Scene()})
}

// OpenSession implements controlroom.Service.
func (s *ControlRoomServiceImpl) OpenSession(ctx context.Context, req controlroom.OpenSessionRequest) (*controlroom.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	full := len(s.sessions) >= s.cfg.MaxSessions
	s.mu.RUnlock()
	if full {
		return nil, controlroom.ErrSessionLimitReached
	}

	markers, err := s.fetchSnapshot(ctx, principal.CompanyID)
	if err != nil {
		return nil, err
	}

	width, height := req.Width, req.Height
	if width == 0 && height == 0 {
		width, height = s.cfg.DefaultWidth, s.cfg.DefaultHeight
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	sess := &session{
		id:        id.String(),
		companyID: principal.CompanyID,
		userID:    principal.UserID,
		lastSeen:  s.now(),
	}

	opts := s.cfg.Map
	opts.Observer = s.metrics
	opts.Logger = slog.Default().With("session_id", sess.id, "company_id", sess.companyID)
	opts.OnRelayout = func() { s.publishScene(sess, EventRelayout) }

	sess.ctrl = livemap.NewController(mapsurface.Factory(width, height, func(surface *mapsurface.Surface) {
		sess.surface = surface
	}), opts)

	if err := sess.ctrl.Mount(markers); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		sess.ctrl.Dispose()
		return nil, controlroom.ErrSessionLimitReached
	}
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(active)
	slog.Info("Control room session opened",
		"session_id", sess.id, "company_id", sess.companyID, "user_id", sess.userID,
		"markers", len(markers), "width", width, "height", height)

	return &controlroom.SessionResponse{
		SessionID: sess.id,
		Scene:     sess.surface.Scene(),
	}, nil
}

// lookup finds a session owned by companyID and marks it as seen.
func (s *ControlRoomServiceImpl) lookup(companyID, sessionID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(companyID, sessionID)
}

func (s *ControlRoomServiceImpl) lookupLocked(companyID, sessionID string) (*session, error) {
	if !validator.IsValidUUID(sessionID) {
		return nil, controlroom.ErrSessionNotFound
	}

	sess, ok := s.sessions[sessionID]
	if !ok || sess.companyID != companyID {
		return nil, controlroom.ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *ControlRoomServiceImpl) getSession(ctx context.Context, sessionID string) (*session, error) {
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.lookup(principal.CompanyID, sessionID)
}

// CloseSession implements controlroom.Service.
func (s *ControlRoomServiceImpl) CloseSession(ctx context.Context, sessionID string) error {
	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sess.id)
	active := len(s.sessions)
	s.mu.Unlock()

	s.dispose(sess, "closed")
	s.metrics.SetActiveSessions(active)
	return nil
}

func (s *ControlRoomServiceImpl) dispose(sess *session, reason string) {
	sess.ctrl.Dispose()
	s.hub.Drop(sess.id, &sse.Event{Event: EventClosed, Data: map[string]string{
		"session_id": sess.id,
		"reason":     reason,
	}})
	slog.Info("Control room session closed", "session_id", sess.id, "company_id", sess.companyID, "reason", reason)
}

// PushSnapshot implements controlroom.Service.
func (s *ControlRoomServiceImpl) PushSnapshot(ctx context.Context, sessionID string, req controlroom.PushSnapshotRequest) (*controlroom.Scene, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.ctrl.Repaint(req.Markers)
	s.publishScene(sess, EventScene)

	scene := sess.surface.Scene()
	return &scene, nil
}

// Focus implements controlroom.Service.
func (s *ControlRoomServiceImpl) Focus(ctx context.Context, sessionID string, req controlroom.FocusRequest) (*controlroom.FocusResponse, error) {
	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var markerID string
	if req.MarkerID != nil {
		markerID = *req.MarkerID
	}

	found := sess.ctrl.Focus(markerID)
	if found {
		s.publishScene(sess, EventScene)
	}

	return &controlroom.FocusResponse{
		Found: found,
		Scene: sess.surface.Scene(),
	}, nil
}

// Resize implements controlroom.Service. The new size is measured by the
// delayed relayout, which publishes a relayout event when it lands.
func (s *ControlRoomServiceImpl) Resize(ctx context.Context, sessionID string, req controlroom.ResizeRequest) (*controlroom.Scene, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.surface.SetContainerSize(req.Width, req.Height)
	sess.ctrl.RequestRelayout()

	scene := sess.surface.Scene()
	return &scene, nil
}

// GetScene implements controlroom.Service.
func (s *ControlRoomServiceImpl) GetScene(ctx context.Context, sessionID string) (*controlroom.Scene, error) {
	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	scene := sess.surface.Scene()
	return &scene, nil
}

// GetGeoJSON implements controlroom.Service.
func (s *ControlRoomServiceImpl) GetGeoJSON(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.surface.MarshalGeoJSON()
}

// Subscribe implements controlroom.Service. The current scene is queued on
// the channel before it is returned.
//
// The subscriber is registered while s.mu is held, so a session removed by
// CloseSession, ReapIdle or Shutdown is either gone here or drops this
// subscriber when it is disposed.
func (s *ControlRoomServiceImpl) Subscribe(ctx context.Context, companyID string, sessionID string) (chan sse.Event, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupLocked(companyID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	ch, cleanup := s.hub.Subscribe(sess.id, &sse.Event{Event: EventScene, Data: sess.surface.Scene()})
	return ch, cleanup, nil
}

// RefreshAll implements controlroom.Service. Each company's snapshot is
// fetched once and painted into all of its sessions. A company whose fetch
// fails keeps its current overlay until the next run.
func (s *ControlRoomServiceImpl) RefreshAll(ctx context.Context) error {
	byCompany := make(map[string][]*session)
	s.mu.RLock()
	for _, sess := range s.sessions {
		byCompany[sess.companyID] = append(byCompany[sess.companyID], sess)
	}
	s.mu.RUnlock()

	if len(byCompany) == 0 {
		return nil
	}

	var (
		failMu   sync.Mutex
		failures []error
	)

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.FetchConcurrency)

	for companyID, sessions := range byCompany {
		g.Go(func() error {
			markers, err := s.fetchSnapshot(ctx, companyID)
			if err != nil {
				slog.Warn("Live map refresh skipped", "company_id", companyID, "sessions", len(sessions), "error", err)
				failMu.Lock()
				failures = append(failures, fmt.Errorf("company %s: %w", companyID, err))
				failMu.Unlock()
				return nil
			}

			for _, sess := range sessions {
				sess.ctrl.Repaint(markers)
				s.publishScene(sess, EventScene)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Debug("Live maps refreshed", "companies", len(byCompany), "failed", len(failures))
	return errors.Join(failures...)
}

// ReapIdle implements controlroom.Service. A session with an open stream is
// never idle.
func (s *ControlRoomServiceImpl) ReapIdle(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.IdleTimeout)

	var idle []*session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) && s.hub.SubscriberCount(id) == 0 {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range idle {
		s.dispose(sess, "idle")
	}
	if len(idle) > 0 {
		s.metrics.SetActiveSessions(active)
		slog.Info("Idle control room sessions reaped", "count", len(idle), "active", active)
	}
	return nil
}

// Shutdown implements controlroom.Service.
func (s *ControlRoomServiceImpl) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		s.dispose(sess, "shutdown")
	}
	s.metrics.SetActiveSessions(0)
}

// ActiveSessions returns the number of open sessions.
func (s *ControlRoomServiceImpl) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
