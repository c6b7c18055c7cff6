package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

const streamKeepalive = 30 * time.Second

// ControlRoomHandler defines the live map handler interface
type ControlRoomHandler interface {
	OpenSession(w http.ResponseWriter, r *http.Request)
	GetScene(w http.ResponseWriter, r *http.Request)
	GetGeoJSON(w http.ResponseWriter, r *http.Request)
	PushSnapshot(w http.ResponseWriter, r *http.Request)
	Focus(w http.ResponseWriter, r *http.Request)
	Resize(w http.ResponseWriter, r *http.Request)
	CloseSession(w http.ResponseWriter, r *http.Request)

	// SSE
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type controlRoomHandlerImpl struct {
	service    controlroom.Service
	jwtService jwt.Service
	keepalive  time.Duration
}

func NewControlRoomHandler(service controlroom.Service, jwtService jwt.Service) ControlRoomHandler {
	return &controlRoomHandlerImpl{
		service:    service,
		jwtService: jwtService,
		keepalive:  streamKeepalive,
	}
}

// decodeJSON decodes an optional JSON body; an empty body leaves dst as is.
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *controlRoomHandlerImpl) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req controlroom.OpenSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.OpenSession(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Control room session opened", resp)
}

func (h *controlRoomHandlerImpl) GetScene(w http.ResponseWriter, r *http.Request) {
	scene, err := h.service.GetScene(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, scene)
}

func (h *controlRoomHandlerImpl) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	raw, err := h.service.GetGeoJSON(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *controlRoomHandlerImpl) PushSnapshot(w http.ResponseWriter, r *http.Request) {
	var req controlroom.PushSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	scene, err := h.service.PushSnapshot(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Snapshot painted", scene)
}

func (h *controlRoomHandlerImpl) Focus(w http.ResponseWriter, r *http.Request) {
	var req controlroom.FocusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Focus(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

func (h *controlRoomHandlerImpl) Resize(w http.ResponseWriter, r *http.Request) {
	var req controlroom.ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	scene, err := h.service.Resize(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Relayout scheduled", scene)
}

func (h *controlRoomHandlerImpl) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Control room session closed", nil)
}

// GetStreamToken generates a short-lived token for the scene stream
func (h *controlRoomHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	principal, err := jwt.PrincipalFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(principal)
	if err != nil {
		slog.Error("Failed to generate stream token", "user_id", principal.UserID, "error", err)
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, controlroom.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes scene updates for one session over SSE
func (h *controlRoomHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send headers, so the token rides in the query
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	principal, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	events, cleanup, err := h.service.Subscribe(r.Context(), principal.CompanyID, sessionID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"session_id\":%q}\n\n", sessionID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Warn("Dropping unencodable stream event", "session_id", sessionID, "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
