package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	LogLevel       slog.Level
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, m *metrics.Metrics, controlRoomHandler ControlRoomHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(m.Middleware)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/v1/control-room", func(r chi.Router) {
		// EventSource cannot set headers; the stream authenticates with a
		// short-lived token in the query string instead
		r.Get("/sessions/{sessionID}/stream", controlRoomHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequirePermission(user.PermissionControlRoomView))

			r.Get("/stream-token", controlRoomHandler.GetStreamToken)

			r.Route("/sessions", func(r chi.Router) {
				r.With(chiMiddleware.AllowContentType("application/json")).Post("/", controlRoomHandler.OpenSession)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", controlRoomHandler.GetScene)
					r.Get("/geojson", controlRoomHandler.GetGeoJSON)
					r.Post("/focus", controlRoomHandler.Focus)
					r.Put("/viewport", controlRoomHandler.Resize)
					r.Delete("/", controlRoomHandler.CloseSession)

					// Pushing a foreign snapshot overrides the polled source
					r.With(middleware.RequirePermission(user.PermissionControlRoomPush)).
						Put("/markers", controlRoomHandler.PushSnapshot)
				})
			})
		})
	})
	return r
}
