package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/config"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	appHTTP "github.com/cmlabs-hris/hris-controlroom-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/livemap"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/overviewapi"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/repository/postgresql"
	controlRoomService "github.com/cmlabs-hris/hris-controlroom-go/internal/service/controlroom"
	"github.com/go-chi/httplog/v3"
)

const (
	appName    = "hris-controlroom"
	appVersion = "v1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Control room stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", appVersion),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var source controlroom.SnapshotRepository
	switch cfg.ControlRoom.SnapshotSource {
	case config.SnapshotSourcePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return fmt.Errorf("error connecting to database: %w", err)
		}
		defer db.Close()

		source = postgresql.NewControlRoomRepository(db, controlroom.FreshnessWindows{
			Live:  cfg.ControlRoom.LiveWindow,
			Stale: cfg.ControlRoom.StaleWindow,
		})
	case config.SnapshotSourceAPI:
		client := overviewapi.New(cfg.Overview.URL, cfg.Overview.APIKey, cfg.Overview.Timeout)
		if err := client.Healthcheck(ctx); err != nil {
			slog.Warn("Overview API not reachable yet", "url", cfg.Overview.URL, "error", err)
		}
		source = client
	default:
		return fmt.Errorf("unsupported snapshot source: %s", cfg.ControlRoom.SnapshotSource)
	}

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("error configuring jwt: %w", err)
	}

	hub := sse.NewHub(10)
	service := controlRoomService.NewControlRoomService(source, hub, m, controlRoomService.Config{
		MaxSessions:   cfg.ControlRoom.MaxSessions,
		IdleTimeout:   cfg.ControlRoom.IdleTimeout,
		DefaultWidth:  cfg.ControlRoom.ViewportWidth,
		DefaultHeight: cfg.ControlRoom.ViewportHeight,
		Map: livemap.Options{
			TileURL:        cfg.ControlRoom.TileURL,
			FallbackCenter: controlroom.LatLng{Lat: cfg.ControlRoom.FallbackLat, Lon: cfg.ControlRoom.FallbackLon},
			InitialZoom:    cfg.ControlRoom.InitialZoom,
			RelayoutDelay:  cfg.ControlRoom.RelayoutDelay,
		},
	})

	scheduler := cron.NewScheduler(m.ObserveJob)
	cron.NewControlRoomJobs(service, cfg.ControlRoom.PollInterval, cfg.ControlRoom.IdleTimeout).RegisterJobs(scheduler)
	scheduler.Start()

	controlRoomHandler := appHTTP.NewControlRoomHandler(service, JWTService)
	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		Logger:         logger,
		LogLevel:       cfg.SlogLevel(),
	}, JWTService, m, controlRoomHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "snapshot_source", cfg.ControlRoom.SnapshotSource)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	// Streams stay open until their session closes; stop the jobs and close
	// sessions first so handlers return before the server drains.
	scheduler.Stop()
	service.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("server shutdown: %w", err))
	}
	return runErr
}
