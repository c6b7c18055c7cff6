package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/validator"
	"github.com/joho/godotenv"
)

const (
	SnapshotSourcePostgres = "postgres"
	SnapshotSourceAPI      = "api"
)

var appEnvironments = []string{"development", "staging", "production"}

type Config struct {
	Database    DatabaseConfig
	JWT         JWTConfig
	App         AppConfig
	Overview    OverviewAPIConfig
	ControlRoom ControlRoomConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

// OverviewAPIConfig points at the HRIS backend when snapshots are read over
// HTTP instead of from the database.
type OverviewAPIConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// ControlRoomConfig tunes the live map sessions.
type ControlRoomConfig struct {
	SnapshotSource string
	PollInterval   time.Duration
	IdleTimeout    time.Duration
	MaxSessions    int
	RelayoutDelay  time.Duration
	TileURL        string
	FallbackLat    float64
	FallbackLon    float64
	InitialZoom    int
	ViewportWidth  int
	ViewportHeight int
	LiveWindow     time.Duration
	StaleWindow    time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	p := &parser{}
	config := &Config{}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     p.int("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.App = AppConfig{
		Port:               p.int("APP_PORT", "8080"),
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Overview = OverviewAPIConfig{
		URL:     getEnv("OVERVIEW_API_URL", ""),
		APIKey:  getEnv("OVERVIEW_API_KEY", ""),
		Timeout: p.duration("OVERVIEW_API_TIMEOUT", "10s"),
	}

	config.ControlRoom = ControlRoomConfig{
		SnapshotSource: strings.ToLower(getEnv("SNAPSHOT_SOURCE", SnapshotSourcePostgres)),
		PollInterval:   p.duration("CONTROL_ROOM_POLL_INTERVAL", "20s"),
		IdleTimeout:    p.duration("CONTROL_ROOM_SESSION_IDLE_TIMEOUT", "10m"),
		MaxSessions:    p.int("CONTROL_ROOM_MAX_SESSIONS", "200"),
		RelayoutDelay:  p.duration("CONTROL_ROOM_RELAYOUT_DELAY", "80ms"),
		TileURL:        getEnv("CONTROL_ROOM_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		FallbackLat:    p.float("CONTROL_ROOM_FALLBACK_LAT", "39.92077"),
		FallbackLon:    p.float("CONTROL_ROOM_FALLBACK_LON", "32.85411"),
		InitialZoom:    p.int("CONTROL_ROOM_INITIAL_ZOOM", "12"),
		ViewportWidth:  p.int("CONTROL_ROOM_VIEWPORT_WIDTH", "960"),
		ViewportHeight: p.int("CONTROL_ROOM_VIEWPORT_HEIGHT", "600"),
		LiveWindow:     p.duration("CONTROL_ROOM_LIVE_WINDOW", "5m"),
		StaleWindow:    p.duration("CONTROL_ROOM_STALE_WINDOW", "30m"),
	}

	if p.err != nil {
		return nil, p.err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}

	if !validator.IsInSlice(c.App.Env, appEnvironments) {
		return fmt.Errorf("APP_ENV must be one of %v, got %q", appEnvironments, c.App.Env)
	}

	switch c.ControlRoom.SnapshotSource {
	case SnapshotSourcePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required when SNAPSHOT_SOURCE is %s", SnapshotSourcePostgres)
		}
	case SnapshotSourceAPI:
		if c.Overview.URL == "" {
			return fmt.Errorf("OVERVIEW_API_URL is required when SNAPSHOT_SOURCE is %s", SnapshotSourceAPI)
		}
		if c.Overview.Timeout <= 0 {
			return fmt.Errorf("OVERVIEW_API_TIMEOUT must be positive")
		}
	default:
		return fmt.Errorf("SNAPSHOT_SOURCE must be %q or %q, got %q", SnapshotSourcePostgres, SnapshotSourceAPI, c.ControlRoom.SnapshotSource)
	}

	cr := c.ControlRoom
	if cr.PollInterval <= 0 || cr.IdleTimeout <= 0 || cr.RelayoutDelay <= 0 {
		return fmt.Errorf("control room intervals must be positive")
	}
	if cr.MaxSessions <= 0 {
		return fmt.Errorf("CONTROL_ROOM_MAX_SESSIONS must be positive")
	}
	if cr.ViewportWidth <= 0 || cr.ViewportHeight <= 0 {
		return fmt.Errorf("CONTROL_ROOM_VIEWPORT_WIDTH and CONTROL_ROOM_VIEWPORT_HEIGHT must be positive")
	}
	if cr.LiveWindow <= 0 || cr.StaleWindow < cr.LiveWindow {
		return fmt.Errorf("CONTROL_ROOM_LIVE_WINDOW must be positive and not exceed CONTROL_ROOM_STALE_WINDOW")
	}
	if !validator.IsValidLatitude(cr.FallbackLat) || !validator.IsValidLongitude(cr.FallbackLon) {
		return fmt.Errorf("CONTROL_ROOM_FALLBACK_LAT/LON out of range")
	}
	if cr.InitialZoom < 0 || cr.InitialZoom > 19 {
		return fmt.Errorf("CONTROL_ROOM_INITIAL_ZOOM must be between 0 and 19")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	err error
}

func (p *parser) int(key, fallback string) int {
	v, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		p.err = errors.Join(p.err, fmt.Errorf("invalid %s: %w", key, err))
	}
	return v
}

func (p *parser) float(key, fallback string) float64 {
	v, err := strconv.ParseFloat(getEnv(key, fallback), 64)
	if err != nil {
		p.err = errors.Join(p.err, fmt.Errorf("invalid %s: %w", key, err))
	}
	return v
}

func (p *parser) duration(key, fallback string) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		p.err = errors.Join(p.err, fmt.Errorf("invalid %s: %w", key, err))
	}
	return v
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
