package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv            string
	DatabaseURL       string
	NATSURL           string
	NATSSubjectPrefix string
	FrameRate         float64
	LogNATSSubjects   bool
	MetricsAddr       string
	HTTPAddr          string
	DirectionsURL     string
	MapboxToken       string
	PolicyFile        string
	RouteFile         string
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.AppEnv = getenvDefault("APP_ENV", "development")

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars.
	// Empty disables route and session persistence.
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if dsn == "" {
		if db := os.Getenv("PGDATABASE"); db != "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
	} else {
		cfg.DatabaseURL = dsn
	}

	// Empty NATS_URL disables publishing; frames then go to a log-only sink.
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "navigation")
	if strings.ContainsAny(cfg.NATSSubjectPrefix, " *>") {
		return nil, fmt.Errorf("invalid NATS_SUBJECT_PREFIX: %q", cfg.NATSSubjectPrefix)
	}

	// Frame rate
	if v := os.Getenv("FRAME_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 240 {
			return nil, fmt.Errorf("invalid FRAME_RATE: %q", v)
		}
		cfg.FrameRate = f
	} else {
		cfg.FrameRate = 60
	}

	// Debug logging for NATS publish subjects
	cfg.LogNATSSubjects = parseBool(os.Getenv("LOG_NATS_SUBJECTS"))

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")

	cfg.DirectionsURL = getenvDefault("DIRECTIONS_URL", "https://api.mapbox.com/directions/v5/mapbox/driving")
	cfg.MapboxToken = firstNonEmpty(os.Getenv("MAPBOX_ACCESS_TOKEN"), os.Getenv("MAPBOX_TOKEN"))

	cfg.PolicyFile = os.Getenv("POLICY_FILE")
	cfg.RouteFile = os.Getenv("ROUTE_FILE")
	if cfg.RouteFile != "" {
		if _, err := os.Stat(cfg.RouteFile); err != nil {
			return nil, fmt.Errorf("ROUTE_FILE: %w", err)
		}
	}

	return cfg, nil
}

// Persistence reports whether a database is configured.
func (c *Config) Persistence() bool { return c.DatabaseURL != "" }

// ErrNoToken is returned when directions are requested without an access token.
var ErrNoToken = errors.New("MAPBOX_ACCESS_TOKEN must be set to request directions")

// RequireDirections checks the directions settings before a client is built.
func (c *Config) RequireDirections() error {
	if c.MapboxToken == "" {
		return ErrNoToken
	}
	return nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
