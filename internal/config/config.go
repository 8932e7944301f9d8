package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

// Course event sinks selectable with EVENTS_BACKEND.
const (
	EventsPubSub = "pubsub"
	EventsPGMQ   = "pgmq"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"production"`

	// Remote store settings
	StoreBackend       string `envconfig:"STORE_BACKEND" default:"postgrest"`
	SupabaseURL        string `envconfig:"SUPABASE_URL"`
	SupabaseKey        string `envconfig:"SUPABASE_KEY"`
	SupabaseKeySecret  string `envconfig:"SUPABASE_KEY_SECRET"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING"`
	StoreTimeoutSec    int    `envconfig:"STORE_TIMEOUT_SEC" default:"30"`

	// GCP settings
	GCPProjectID      string `envconfig:"GCP_PROJECT_ID"`
	CourseEventsTopic string `envconfig:"COURSE_EVENTS_TOPIC"`
	EventsBackend     string `envconfig:"EVENTS_BACKEND" default:"pubsub"`
	PubSubEmulator    string `envconfig:"PUBSUB_EMULATOR_HOST"`

	// Web settings
	SessionSecret      string   `envconfig:"SESSION_SECRET" default:"classroom-dev-session-secret"`
	CORSOrigins        []string `envconfig:"CORS_ORIGINS" default:"*"`
	NotificationTTLSec int      `envconfig:"NOTIFICATION_TTL_SEC" default:"4"`
	MaxUploadMB        int64    `envconfig:"MAX_UPLOAD_MB" default:"50"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected store backend has what it needs.
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendPostgREST:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the %s backend", c.StoreBackend)
		}
		if c.SupabaseKey == "" && c.SupabaseKeySecret == "" {
			return fmt.Errorf("SUPABASE_KEY or SUPABASE_KEY_SECRET is required for the %s backend", c.StoreBackend)
		}
		if c.SupabaseKeySecret != "" && c.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required to read SUPABASE_KEY_SECRET")
		}
	case BackendPostgres:
		if c.DBConnectionString == "" {
			return fmt.Errorf("DB_CONNECTION_STRING is required for the %s backend", c.StoreBackend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	c.EventsBackend = strings.ToLower(strings.TrimSpace(c.EventsBackend))
	if c.CourseEventsTopic == "" {
		return nil
	}
	switch c.EventsBackend {
	case EventsPubSub:
		if c.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required when COURSE_EVENTS_TOPIC is set")
		}
	case EventsPGMQ:
		if c.StoreBackend != BackendPostgres {
			return fmt.Errorf("EVENTS_BACKEND=pgmq needs STORE_BACKEND=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}
	return nil
}

// IsDevelopment reports whether ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// NotificationTTL is how long a toast stays visible.
func (c *Config) NotificationTTL() time.Duration {
	return time.Duration(c.NotificationTTLSec) * time.Second
}

// StoreTimeout bounds every remote store request.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSec) * time.Second
}

// MaxUploadBytes caps a single multipart upload.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
