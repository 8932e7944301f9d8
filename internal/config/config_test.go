package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.NotificationTTL() != 4*time.Second {
		t.Errorf("expected 4s notification TTL, got %s", cfg.NotificationTTL())
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("expected CORS origins [*], got %v", cfg.CORSOrigins)
	}
	if cfg.MaxUploadBytes() != 50<<20 {
		t.Errorf("expected 50MB upload cap, got %d", cfg.MaxUploadBytes())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{StoreBackend: "memory"}},
		{name: "backend is case insensitive", cfg: Config{StoreBackend: " Memory "}},
		{name: "postgrest without url", cfg: Config{StoreBackend: "postgrest", SupabaseKey: "k"}, wantErr: true},
		{name: "postgrest without key", cfg: Config{StoreBackend: "postgrest", SupabaseURL: "https://x.supabase.co"}, wantErr: true},
		{name: "postgrest with key", cfg: Config{StoreBackend: "postgrest", SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"}},
		{name: "secret without project", cfg: Config{StoreBackend: "postgrest", SupabaseURL: "https://x.supabase.co", SupabaseKeySecret: "s"}, wantErr: true},
		{name: "secret with project", cfg: Config{StoreBackend: "postgrest", SupabaseURL: "https://x.supabase.co", SupabaseKeySecret: "s", GCPProjectID: "p"}},
		{name: "postgres without dsn", cfg: Config{StoreBackend: "postgres"}, wantErr: true},
		{name: "postgres with dsn", cfg: Config{StoreBackend: "postgres", DBConnectionString: "postgres://localhost/db"}},
		{name: "events without project", cfg: Config{StoreBackend: "memory", CourseEventsTopic: "t", EventsBackend: "pubsub"}, wantErr: true},
		{name: "events with project", cfg: Config{StoreBackend: "memory", CourseEventsTopic: "t", EventsBackend: "pubsub", GCPProjectID: "p"}},
		{name: "pgmq needs postgres", cfg: Config{StoreBackend: "memory", CourseEventsTopic: "t", EventsBackend: "pgmq"}, wantErr: true},
		{name: "pgmq on postgres", cfg: Config{StoreBackend: "postgres", DBConnectionString: "postgres://localhost/db", CourseEventsTopic: "t", EventsBackend: "pgmq"}},
		{name: "unknown events backend", cfg: Config{StoreBackend: "memory", CourseEventsTopic: "t", EventsBackend: "kafka"}, wantErr: true},
		{name: "events backend ignored without topic", cfg: Config{StoreBackend: "memory", EventsBackend: "kafka"}},
		{name: "unknown backend", cfg: Config{StoreBackend: "mongo"}, wantErr: true},
	}

	for _, test := range tests {
		err := test.cfg.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", test.name, err, test.wantErr)
		}
	}
}
