package dashboard

import (
	"io"
	"testing"
	"time"

	"classroom/internal/repository"

	"github.com/rs/zerolog"
)

func TestRegistryPerSession(t *testing.T) {
	repo := repository.NewMemoryRepo()
	factory := func() *Dashboard { return New(repo, zerolog.New(io.Discard)) }
	r := NewRegistry(factory, time.Minute, zerolog.New(io.Discard))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	a := r.Get("session-a")
	if r.Get("session-a") != a {
		t.Fatal("expected the same dashboard for the same session")
	}
	if r.Get("session-b") == a {
		t.Fatal("expected a separate dashboard per session")
	}

	now = now.Add(30 * time.Second)
	r.Get("session-b")
	now = now.Add(45 * time.Second)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("expected one idle session evicted, got %d", n)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one live session, got %d", r.Len())
	}
	if r.Get("session-a") == a {
		t.Fatal("expected a fresh dashboard after eviction")
	}
}
