package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"classroom/internal/config"
	"classroom/internal/model"
	"classroom/internal/repository"

	"github.com/rs/zerolog"
)

type publishedMessage struct {
	topic   string
	payload []byte
	attrs   map[string]string
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, publishedMessage{topic: topic, payload: payload, attrs: attrs})
	return "msg-1", nil
}

func newTestService(repo repository.CourseRepository, pub *fakePublisher) CourseService {
	if pub == nil {
		return NewCourseService(repo, nil, "", time.Second, zerolog.New(io.Discard))
	}
	return NewCourseService(repo, pub, "course-events", time.Second, zerolog.New(io.Discard))
}

func TestCreateCourseAssignsIDAndDefaults(t *testing.T) {
	repo := repository.NewMemoryRepo()
	svc := newTestService(repo, nil)

	created, err := svc.CreateCourse(context.Background(), &model.Course{Title: "  Intro  ", Description: " basics ", Progress: 140})
	if err != nil {
		t.Fatalf("CreateCourse returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if created.Title != "Intro" || created.Description != "basics" {
		t.Fatalf("expected trimmed fields, got %q / %q", created.Title, created.Description)
	}
	if created.Tag != model.DefaultTag {
		t.Fatalf("expected default tag %q, got %q", model.DefaultTag, created.Tag)
	}
	if created.Progress != 100 {
		t.Fatalf("expected progress clamped to 100, got %d", created.Progress)
	}
	if created.ImageURL != "" {
		t.Fatalf("expected image_url to stay empty, got %q", created.ImageURL)
	}
	if created.Files == nil {
		t.Fatal("expected files to be an empty list, not nil")
	}
}

func TestBlankTitleIsRejected(t *testing.T) {
	repo := repository.NewMemoryRepo(model.Course{ID: "a", Title: "Intro"})
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if _, err := svc.CreateCourse(ctx, &model.Course{Title: "   "}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired on create, got %v", err)
	}
	if _, err := svc.UpdateCourse(ctx, "a", model.CoursePatch{Title: model.StringPtr("  ")}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired on update, got %v", err)
	}

	courses, err := svc.ListCourses(ctx)
	if err != nil {
		t.Fatalf("ListCourses returned error: %v", err)
	}
	if len(courses) != 1 || courses[0].Title != "Intro" {
		t.Fatalf("expected the store untouched, got %+v", courses)
	}
}

func TestCreateCoursePublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(repository.NewMemoryRepo(), pub)

	created, err := svc.CreateCourse(context.Background(), &model.Course{Title: "Intro"})
	if err != nil {
		t.Fatalf("CreateCourse returned error: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.topic != "course-events" || msg.attrs["type"] != EventCourseCreated {
		t.Fatalf("unexpected message %+v", msg)
	}
	var evt CourseEvent
	if err := json.Unmarshal(msg.payload, &evt); err != nil {
		t.Fatalf("event payload is not JSON: %v", err)
	}
	if evt.CourseID != created.ID {
		t.Fatalf("expected event for %s, got %s", created.ID, evt.CourseID)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &fakePublisher{err: errors.New("pubsub down")}
	repo := repository.NewMemoryRepo(model.Course{ID: "a", Title: "Intro"})
	svc := newTestService(repo, pub)

	if err := svc.DeleteCourse(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteCourse returned error: %v", err)
	}
	courses, _ := repo.ListCourses(context.Background())
	if len(courses) != 0 {
		t.Fatalf("expected course deleted, got %d left", len(courses))
	}
}

func TestPermissionDeniedIsReturnedUnchanged(t *testing.T) {
	repo := repository.NewMemoryRepo()
	repo.DenyAll("fix it")
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	_, err := svc.CreateCourse(context.Background(), &model.Course{Title: "Intro"})
	pd, ok := repository.AsPermissionDenied(err)
	if !ok {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if pd.Script != "fix it" {
		t.Fatalf("expected script to survive, got %q", pd.Script)
	}
	if len(pub.messages) != 0 {
		t.Fatal("expected no event for a failed mutation")
	}
}

func TestUpdateCourseTrimsTitle(t *testing.T) {
	repo := repository.NewMemoryRepo(model.Course{ID: "a", Title: "Intro"})
	svc := newTestService(repo, nil)

	updated, err := svc.UpdateCourse(context.Background(), "a", model.CoursePatch{Title: model.StringPtr(" Advanced ")})
	if err != nil {
		t.Fatalf("UpdateCourse returned error: %v", err)
	}
	if updated.Title != "Advanced" {
		t.Fatalf("expected trimmed title, got %q", updated.Title)
	}
}

func TestResolveSupabaseKey(t *testing.T) {
	cfg := &config.Config{SupabaseKey: "plain"}
	key, err := ResolveSupabaseKey(context.Background(), cfg, nil)
	if err != nil || key != "plain" {
		t.Fatalf("expected plain key, got %q, %v", key, err)
	}

	cfg = &config.Config{SupabaseKeySecret: "supabase-key"}
	if _, err := ResolveSupabaseKey(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without a secret manager")
	}

	key, err = ResolveSupabaseKey(context.Background(), cfg, fakeSecrets{"supabase-key": "from-secret"})
	if err != nil || key != "from-secret" {
		t.Fatalf("expected key from secret manager, got %q, %v", key, err)
	}
}

func TestSecretVersionName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"supabase-key", "projects/p/secrets/supabase-key/versions/latest"},
		{"projects/other/secrets/k", "projects/other/secrets/k/versions/latest"},
		{"projects/other/secrets/k/versions/3", "projects/other/secrets/k/versions/3"},
	}
	for _, test := range tests {
		if got := secretVersionName("p", test.name); got != test.expected {
			t.Errorf("secretVersionName(%q) = %q, expected %q", test.name, got, test.expected)
		}
	}
}

func TestNewSecretManagerServiceInvalidProject(t *testing.T) {
	if _, err := NewSecretManagerService(context.Background(), &config.Config{}); err == nil {
		t.Fatal("expected error when project ID is empty")
	}
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(ctx context.Context, name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func (f fakeSecrets) Close() error { return nil }
