package repository

import (
	"context"
	"errors"
	"testing"

	"classroom/internal/model"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo(model.Course{ID: "a", Title: "Intro"})

	if _, err := repo.CreateCourse(ctx, &model.Course{ID: "b", Title: "Next"}); err != nil {
		t.Fatalf("CreateCourse returned error: %v", err)
	}
	if _, err := repo.CreateCourse(ctx, &model.Course{ID: "b", Title: "Dup"}); err == nil {
		t.Fatal("expected duplicate id to fail")
	}

	courses, err := repo.ListCourses(ctx)
	if err != nil {
		t.Fatalf("ListCourses returned error: %v", err)
	}
	if len(courses) != 2 || courses[0].ID != "a" || courses[1].ID != "b" {
		t.Fatalf("expected insertion order [a b], got %+v", courses)
	}

	files := []model.FileAttachment{{Name: "f.txt", Type: "text/plain", Size: 2, Data: "data:text/plain;base64,aGk="}}
	updated, err := repo.UpdateCourse(ctx, "a", model.CoursePatch{Files: &files})
	if err != nil {
		t.Fatalf("UpdateCourse returned error: %v", err)
	}
	if updated.Title != "Intro" || len(updated.Files) != 1 {
		t.Fatalf("expected partial update, got %+v", updated)
	}

	// Mutating the returned copy must not reach the store.
	updated.Files[0].Name = "changed"
	got, _ := repo.GetCourse(ctx, "a")
	if got.Files[0].Name != "f.txt" {
		t.Fatal("store leaked internal state")
	}

	if err := repo.DeleteCourse(ctx, "a"); err != nil {
		t.Fatalf("DeleteCourse returned error: %v", err)
	}
	if _, err := repo.GetCourse(ctx, "a"); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMemoryRepoInjectError(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	boom := &RequestFailedError{Op: OpList, Err: errors.New("boom")}
	repo.InjectError(OpList, boom)

	if _, err := repo.ListCourses(ctx); err != boom {
		t.Fatalf("expected injected error, got %v", err)
	}
	repo.InjectError(OpList, nil)
	if _, err := repo.ListCourses(ctx); err != nil {
		t.Fatalf("expected cleared error, got %v", err)
	}

	repo.DenyAll("script")
	_, err := repo.UpdateCourse(ctx, "x", model.CoursePatch{})
	if pd, ok := AsPermissionDenied(err); !ok || pd.Script != "script" {
		t.Fatalf("expected permission denied with script, got %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	pd := &PermissionDeniedError{Op: "list courses"}
	if pd.Error() != "list courses: permission denied" {
		t.Errorf("unexpected message %q", pd.Error())
	}
	rf := &RequestFailedError{Op: "get course", StatusCode: 500, Err: errors.New("boom")}
	if rf.Error() != "get course: request failed with status 500: boom" {
		t.Errorf("unexpected message %q", rf.Error())
	}
	if !errors.Is(failed("get course", 0, ErrCourseNotFound), ErrCourseNotFound) {
		t.Error("expected RequestFailedError to unwrap")
	}
}
