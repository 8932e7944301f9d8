package repository

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"

	"classroom/internal/model"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

func TestCourseRepoWithPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("TEST_DB_CONNECTION_STRING is not set, skip Postgres integration test")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			image_url TEXT DEFAULT '',
			content_description TEXT DEFAULT '',
			files JSONB DEFAULT '[]',
			progress INTEGER DEFAULT 0,
			tag TEXT DEFAULT 'AIS+'
		)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	repo := NewCourseRepo(db, zerolog.New(io.Discard))
	id := uuid.NewString()
	defer repo.DeleteCourse(ctx, id)

	created, err := repo.CreateCourse(ctx, &model.Course{ID: id, Title: "Intro", Progress: 40, Tag: "AIS+"})
	if err != nil {
		t.Fatalf("CreateCourse returned error: %v", err)
	}
	if created.ID != id || created.Progress != 40 || created.Files == nil {
		t.Fatalf("unexpected created row %+v", created)
	}

	files := []model.FileAttachment{{Name: "a.txt", Type: "text/plain", Size: 2, Data: "data:text/plain;base64,aGk="}}
	updated, err := repo.UpdateCourse(ctx, id, model.CoursePatch{ContentDescription: model.StringPtr("X"), Files: &files})
	if err != nil {
		t.Fatalf("UpdateCourse returned error: %v", err)
	}
	if updated.ContentDescription != "X" || len(updated.Files) != 1 || updated.Title != "Intro" {
		t.Fatalf("unexpected updated row %+v", updated)
	}

	if _, err := repo.UpdateCourse(ctx, uuid.NewString(), model.CoursePatch{Title: model.StringPtr("x")}); !IsNotFound(err) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}

	if err := repo.DeleteCourse(ctx, id); err != nil {
		t.Fatalf("DeleteCourse returned error: %v", err)
	}
}
