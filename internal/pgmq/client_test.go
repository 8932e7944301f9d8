package pgmq

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestPublishToQueue(t *testing.T) {
	dsn := os.Getenv("TEST_DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("TEST_DB_CONNECTION_STRING is not set, skip pgmq integration test")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS pgmq"); err != nil {
		t.Skipf("pgmq extension unavailable: %v", err)
	}

	client := New(db)
	const queue = "course_events_test"
	if err := client.EnsureQueue(ctx, queue); err != nil {
		t.Fatalf("EnsureQueue returned error: %v", err)
	}
	defer db.ExecContext(ctx, "SELECT pgmq.drop_queue($1)", queue)

	id, err := client.Publish(ctx, queue, []byte(`{"type":"course.created","course_id":"c1"}`), map[string]string{"type": "course.created"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		t.Errorf("expected numeric message id, got %q", id)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM pgmq.q_"+queue).Scan(&count); err != nil {
		t.Fatalf("failed to count queue rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 queued message, got %d", count)
	}
}
