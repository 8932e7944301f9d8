package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"classroom/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// CourseRepository is the remote store for course records. Every method
// fails with either *PermissionDeniedError or *RequestFailedError.
type CourseRepository interface {
	// ListCourses returns every course in the order the store returns them
	ListCourses(ctx context.Context) ([]model.Course, error)
	// GetCourse retrieves a course by its ID
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	// CreateCourse inserts c and returns the stored record
	CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	// UpdateCourse applies a partial update and returns the stored record
	UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch) (*model.Course, error)
	// DeleteCourse deletes a course by its ID
	DeleteCourse(ctx context.Context, courseID string) error
}

type courseRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewCourseRepo creates a CourseRepository that talks to Postgres directly
// through the pgx driver.
func NewCourseRepo(db *sql.DB, logger zerolog.Logger) CourseRepository {
	return &courseRepo{
		db:     db,
		logger: logger.With().Str("repository", "CourseRepo").Logger(),
	}
}

// Nullable columns are coalesced so rows written by other clients still scan.
const courseColumns = `id, title, COALESCE(description, ''), COALESCE(image_url, ''),
	COALESCE(content_description, ''), COALESCE(files, '[]'::jsonb), COALESCE(progress, 0), COALESCE(tag, '')`

// ListCourses retrieves all courses
func (r *courseRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, r.translate("list courses", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, r.translate("list courses", err)
		}
		courses = append(courses, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, r.translate("list courses", err)
	}
	return courses, nil
}

// GetCourse retrieves a course by its ID
func (r *courseRepo) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	c, err := scanCourse(r.db.QueryRowContext(ctx, query, courseID))
	if err != nil {
		return nil, r.translate("get course", err)
	}
	return c, nil
}

// CreateCourse inserts a new course and returns the created record
func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	filesJSON, err := json.Marshal(model.CloneFiles(c.Files))
	if err != nil {
		return nil, failed("create course", 0, fmt.Errorf("failed to marshal files: %w", err))
	}
	query := `
		INSERT INTO courses (id, title, description, image_url, content_description, files, progress, tag)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
		RETURNING ` + courseColumns
	created, err := scanCourse(r.db.QueryRowContext(ctx, query,
		c.ID, c.Title, c.Description, c.ImageURL, c.ContentDescription, string(filesJSON), c.Progress, c.Tag))
	if err != nil {
		return nil, r.translate("create course", err)
	}
	return created, nil
}

// UpdateCourse updates the non-nil fields of patch and returns the updated record
func (r *courseRepo) UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch) (*model.Course, error) {
	if patch.IsEmpty() {
		return r.GetCourse(ctx, courseID)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any, cast string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, len(args), cast))
	}
	if patch.Title != nil {
		add("title", *patch.Title, "")
	}
	if patch.Description != nil {
		add("description", *patch.Description, "")
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL, "")
	}
	if patch.ContentDescription != nil {
		add("content_description", *patch.ContentDescription, "")
	}
	if patch.Files != nil {
		filesJSON, err := json.Marshal(model.CloneFiles(*patch.Files))
		if err != nil {
			return nil, failed("update course", 0, fmt.Errorf("failed to marshal files: %w", err))
		}
		add("files", string(filesJSON), "::jsonb")
	}
	if patch.Progress != nil {
		add("progress", model.ClampProgress(*patch.Progress), "")
	}
	if patch.Tag != nil {
		add("tag", *patch.Tag, "")
	}
	args = append(args, courseID)

	query := fmt.Sprintf(`UPDATE courses SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), courseColumns)
	updated, err := scanCourse(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, r.translate("update course", err)
	}
	return updated, nil
}

// DeleteCourse deletes a course by its ID
func (r *courseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, courseID); err != nil {
		return r.translate("delete course", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*model.Course, error) {
	var (
		c        model.Course
		rawFiles []byte
	)
	if err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.ImageURL,
		&c.ContentDescription,
		&rawFiles,
		&c.Progress,
		&c.Tag,
	); err != nil {
		return nil, err
	}
	c.Files = []model.FileAttachment{}
	if len(rawFiles) > 0 {
		if err := json.Unmarshal(rawFiles, &c.Files); err != nil {
			return nil, fmt.Errorf("failed to unmarshal files: %w", err)
		}
	}
	return &c, nil
}

// translate maps driver errors onto the repository error taxonomy.
func (r *courseRepo) translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return failed(op, 0, ErrCourseNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PermissionDeniedCode {
		r.logger.Warn().Str("op", op).Str("sqlstate", pgErr.Code).Msg("Row level security rejected statement")
		return denied(op, pgErr.Message)
	}
	r.logger.Error().Err(err).Str("op", op).Msg("Course query failed")
	return failed(op, 0, err)
}
