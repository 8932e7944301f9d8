package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"classroom/internal/model"

	"github.com/rs/zerolog"
)

// postgrestError is the error body PostgREST returns for a failed statement.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

type postgrestRepo struct {
	baseURL string
	apiKey  string
	table   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewPostgRESTRepo creates a CourseRepository backed by the Supabase REST
// endpoint at baseURL (for example https://<project>.supabase.co).
func NewPostgRESTRepo(baseURL, apiKey string, client *http.Client, logger zerolog.Logger) CourseRepository {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &postgrestRepo{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   "courses",
		client:  client,
		logger:  logger.With().Str("repository", "PostgRESTRepo").Logger(),
	}
}

func (r *postgrestRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	const op = "list courses"
	resp, err := r.do(ctx, op, http.MethodGet, url.Values{"select": {"*"}}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// A missing table answers 404; the dashboard treats that as empty.
	if resp.StatusCode == http.StatusNotFound {
		return []model.Course{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, r.statusError(op, resp)
	}
	return r.decodeRows(op, resp.Body)
}

func (r *postgrestRepo) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	const op = "get course"
	q := url.Values{"select": {"*"}, "id": {"eq." + courseID}}
	resp, err := r.do(ctx, op, http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, r.statusError(op, resp)
	}
	return r.firstRow(op, resp.Body)
}

func (r *postgrestRepo) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	const op = "create course"
	row := c.Clone()
	resp, err := r.do(ctx, op, http.MethodPost, nil, row)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, r.statusError(op, resp)
	}
	rows, err := r.decodeRows(op, resp.Body)
	if err != nil {
		return nil, err
	}
	// Without a returned representation the inserted payload is the record.
	if len(rows) == 0 {
		return &row, nil
	}
	return &rows[0], nil
}

func (r *postgrestRepo) UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch) (*model.Course, error) {
	const op = "update course"
	resp, err := r.do(ctx, op, http.MethodPatch, url.Values{"id": {"eq." + courseID}}, patch)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, r.statusError(op, resp)
	}
	return r.firstRow(op, resp.Body)
}

func (r *postgrestRepo) DeleteCourse(ctx context.Context, courseID string) error {
	const op = "delete course"
	resp, err := r.do(ctx, op, http.MethodDelete, url.Values{"id": {"eq." + courseID}}, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return r.statusError(op, resp)
	}
	return nil
}

func (r *postgrestRepo) do(ctx context.Context, op, method string, query url.Values, body any) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", r.baseURL, r.table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, failed(op, 0, fmt.Errorf("marshaling request body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, failed(op, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error().Err(err).Str("op", op).Msg("Request to remote store failed")
		return nil, failed(op, 0, fmt.Errorf("making request to remote store: %w", err))
	}
	r.logger.Debug().Str("op", op).Int("status_code", resp.StatusCode).Msg("Remote store responded")
	return resp, nil
}

func (r *postgrestRepo) statusError(op string, resp *http.Response) error {
	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		r.logger.Warn().Err(readErr).Int("status_code", resp.StatusCode).Msg("Failed to read error body from remote store")
		return failed(op, resp.StatusCode, fmt.Errorf("remote store returned status %d", resp.StatusCode))
	}

	var pgErr postgrestError
	if err := json.Unmarshal(bodyBytes, &pgErr); err == nil && pgErr.Code == PermissionDeniedCode {
		r.logger.Warn().Str("op", op).Str("code", pgErr.Code).Msg("Row level security rejected request")
		return denied(op, pgErr.Message)
	}

	msg := strings.TrimSpace(string(bodyBytes))
	if pgErr.Message != "" {
		msg = pgErr.Message
	}
	r.logger.Error().Str("op", op).Int("status_code", resp.StatusCode).Str("body", msg).Msg("Remote store returned error")
	return failed(op, resp.StatusCode, fmt.Errorf("%s", msg))
}

func (r *postgrestRepo) decodeRows(op string, body io.Reader) ([]model.Course, error) {
	var rows []model.Course
	if err := json.NewDecoder(body).Decode(&rows); err != nil {
		if err == io.EOF {
			return []model.Course{}, nil
		}
		return nil, failed(op, 0, fmt.Errorf("decoding response: %w", err))
	}
	for i := range rows {
		if rows[i].Files == nil {
			rows[i].Files = []model.FileAttachment{}
		}
	}
	if rows == nil {
		rows = []model.Course{}
	}
	return rows, nil
}

func (r *postgrestRepo) firstRow(op string, body io.Reader) (*model.Course, error) {
	rows, err := r.decodeRows(op, body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, failed(op, 0, ErrCourseNotFound)
	}
	return &rows[0], nil
}
