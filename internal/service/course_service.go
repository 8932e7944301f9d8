package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"classroom/internal/model"
	"classroom/internal/pubsub"
	"classroom/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Course event types published after a successful mutation.
const (
	EventCourseCreated = "course.created"
	EventCourseUpdated = "course.updated"
	EventCourseDeleted = "course.deleted"
)

// ErrTitleRequired rejects a course whose title is blank after trimming.
var ErrTitleRequired = errors.New("title is required")

// CourseEvent is the payload published to COURSE_EVENTS_TOPIC.
type CourseEvent struct {
	Type     string    `json:"type"`
	CourseID string    `json:"course_id"`
	Title    string    `json:"title,omitempty"`
	At       time.Time `json:"at"`
}

// CourseService defines the four remote store operations the dashboard
// consumes. Errors from the repository are returned unchanged so callers can
// tell a permission failure from any other.
type CourseService interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	// GetCourse retrieves a course by its ID
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	// UpdateCourse applies a partial update
	UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch) (*model.Course, error)
	// DeleteCourse deletes a course by its ID
	DeleteCourse(ctx context.Context, courseID string) error
}

// courseService is the implementation of CourseService
type courseService struct {
	repo      repository.CourseRepository
	publisher pubsub.Publisher
	topic     string
	timeout   time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCourseService creates a new CourseService. publisher may be nil, in which
// case no events are published. A positive timeout bounds each store call.
func NewCourseService(repo repository.CourseRepository, publisher pubsub.Publisher, topic string, timeout time.Duration, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		publisher: publisher,
		topic:     topic,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger.With().Str("service", "CourseService").Logger(),
	}
}

func (s *courseService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// ListCourses returns every course
func (s *courseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.ListCourses(ctx)
}

func (s *courseService) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.GetCourse(ctx, courseID)
}

// CreateCourse assigns an id and defaults, then stores the course
func (s *courseService) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	course := c.Clone()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.Title = strings.TrimSpace(course.Title)
	if course.Title == "" {
		return nil, ErrTitleRequired
	}
	course.Description = strings.TrimSpace(course.Description)
	if course.Tag == "" {
		course.Tag = model.DefaultTag
	}
	course.Progress = model.ClampProgress(course.Progress)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	created, err := s.repo.CreateCourse(ctx, &course)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventCourseCreated, created.ID, created.Title)
	return created, nil
}

// UpdateCourse forwards the non-nil patch fields to the store
func (s *courseService) UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch) (*model.Course, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		patch.Title = &title
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	updated, err := s.repo.UpdateCourse(ctx, courseID, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventCourseUpdated, updated.ID, updated.Title)
	return updated, nil
}

// DeleteCourse deletes a course by its ID
func (s *courseService) DeleteCourse(ctx context.Context, courseID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.repo.DeleteCourse(ctx, courseID); err != nil {
		return err
	}
	s.publish(ctx, EventCourseDeleted, courseID, "")
	return nil
}

// publish never fails the mutation it reports on.
func (s *courseService) publish(ctx context.Context, eventType, courseID, title string) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	payload, err := json.Marshal(CourseEvent{Type: eventType, CourseID: courseID, Title: title, At: s.now().UTC()})
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to marshal course event")
		return
	}
	msgID, err := s.publisher.Publish(ctx, s.topic, payload, map[string]string{"type": eventType})
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Str("event", eventType).Msg("Failed to publish course event")
		return
	}
	s.logger.Debug().Str("message_id", msgID).Str("event", eventType).Msg("Course event published")
}
