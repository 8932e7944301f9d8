package repository

import (
	"context"
	"sync"

	"classroom/internal/model"
)

// Operation names used by the in-memory store for error injection.
const (
	OpList   = "list courses"
	OpGet    = "get course"
	OpCreate = "create course"
	OpUpdate = "update course"
	OpDelete = "delete course"
)

// MemoryRepo is an in-process CourseRepository. It keeps insertion order and
// can be told to fail specific operations, which makes it the store used by
// tests and by STORE_BACKEND=memory.
type MemoryRepo struct {
	mu       sync.RWMutex
	order    []string
	table    map[string]*model.Course
	failures map[string]error
}

// NewMemoryRepo creates an empty in-memory store seeded with courses.
func NewMemoryRepo(seed ...model.Course) *MemoryRepo {
	repo := &MemoryRepo{
		table:    make(map[string]*model.Course),
		failures: make(map[string]error),
	}
	for _, c := range seed {
		c := c.Clone()
		repo.order = append(repo.order, c.ID)
		repo.table[c.ID] = &c
	}
	return repo
}

// InjectError makes every later call of op fail with err. A nil err clears it.
func (repo *MemoryRepo) InjectError(op string, err error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if err == nil {
		delete(repo.failures, op)
		return
	}
	repo.failures[op] = err
}

// DenyAll simulates a store whose access policy rejects everything.
func (repo *MemoryRepo) DenyAll(script string) {
	for _, op := range []string{OpList, OpGet, OpCreate, OpUpdate, OpDelete} {
		repo.InjectError(op, &PermissionDeniedError{Op: op, Script: script})
	}
}

func (repo *MemoryRepo) injected(op string) error {
	return repo.failures[op]
}

func (repo *MemoryRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if err := repo.injected(OpList); err != nil {
		return nil, err
	}
	courses := make([]model.Course, 0, len(repo.order))
	for _, id := range repo.order {
		courses = append(courses, repo.table[id].Clone())
	}
	return courses, nil
}

func (repo *MemoryRepo) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if err := repo.injected(OpGet); err != nil {
		return nil, err
	}
	c, ok := repo.table[courseID]
	if !ok {
		return nil, failed(OpGet, 0, ErrCourseNotFound)
	}
	out := c.Clone()
	return &out, nil
}

func (repo *MemoryRepo) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if err := repo.injected(OpCreate); err != nil {
		return nil, err
	}
	if _, exists := repo.table[c.ID]; exists || c.ID == "" {
		return nil, failed(OpCreate, 409, errDuplicateID(c.ID))
	}
	stored := c.Clone()
	repo.order = append(repo.order, stored.ID)
	repo.table[stored.ID] = &stored
	out := stored.Clone()
	return &out, nil
}

func (repo *MemoryRepo) UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch) (*model.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if err := repo.injected(OpUpdate); err != nil {
		return nil, err
	}
	c, ok := repo.table[courseID]
	if !ok {
		return nil, failed(OpUpdate, 0, ErrCourseNotFound)
	}
	updated := patch.Apply(*c)
	repo.table[courseID] = &updated
	out := updated.Clone()
	return &out, nil
}

func (repo *MemoryRepo) DeleteCourse(ctx context.Context, courseID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if err := repo.injected(OpDelete); err != nil {
		return err
	}
	if _, ok := repo.table[courseID]; !ok {
		return nil
	}
	delete(repo.table, courseID)
	for i, id := range repo.order {
		if id == courseID {
			repo.order = append(repo.order[:i], repo.order[i+1:]...)
			break
		}
	}
	return nil
}

type errDuplicateID string

func (e errDuplicateID) Error() string {
	if e == "" {
		return "course id is required"
	}
	return "duplicate course id " + string(e)
}
