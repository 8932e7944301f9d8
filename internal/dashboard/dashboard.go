package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"classroom/internal/model"
	"classroom/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrBusy           = errors.New("operation already in progress")
	ErrCourseNotFound = errors.New("course not in dashboard")
	ErrNoCourse       = errors.New("no course targeted")
)

// Store is the slice of the course service the dashboard consumes.
type Store interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	UpdateCourse(ctx context.Context, courseID string, patch model.CoursePatch) (*model.Course, error)
	DeleteCourse(ctx context.Context, courseID string) error
}

// State is everything the page renders from. Courses is a cache of the remote
// store, replaced on load and patched after each acknowledged mutation.
type State struct {
	Courses  []model.Course
	Loading  bool
	Loaded   bool
	Selected *model.Course
	IsAdmin  bool

	Modals Modals

	Creating bool
	Editing  bool
	Saving   bool

	EditingCourse *model.Course
	Draft         *Draft

	AdminForm   AdminForm
	CreateForm  CreateForm
	EditForm    EditForm
	Remediation RemediationDialog

	Notifications []Notification
}

func (s *State) clone() State {
	out := *s
	out.Courses = make([]model.Course, len(s.Courses))
	for i, c := range s.Courses {
		out.Courses[i] = c.Clone()
	}
	if s.Selected != nil {
		c := s.Selected.Clone()
		out.Selected = &c
	}
	if s.EditingCourse != nil {
		c := s.EditingCourse.Clone()
		out.EditingCourse = &c
	}
	out.Draft = s.Draft.clone()
	out.Notifications = append([]Notification(nil), s.Notifications...)
	return out
}

func (s *State) indexOf(courseID string) int {
	for i, c := range s.Courses {
		if c.ID == courseID {
			return i
		}
	}
	return -1
}

func (s *State) replace(c model.Course) {
	if i := s.indexOf(c.ID); i >= 0 {
		s.Courses[i] = c.Clone()
	}
}

func (s *State) remove(courseID string) {
	if i := s.indexOf(courseID); i >= 0 {
		s.Courses = append(s.Courses[:i:i], s.Courses[i+1:]...)
	}
}

// Dashboard owns one session's State and mediates every mutation between the
// dialogs, the detail draft and the Store. Remote calls run outside the lock;
// only the begin and outcome transitions hold it.
type Dashboard struct {
	mu     sync.Mutex
	state  State
	store  Store
	notify *notifier
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithNotificationTTL sets how long toasts stay visible.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(d *Dashboard) { d.notify.ttl = ttl }
}

// New creates a Dashboard that has not loaded yet.
func New(store Store, logger zerolog.Logger, opts ...Option) *Dashboard {
	d := &Dashboard{
		store:  store,
		notify: &notifier{ttl: defaultNotificationTTL},
		now:    time.Now,
		logger: logger.With().Str("component", "Dashboard").Logger(),
	}
	d.state.Courses = []model.Course{}
	d.state.Remediation.Script = DefaultRemediationScript
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Snapshot returns a deep copy of the state with expired toasts pruned.
func (d *Dashboard) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Notifications = d.notify.prune(d.state.Notifications, d.now())
	return d.state.clone()
}

// Now is the dashboard clock, exposed for rendering time-based effects.
func (d *Dashboard) Now() time.Time { return d.now() }

// fail applies the shared error policy: a permission failure opens the
// remediation dialog, anything else raises a toast naming the action.
// Caller holds d.mu.
func (d *Dashboard) fail(err error, message string) {
	if pd, ok := repository.AsPermissionDenied(err); ok {
		script := pd.Script
		if script == "" {
			script = DefaultRemediationScript
		}
		d.state.Remediation.Script = script
		d.state.Modals.Remediation = true
		d.logger.Warn().Err(err).Msg("Remote store denied operation")
		return
	}
	d.state.Notifications = d.notify.push(d.state.Notifications, KindError, message, d.now())
	d.logger.Error().Err(err).Msg(message)
}

func (d *Dashboard) succeed(message string) {
	d.state.Notifications = d.notify.push(d.state.Notifications, KindSuccess, message, d.now())
}

// Load fetches the full list. Success replaces Courses in server order; any
// failure empties it.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	d.state.Loading = true
	d.mu.Unlock()
	return d.fetch(ctx)
}

// fetch runs the list call and its outcome. Caller has set Loading.
func (d *Dashboard) fetch(ctx context.Context) error {
	courses, err := d.store.ListCourses(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Loading = false
	d.state.Loaded = true
	if err != nil {
		d.state.Courses = []model.Course{}
		d.fail(err, "Failed to load courses")
		return err
	}
	d.state.Courses = make([]model.Course, len(courses))
	for i, c := range courses {
		d.state.Courses[i] = c.Clone()
	}
	return nil
}

// EnsureLoaded performs the initial load once, the first time the page mounts.
// Concurrent first mounts share one fetch; the losers return immediately.
func (d *Dashboard) EnsureLoaded(ctx context.Context) error {
	d.mu.Lock()
	if d.state.Loaded || d.state.Loading {
		d.mu.Unlock()
		return nil
	}
	d.state.Loading = true
	d.mu.Unlock()
	return d.fetch(ctx)
}

// OpenAdmin opens the access code dialog, or the logout dialog when admin
// mode is already on.
func (d *Dashboard) OpenAdmin() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.AdminForm.reset()
	if d.state.IsAdmin {
		d.state.Modals.Logout = true
		return
	}
	d.state.Modals.Admin = true
}

// CloseAdmin dismisses either admin dialog.
func (d *Dashboard) CloseAdmin() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Modals.Admin = false
	d.state.Modals.Logout = false
	d.state.AdminForm.reset()
}

// SubmitAdminCode flips admin mode when code matches AccessCode. A wrong code
// leaves the dialog open with an inline error; there is no lockout.
func (d *Dashboard) SubmitAdminCode(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.state.AdminForm.check(code, d.now()) {
		return false
	}
	d.toggleAdmin()
	d.state.Modals.Admin = false
	return true
}

// Logout leaves admin mode without asking for the code.
func (d *Dashboard) Logout() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.state.IsAdmin {
		return
	}
	d.toggleAdmin()
	d.state.Modals.Logout = false
}

func (d *Dashboard) toggleAdmin() {
	if d.state.IsAdmin {
		d.succeed("Logged out from Admin Mode")
	} else {
		d.succeed("Admin Mode enabled")
	}
	d.state.IsAdmin = !d.state.IsAdmin
}

// OpenCreate shows an empty create dialog.
func (d *Dashboard) OpenCreate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.CreateForm.reset()
	d.state.Modals.Create = true
}

// CloseCreate hides the create dialog and clears its fields.
func (d *Dashboard) CloseCreate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.CreateForm.reset()
	d.state.Modals.Create = false
}

// SubmitCreate validates the dialog input and creates the course. The
// returned record is prepended to Courses.
func (d *Dashboard) SubmitCreate(ctx context.Context, in CreateInput) error {
	d.mu.Lock()
	if d.state.Creating {
		d.mu.Unlock()
		return ErrBusy
	}
	payload, err := d.state.CreateForm.submit(in)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.state.Creating = true
	d.mu.Unlock()

	created, err := d.store.CreateCourse(ctx, &model.Course{
		Title:       payload.Title,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
		Files:       []model.FileAttachment{},
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Creating = false
	if err != nil {
		d.fail(err, "Failed to create course")
		return err
	}
	d.state.Courses = append([]model.Course{created.Clone()}, d.state.Courses...)
	d.state.Modals.Create = false
	d.succeed("Course created successfully")
	return nil
}

// OpenEdit targets the course with courseID and seeds the edit dialog.
func (d *Dashboard) OpenEdit(courseID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.state.indexOf(courseID)
	if i < 0 {
		return ErrCourseNotFound
	}
	c := d.state.Courses[i].Clone()
	d.state.EditingCourse = &c
	d.state.EditForm = EditForm{Title: c.Title, ImageURL: c.ImageURL}
	d.state.Modals.Edit = true
	return nil
}

// CloseEdit hides the edit dialog and drops its target.
func (d *Dashboard) CloseEdit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeEdit()
}

func (d *Dashboard) closeEdit() {
	d.state.Modals.Edit = false
	d.state.EditingCourse = nil
	d.state.EditForm.reset()
}

// SubmitEdit updates title and image of EditingCourse.
func (d *Dashboard) SubmitEdit(ctx context.Context, in EditInput) error {
	d.mu.Lock()
	if d.state.Editing {
		d.mu.Unlock()
		return ErrBusy
	}
	if d.state.EditingCourse == nil {
		d.mu.Unlock()
		return ErrNoCourse
	}
	title, imageURL, err := d.state.EditForm.submit(in)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	courseID := d.state.EditingCourse.ID
	d.state.Editing = true
	d.mu.Unlock()

	updated, err := d.store.UpdateCourse(ctx, courseID, model.CoursePatch{
		Title:    &title,
		ImageURL: &imageURL,
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Editing = false
	if err != nil {
		d.fail(err, "Failed to update course")
		return err
	}
	d.state.replace(*updated)
	d.closeEdit()
	d.succeed("Course updated successfully")
	return nil
}

// RequestDelete is the edit dialog's delete button. The first call only arms
// the confirmation; the second deletes EditingCourse. It reports whether a
// delete was attempted.
func (d *Dashboard) RequestDelete(ctx context.Context) (bool, error) {
	d.mu.Lock()
	if d.state.EditingCourse == nil {
		d.mu.Unlock()
		return false, ErrNoCourse
	}
	if !d.state.EditForm.ConfirmDelete {
		d.state.EditForm.ConfirmDelete = true
		d.mu.Unlock()
		return false, nil
	}
	d.state.EditForm.ConfirmDelete = false
	courseID := d.state.EditingCourse.ID
	d.mu.Unlock()

	return true, d.Delete(ctx, courseID)
}

// Delete removes courseID from the store and, on success, from Courses. The
// edit dialog closes whatever the outcome.
func (d *Dashboard) Delete(ctx context.Context, courseID string) error {
	err := d.store.DeleteCourse(ctx, courseID)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeEdit()
	if err != nil {
		d.fail(err, "Failed to delete course")
		return err
	}
	d.state.remove(courseID)
	d.succeed("Course deleted successfully")
	return nil
}

// View switches to the detail presentation of courseID.
func (d *Dashboard) View(courseID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.state.indexOf(courseID)
	if i < 0 {
		return ErrCourseNotFound
	}
	c := d.state.Courses[i].Clone()
	d.state.Selected = &c
	d.state.Draft = NewDraft(c)
	return nil
}

// Back returns to the grid and discards the draft.
func (d *Dashboard) Back() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Selected = nil
	d.state.Draft = nil
}

// CloseRemediation dismisses the remediation dialog.
func (d *Dashboard) CloseRemediation() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Modals.Remediation = false
}

// SetContent edits the draft's long-form text. Admin only.
func (d *Dashboard) SetContent(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Draft == nil {
		return ErrNoCourse
	}
	if !d.state.IsAdmin {
		return nil
	}
	d.state.Draft.SetContent(text)
	return nil
}

// AddFiles appends already encoded files to the draft, in order. Intake is
// ignored outside admin mode.
func (d *Dashboard) AddFiles(files []model.FileAttachment) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Draft == nil {
		return ErrNoCourse
	}
	if !d.state.IsAdmin {
		return nil
	}
	d.state.Draft.AppendFiles(files...)
	return nil
}

// RemoveFile drops the draft file at index. Ignored outside admin mode.
func (d *Dashboard) RemoveFile(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Draft == nil {
		return ErrNoCourse
	}
	if !d.state.IsAdmin {
		return nil
	}
	return d.state.Draft.RemoveFile(index)
}

// DownloadFile rebuilds the draft file at index from its embedded payload.
func (d *Dashboard) DownloadFile(index int) (name, contentType string, data []byte, err error) {
	d.mu.Lock()
	if d.state.Draft == nil {
		d.mu.Unlock()
		return "", "", nil, ErrNoCourse
	}
	f, err := d.state.Draft.File(index)
	d.mu.Unlock()
	if err != nil {
		return "", "", nil, err
	}

	contentType, data, err = DecodeDataURI(f.Data)
	if err != nil {
		return "", "", nil, err
	}
	if f.Type != "" {
		contentType = f.Type
	}
	return f.Name, contentType, data, nil
}

// SaveDetail sends the draft's content and files for Selected. On success
// both Courses and Selected take the server record and the draft is reseeded
// from it, so the view shows the last acknowledged write.
func (d *Dashboard) SaveDetail(ctx context.Context) error {
	d.mu.Lock()
	if d.state.Saving {
		d.mu.Unlock()
		return ErrBusy
	}
	if d.state.Selected == nil || d.state.Draft == nil {
		d.mu.Unlock()
		return ErrNoCourse
	}
	if !d.state.Draft.Dirty {
		d.mu.Unlock()
		return ErrNothingToSave
	}
	courseID := d.state.Selected.ID
	patch := d.state.Draft.Patch()
	d.state.Draft.Dirty = false
	d.state.Saving = true
	d.mu.Unlock()

	updated, err := d.store.UpdateCourse(ctx, courseID, patch)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Saving = false
	if err != nil {
		if d.state.Draft != nil && d.state.Draft.CourseID == courseID {
			d.state.Draft.Dirty = true
		}
		d.fail(err, "Failed to save changes")
		return err
	}
	d.state.replace(*updated)
	if d.state.Selected != nil && d.state.Selected.ID == courseID {
		c := updated.Clone()
		d.state.Selected = &c
		d.state.Draft = NewDraft(c)
	}
	d.succeed("Changes saved successfully")
	return nil
}
