package dashboard

import (
	"errors"
	"strings"
	"time"
)

// AccessCode unlocks admin mode. It is a shared display gate, not
// authentication: nothing on the store side checks it.
const AccessCode = "PV"

const shakeDuration = 500 * time.Millisecond

var ErrTitleRequired = errors.New("title is required")

// Modal visibility flags. Each is independent; opening one never closes another.
type Modals struct {
	Admin       bool
	Logout      bool
	Create      bool
	Edit        bool
	Remediation bool
}

// AdminForm backs the access code dialog.
type AdminForm struct {
	Error      string
	ShakeUntil time.Time
}

// Shaking reports whether the wrong-code animation is still running at now.
func (f AdminForm) Shaking(now time.Time) bool {
	return now.Before(f.ShakeUntil)
}

func (f *AdminForm) reset() { *f = AdminForm{} }

// check compares the entered code with AccessCode. A wrong code sets the
// inline error and starts the shake.
func (f *AdminForm) check(code string, now time.Time) bool {
	if code == AccessCode {
		f.reset()
		return true
	}
	f.Error = "Incorrect access code"
	f.ShakeUntil = now.Add(shakeDuration)
	return false
}

// CreateInput is what the create dialog posts.
type CreateInput struct {
	Title       string
	Description string
	ImageURL    string
}

// CreateForm holds the create dialog fields between renders.
type CreateForm struct {
	Title       string
	Description string
	ImageURL    string
	Error       string
}

func (f *CreateForm) reset() { *f = CreateForm{} }

// submit validates the input and produces the finished payload. The form
// fields are cleared on success and kept for re-display on a validation error.
func (f *CreateForm) submit(in CreateInput) (CreateInput, error) {
	out := CreateInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    in.ImageURL,
	}
	if out.Title == "" {
		f.Title, f.Description, f.ImageURL = in.Title, in.Description, in.ImageURL
		f.Error = "Title is required"
		return CreateInput{}, ErrTitleRequired
	}
	f.reset()
	return out, nil
}

// EditInput is what the edit dialog posts. A nil ImageURL keeps the image
// already shown in the dialog.
type EditInput struct {
	Title    string
	ImageURL *string
}

// EditForm holds the edit dialog fields. Delete needs two clicks: the first
// arms ConfirmDelete, the second deletes.
type EditForm struct {
	Title         string
	ImageURL      string
	ConfirmDelete bool
	Error         string
}

func (f *EditForm) reset() { *f = EditForm{} }

func (f *EditForm) submit(in EditInput) (title, imageURL string, err error) {
	if in.ImageURL != nil {
		f.ImageURL = *in.ImageURL
	}
	f.Title = in.Title
	title = strings.TrimSpace(in.Title)
	if title == "" {
		f.Error = "Title is required"
		return "", "", ErrTitleRequired
	}
	f.Error = ""
	return title, f.ImageURL, nil
}

// RemediationDialog shows the corrective script verbatim.
type RemediationDialog struct {
	Script string
}

// DefaultRemediationScript is shown when a permission failure carries no script.
const DefaultRemediationScript = `
-- Run this SQL in Supabase SQL Editor to enable public access:

-- First, create the courses table if it doesn't exist:
CREATE TABLE IF NOT EXISTS public.courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT DEFAULT '',
  image_url TEXT DEFAULT '',
  content_description TEXT DEFAULT '',
  files JSONB DEFAULT '[]',
  progress INTEGER DEFAULT 0,
  tag TEXT DEFAULT 'AIS+'
);

-- Enable RLS
ALTER TABLE public.courses ENABLE ROW LEVEL SECURITY;

-- Allow anyone to read courses
CREATE POLICY "Public read access" ON public.courses
  FOR SELECT USING (true);

-- Allow anyone to insert courses (for demo purposes)
CREATE POLICY "Public insert access" ON public.courses
  FOR INSERT WITH CHECK (true);

-- Allow anyone to update courses (for demo purposes)
CREATE POLICY "Public update access" ON public.courses
  FOR UPDATE USING (true);

-- Allow anyone to delete courses (for demo purposes)
CREATE POLICY "Public delete access" ON public.courses
  FOR DELETE USING (true);
`
