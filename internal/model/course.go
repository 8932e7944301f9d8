package model

// DefaultTag is the badge shown on a course that was stored without one.
const DefaultTag = "AIS+"

// Course represents one classroom item in the remote store
type Course struct {
	ID                 string           `db:"id" json:"id"`
	Title              string           `db:"title" json:"title"`
	Description        string           `db:"description" json:"description"`
	ImageURL           string           `db:"image_url" json:"image_url"`
	ContentDescription string           `db:"content_description" json:"content_description"`
	Files              []FileAttachment `db:"files" json:"files"`
	Progress           int              `db:"progress" json:"progress"`
	Tag                string           `db:"tag" json:"tag"`
}

// FileAttachment is a file embedded in a course record. Data holds the whole
// payload as a data URI, so a download never needs another request.
type FileAttachment struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	Data         string `json:"data"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// CoursePatch is a partial update; nil fields are left untouched.
type CoursePatch struct {
	Title              *string           `json:"title,omitempty"`
	Description        *string           `json:"description,omitempty"`
	ImageURL           *string           `json:"image_url,omitempty"`
	ContentDescription *string           `json:"content_description,omitempty"`
	Files              *[]FileAttachment `json:"files,omitempty"`
	Progress           *int              `json:"progress,omitempty"`
	Tag                *string           `json:"tag,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p CoursePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ImageURL == nil &&
		p.ContentDescription == nil && p.Files == nil && p.Progress == nil && p.Tag == nil
}

// Apply returns a copy of c with the non-nil patch fields set.
func (p CoursePatch) Apply(c Course) Course {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.ContentDescription != nil {
		c.ContentDescription = *p.ContentDescription
	}
	if p.Files != nil {
		c.Files = CloneFiles(*p.Files)
	}
	if p.Progress != nil {
		c.Progress = ClampProgress(*p.Progress)
	}
	if p.Tag != nil {
		c.Tag = *p.Tag
	}
	return c
}

// Clone returns a deep copy of the course.
func (c Course) Clone() Course {
	c.Files = CloneFiles(c.Files)
	return c
}

// CloneFiles copies a file list. The result is never nil.
func CloneFiles(files []FileAttachment) []FileAttachment {
	out := make([]FileAttachment, len(files))
	copy(out, files)
	return out
}

// ClampProgress bounds a progress value to 0..100.
func ClampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// StringPtr is a helper for building patches.
func StringPtr(s string) *string { return &s }
