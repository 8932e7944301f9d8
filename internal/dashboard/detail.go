package dashboard

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"classroom/internal/model"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

var (
	ErrFileIndex     = errors.New("file index out of range")
	ErrNotDataURI    = errors.New("file payload is not a data URI")
	ErrNothingToSave = errors.New("no unsaved changes")
	ErrFileTooLarge  = errors.New("file exceeds the upload limit")
)

const maxIntakeParallel = 4

// Draft is the detail view's local copy of a course's rich fields. Edits stay
// here until Save; Dirty is set by any change.
type Draft struct {
	CourseID           string
	ContentDescription string
	Files              []model.FileAttachment
	Dirty              bool
}

// NewDraft seeds a draft from the acknowledged course record.
func NewDraft(c model.Course) *Draft {
	return &Draft{
		CourseID:           c.ID,
		ContentDescription: c.ContentDescription,
		Files:              model.CloneFiles(c.Files),
	}
}

func (d *Draft) clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	out.Files = model.CloneFiles(d.Files)
	return &out
}

// SetContent replaces the long-form text.
func (d *Draft) SetContent(text string) {
	if text == d.ContentDescription {
		return
	}
	d.ContentDescription = text
	d.Dirty = true
}

// AppendFiles adds encoded files in the given order.
func (d *Draft) AppendFiles(files ...model.FileAttachment) {
	if len(files) == 0 {
		return
	}
	d.Files = append(d.Files, files...)
	d.Dirty = true
}

// RemoveFile splices the file at index out of the list.
func (d *Draft) RemoveFile(index int) error {
	if index < 0 || index >= len(d.Files) {
		return ErrFileIndex
	}
	d.Files = append(d.Files[:index:index], d.Files[index+1:]...)
	d.Dirty = true
	return nil
}

// File returns the attachment at index.
func (d *Draft) File(index int) (model.FileAttachment, error) {
	if index < 0 || index >= len(d.Files) {
		return model.FileAttachment{}, ErrFileIndex
	}
	return d.Files[index], nil
}

// Patch is the partial update Save sends: content and files only.
func (d *Draft) Patch() model.CoursePatch {
	content := d.ContentDescription
	files := model.CloneFiles(d.Files)
	return model.CoursePatch{ContentDescription: &content, Files: &files}
}

// Upload is one file picked or dropped by the user.
type Upload struct {
	Name         string
	Type         string
	LastModified int64
	Open         func() (io.ReadCloser, error)
}

// EncodeUploads reads every upload fully and encodes it as a self-contained
// attachment. Reads run in parallel, but the result keeps selection order.
// A non-positive maxBytes disables the size check.
func EncodeUploads(ctx context.Context, uploads []Upload, maxBytes int64) ([]model.FileAttachment, error) {
	out := make([]model.FileAttachment, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxIntakeParallel)
	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			att, err := encodeUpload(up, maxBytes)
			if err != nil {
				return fmt.Errorf("%s: %w", up.Name, err)
			}
			out[i] = att
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeUpload(up Upload, maxBytes int64) (model.FileAttachment, error) {
	rc, err := up.Open()
	if err != nil {
		return model.FileAttachment{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxBytes > 0 {
		r = io.LimitReader(rc, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return model.FileAttachment{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return model.FileAttachment{}, ErrFileTooLarge
	}

	contentType := baseMediaType(up.Type)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = baseMediaType(mimetype.Detect(data).String())
	}
	return model.FileAttachment{
		Name:         up.Name,
		Type:         contentType,
		Size:         int64(len(data)),
		Data:         EncodeDataURI(contentType, data),
		LastModified: up.LastModified,
	}, nil
}

func baseMediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.TrimSpace(strings.SplitN(v, ";", 2)[0])
	}
	return mt
}

// EncodeDataURI builds a base64 data URI.
func EncodeDataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI returns the media type and bytes of a data URI. Both base64
// and percent-encoded payloads are accepted.
func DecodeDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}

	isBase64 := false
	params := strings.Split(header, ";")
	contentType := params[0]
	for _, p := range params[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	if contentType == "" {
		contentType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("failed to decode base64 payload: %w", err)
		}
		return contentType, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return contentType, []byte(text), nil
}
