package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"time"

	"classroom/internal/dashboard"
	"classroom/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is everything the dashboard template needs for one render.
type Page struct {
	State     dashboard.State
	Cards     []Card
	Skeletons []int
	CountText string
	EmptyText string
	Detail    *Detail
	Shaking   bool
	Toasts    []Toast
}

// Toast is a notification with the time it has left on screen. The page fades
// it out after HideAfterMS even if no new request arrives.
type Toast struct {
	ID          string
	Kind        dashboard.Kind
	Message     string
	HideAfterMS int64
}

// Detail is the view model of the selected course.
type Detail struct {
	Course  model.Course
	Hero    template.URL
	Content string
	Files   []FileRow
	Dirty   bool
}

// FileRow is one entry of the attachment list. Index addresses the file in
// the draft, which is what remove and download act on.
type FileRow struct {
	Index int
	Name  string
	Size  string
	Icon  IconKind
}

// Build derives the page from a dashboard snapshot.
func Build(s dashboard.State, now time.Time) Page {
	p := Page{
		State:     s,
		Cards:     make([]Card, 0, len(s.Courses)),
		CountText: CountText(len(s.Courses)),
		EmptyText: EmptyText(s.IsAdmin),
		Shaking:   s.AdminForm.Shaking(now),
	}
	for _, n := range s.Notifications {
		left := n.ExpiresAt.Sub(now).Milliseconds()
		if left <= 0 {
			continue
		}
		p.Toasts = append(p.Toasts, Toast{ID: n.ID, Kind: n.Kind, Message: n.Message, HideAfterMS: left})
	}
	if s.Loading {
		p.Skeletons = make([]int, SkeletonCount)
	}
	for _, c := range s.Courses {
		p.Cards = append(p.Cards, NewCard(c))
	}
	if s.Selected != nil && s.Draft != nil {
		d := &Detail{
			Course:  *s.Selected,
			Hero:    ImageFor(*s.Selected, DetailImageSize),
			Content: s.Draft.ContentDescription,
			Dirty:   s.Draft.Dirty,
		}
		for i, f := range s.Draft.Files {
			d.Files = append(d.Files, FileRow{Index: i, Name: f.Name, Size: FormatSize(f.Size), Icon: FileIcon(f.Type)})
		}
		p.Detail = d
	}
	return p
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Funcs(template.FuncMap{
		"percent": func(p int) int { return model.ClampProgress(p) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the full page. Output is buffered so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, p Page) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page.html", p); err != nil {
		return err
	}
	_, err := io.Copy(w, &buf)
	return err
}
