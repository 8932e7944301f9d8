package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"classroom/internal/api/v1/dto"
	"classroom/internal/dashboard"
	"classroom/internal/middleware"
	"classroom/internal/model"
	"classroom/internal/view"

	"github.com/rs/zerolog"
)

var errBadForm = errors.New("malformed form input")

type action func(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error

// DashboardHandler serves the single dashboard page and its form actions.
// Every browser session gets its own dashboard from the registry.
type DashboardHandler struct {
	registry       *dashboard.Registry
	renderer       *view.Renderer
	maxUploadBytes int64
	actions        map[string]action
	logger         zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(registry *dashboard.Registry, renderer *view.Renderer, maxUploadBytes int64, logger zerolog.Logger) *DashboardHandler {
	h := &DashboardHandler{
		registry:       registry,
		renderer:       renderer,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "DashboardHandler").Logger(),
	}
	h.actions = map[string]action{
		"refresh":           h.refresh,
		"admin/open":        simple((*dashboard.Dashboard).OpenAdmin),
		"admin/close":       simple((*dashboard.Dashboard).CloseAdmin),
		"admin/submit":      h.submitAdmin,
		"admin/logout":      simple((*dashboard.Dashboard).Logout),
		"create/open":       simple((*dashboard.Dashboard).OpenCreate),
		"create/close":      simple((*dashboard.Dashboard).CloseCreate),
		"create/submit":     h.submitCreate,
		"edit/open":         h.openEdit,
		"edit/close":        simple((*dashboard.Dashboard).CloseEdit),
		"edit/submit":       h.submitEdit,
		"edit/delete":       h.requestDelete,
		"view":              h.view,
		"back":              simple((*dashboard.Dashboard).Back),
		"content":           h.setContent,
		"save":              h.save,
		"files/add":         h.addFiles,
		"files/remove":      h.removeFile,
		"remediation/close": simple((*dashboard.Dashboard).CloseRemediation),
	}
	return h
}

func simple(fn func(*dashboard.Dashboard)) action {
	return func(_ context.Context, d *dashboard.Dashboard, _ *http.Request) error {
		fn(d)
		return nil
	}
}

// RegisterRoutes mounts the page, the actions and the file downloads.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.page)
	mux.HandleFunc("/actions/", h.handleAction)
	mux.HandleFunc("/files/", h.downloadFile)
}

// RegisterAPIRoutes mounts the JSON snapshot under the API mux.
func (h *DashboardHandler) RegisterAPIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/state", h.state)
}

func (h *DashboardHandler) dashboard(r *http.Request) (*dashboard.Dashboard, bool) {
	id, ok := middleware.SessionID(r.Context())
	if !ok {
		return nil, false
	}
	return h.registry.Get(id), true
}

// page renders the dashboard for any path; there are no sub-routes.
func (h *DashboardHandler) page(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d, ok := h.dashboard(r)
	if !ok {
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}
	if err := d.EnsureLoaded(context.WithoutCancel(r.Context())); err != nil {
		h.logger.Warn().Err(err).Msg("Initial load failed")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, view.Build(d.Snapshot(), d.Now())); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
	}
}

// state godoc
// @Summary Dashboard snapshot
// @Description Returns the session's dashboard state as JSON.
// @Tags dashboard
// @Produce json
// @Success 200 {object} dto.StateResponseDTO
// @Router /state [get]
func (h *DashboardHandler) state(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d, ok := h.dashboard(r)
	if !ok {
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}
	if err := d.EnsureLoaded(context.WithoutCancel(r.Context())); err != nil {
		h.logger.Warn().Err(err).Msg("Initial load failed")
	}
	writeJSON(w, http.StatusOK, dto.NewStateResponse(d.Snapshot()))
}

// handleAction runs one form action and sends the browser back to the page.
// Outcomes, including store failures, are already reflected in the state.
func (h *DashboardHandler) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/actions/"), "/")
	act, ok := h.actions[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	d, ok := h.dashboard(r)
	if !ok {
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}

	// Once started, an operation runs to completion even if the client leaves.
	ctx := context.WithoutCancel(r.Context())
	if err := act(ctx, d, r); err != nil {
		switch {
		case errors.Is(err, errBadForm):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, dashboard.ErrFileTooLarge):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Debug().Err(err).Str("action", name).Msg("Action finished with error")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *DashboardHandler) refresh(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	return d.Load(ctx)
}

func (h *DashboardHandler) submitAdmin(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	d.SubmitAdminCode(r.FormValue("code"))
	return nil
}

func (h *DashboardHandler) submitCreate(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	if err := h.parseForm(r); err != nil {
		return err
	}
	in := dashboard.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		ImageURL:    r.FormValue("image_url"),
	}
	img, err := h.imageUpload(ctx, r)
	if err != nil {
		return err
	}
	if img != "" {
		in.ImageURL = img
	}
	return d.SubmitCreate(ctx, in)
}

func (h *DashboardHandler) openEdit(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	return d.OpenEdit(r.FormValue("id"))
}

func (h *DashboardHandler) submitEdit(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	if err := h.parseForm(r); err != nil {
		return err
	}
	in := dashboard.EditInput{Title: r.FormValue("title")}
	if _, ok := r.Form["image_url"]; ok {
		in.ImageURL = model.StringPtr(r.FormValue("image_url"))
	}
	img, err := h.imageUpload(ctx, r)
	if err != nil {
		return err
	}
	if img != "" {
		in.ImageURL = &img
	}
	return d.SubmitEdit(ctx, in)
}

func (h *DashboardHandler) requestDelete(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	_, err := d.RequestDelete(ctx)
	return err
}

func (h *DashboardHandler) view(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	return d.View(r.FormValue("id"))
}

func (h *DashboardHandler) setContent(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	return d.SetContent(r.FormValue("content_description"))
}

func (h *DashboardHandler) save(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return errBadForm
	}
	if _, ok := r.Form["content_description"]; ok {
		if err := d.SetContent(r.FormValue("content_description")); err != nil {
			return err
		}
	}
	return d.SaveDetail(ctx)
}

func (h *DashboardHandler) addFiles(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	if !d.Snapshot().IsAdmin {
		return nil
	}
	if err := h.parseForm(r); err != nil {
		return err
	}
	if r.MultipartForm == nil {
		return nil
	}
	files, err := dashboard.EncodeUploads(ctx, uploads(r.MultipartForm.File["files"]), h.maxUploadBytes)
	if err != nil {
		return err
	}
	return d.AddFiles(files)
}

func (h *DashboardHandler) removeFile(ctx context.Context, d *dashboard.Dashboard, r *http.Request) error {
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		return errBadForm
	}
	return d.RemoveFile(index)
}

// downloadFile rebuilds a draft attachment from its embedded payload.
func (h *DashboardHandler) downloadFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/files/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	d, ok := h.dashboard(r)
	if !ok {
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}
	name, contentType, data, err := d.DownloadFile(index)
	if err != nil {
		if errors.Is(err, dashboard.ErrFileIndex) || errors.Is(err, dashboard.ErrNoCourse) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error().Err(err).Int("index", index).Msg("Failed to decode file")
		http.Error(w, "Failed to decode file: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (h *DashboardHandler) parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return errBadForm
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return errBadForm
	}
	return nil
}

// imageUpload encodes the optional image_file field as a data URI.
func (h *DashboardHandler) imageUpload(ctx context.Context, r *http.Request) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	headers := r.MultipartForm.File["image_file"]
	if len(headers) == 0 || headers[0].Size == 0 {
		return "", nil
	}
	files, err := dashboard.EncodeUploads(ctx, uploads(headers[:1]), h.maxUploadBytes)
	if err != nil {
		return "", err
	}
	return files[0].Data, nil
}

func uploads(headers []*multipart.FileHeader) []dashboard.Upload {
	out := make([]dashboard.Upload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		out = append(out, dashboard.Upload{
			Name: fh.Filename,
			Type: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out
}
