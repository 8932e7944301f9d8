package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"classroom/internal/api/v1/dto"
	"classroom/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CourseHandler serves the JSON course API
type CourseHandler struct {
	courseService service.CourseService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseService service.CourseService, validate *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		validate:      validate,
		logger:        logger.With().Str("handler", "CourseHandler").Logger(),
	}
}

// RegisterRoutes mounts course routes
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.root)
	mux.HandleFunc("/courses", h.handleCourses)
	mux.HandleFunc("/courses/", h.handleCourse)
}

// root godoc
// @Summary API health
// @Tags meta
// @Produce json
// @Success 200 {object} dto.MessageDTO
// @Router / [get]
func (h *CourseHandler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageDTO{Message: "Classroom Interface API"})
}

func (h *CourseHandler) handleCourses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCourses(w, r)
	case http.MethodPost:
		h.createCourse(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CourseHandler) handleCourse(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimPrefix(r.URL.Path, "/courses/")
	if courseID == "" || strings.Contains(courseID, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getCourse(w, r, courseID)
	case http.MethodPut, http.MethodPatch:
		h.updateCourse(w, r, courseID)
	case http.MethodDelete:
		h.deleteCourse(w, r, courseID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// listCourses godoc
// @Summary List courses
// @Description Returns every course in store order.
// @Tags courses
// @Produce json
// @Success 200 {array} dto.CourseResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO "Row level security policy error"
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /courses [get]
func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "")
		return
	}
	resp := make([]dto.CourseResponseDTO, 0, len(courses))
	for _, c := range courses {
		resp = append(resp, dto.NewCourseResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getCourse godoc
// @Summary Get a course
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO "Row level security policy error"
// @Failure 404 {object} dto.ErrorResponseDTO "Course not found"
// @Router /courses/{courseId} [get]
func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	course, err := h.courseService.GetCourse(r.Context(), courseID)
	if err != nil {
		writeStoreError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCourseResponse(*course))
}

// createCourse godoc
// @Summary Create a new course
// @Description The server assigns the id; tag defaults to AIS+.
// @Tags courses
// @Accept json
// @Produce json
// @Param course body dto.CourseCreateDTO true "Course creation request"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 403 {object} dto.ErrorResponseDTO "Row level security policy error"
// @Router /courses [post]
func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req dto.CourseCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.courseService.CreateCourse(r.Context(), req.ToModel())
	if err != nil {
		writeStoreError(w, h.logger, err, "create course")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCourseResponse(*created))
}

// updateCourse godoc
// @Summary Update a course
// @Description Applies only the fields present in the body.
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param course body dto.CourseUpdateDTO true "Course update request"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 403 {object} dto.ErrorResponseDTO "Row level security policy error"
// @Failure 404 {object} dto.ErrorResponseDTO "Course not found"
// @Router /courses/{courseId} [put]
func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	var req dto.CourseUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.courseService.UpdateCourse(r.Context(), courseID, req.ToPatch())
	if err != nil {
		writeStoreError(w, h.logger, err, "update course")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCourseResponse(*updated))
}

// deleteCourse godoc
// @Summary Delete a course
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.MessageDTO
// @Failure 403 {object} dto.ErrorResponseDTO "Row level security policy error"
// @Router /courses/{courseId} [delete]
func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	if err := h.courseService.DeleteCourse(r.Context(), courseID); err != nil {
		writeStoreError(w, h.logger, err, "delete course")
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageDTO{Message: "Course deleted successfully"})
}
