package handler

import (
	"log/slog"
	"net/http"

	"kouza/internal/domain/models"
	"kouza/internal/domain/services"
	"kouza/internal/httputil"
)

// CourseHandler handles HTTP requests for course metadata
type CourseHandler struct {
	courseService services.CourseService
	logger        *slog.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService services.CourseService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		logger:        logger,
	}
}

// HealthCheck responds to health probes
func (h *CourseHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateCourse creates a new course owned by the caller
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req models.CreateCourseRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, course)
}

// GetCourse returns a course owned by the caller
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")
	if courseID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Course ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	course, err := h.courseService.GetCourse(r.Context(), userID, courseID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, course)
}

// ListCourses returns all courses owned by the caller
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	courses, err := h.courseService.ListCourses(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, courses)
}
