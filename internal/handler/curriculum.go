package handler

import (
	"log/slog"
	"net/http"

	"kouza/internal/domain/models"
	"kouza/internal/domain/services"
	"kouza/internal/httputil"
)

// CurriculumHandler handles HTTP requests for the curriculum tree editor
type CurriculumHandler struct {
	curriculumService services.CurriculumService
	logger            *slog.Logger
}

// NewCurriculumHandler creates a new curriculum handler
func NewCurriculumHandler(curriculumService services.CurriculumService, logger *slog.Logger) *CurriculumHandler {
	return &CurriculumHandler{
		curriculumService: curriculumService,
		logger:            logger,
	}
}

// GetCurriculum returns the nested section/lecture/page tree for a course
func (h *CurriculumHandler) GetCurriculum(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")
	if courseID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Course ID is required")
		return
	}

	// Get userID from context (set by auth middleware)
	userID := httputil.GetUserID(r)

	sections, err := h.curriculumService.GetTree(r.Context(), userID, courseID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.CurriculumResponse{
		CourseID: courseID,
		Sections: sections,
	})
}

// SaveCurriculum reconciles the submitted tree snapshot with the persisted
// curriculum and returns the saved tree, with durable ids substituted for
// any placeholder ids the editor sent.
func (h *CurriculumHandler) SaveCurriculum(w http.ResponseWriter, r *http.Request) {
	courseID := r.PathValue("id")
	if courseID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Course ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	var req models.SaveCurriculumRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sections, err := h.curriculumService.SaveTree(r.Context(), userID, courseID, req.Sections)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.CurriculumResponse{
		CourseID: courseID,
		Sections: sections,
	})
}
