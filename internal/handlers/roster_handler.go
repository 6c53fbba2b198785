package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/lms-quiz-service/internal/services"
	"github.com/campusworks/lms-quiz-service/internal/utils"
)

type RosterHandler struct {
	BaseHandler
	rosterService services.RosterService
	exportService services.ExportService
}

func NewRosterHandler(rosterService services.RosterService, exportService services.ExportService, logger utils.Logger) *RosterHandler {
	return &RosterHandler{
		BaseHandler:   NewBaseHandler(logger),
		rosterService: rosterService,
		exportService: exportService,
	}
}

// GetRoster returns every enrolled student with per-quiz aggregate scores
// @Summary Get roster
// @Description Lists enrolled students with course titles and per-quiz scores
// @Tags roster
// @Produce json
// @Success 200 {array} services.RosterEntry
// @Failure 403 {object} ErrorResponse
// @Router /roster [get]
func (h *RosterHandler) GetRoster(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Getting roster", "caller_id", userID)

	roster, err := h.rosterService.Roster(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}

// GetCourseRoster returns the roster limited to one course
// @Summary Get course roster
// @Tags roster
// @Produce json
// @Param course_id path uint true "Course ID"
// @Success 200 {array} services.RosterEntry
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /roster/course/{course_id} [get]
func (h *RosterHandler) GetCourseRoster(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Getting course roster", "course_id", courseID, "caller_id", userID)

	roster, err := h.rosterService.CourseRoster(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}

// GetQuizSubmissions returns a quiz's submissions grouped by student
// @Summary Get quiz submissions grouped by student
// @Tags roster
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {array} services.StudentSubmissions
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/submissions [get]
func (h *RosterHandler) GetQuizSubmissions(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Getting quiz submissions", "quiz_id", quizID, "caller_id", userID)

	submissions, err := h.rosterService.SubmissionsByStudent(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submissions)
}

// ExportRoster streams the roster as an Excel workbook
// @Summary Export roster as XLSX
// @Tags roster
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /roster/export [get]
func (h *RosterHandler) ExportRoster(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Exporting roster", "caller_id", userID)

	workbook, err := h.exportService.ExportRosterXLSX(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("roster-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}
