package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/lms-quiz-service/internal/services"
	"github.com/campusworks/lms-quiz-service/internal/utils"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	validator      *validator.Validator
}

func NewGradingHandler(gradingService services.GradingService, validator *validator.Validator, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		validator:      validator,
	}
}

// OverrideGrade replaces a submission's grade with an instructor-set value
// @Summary Override submission grade
// @Description Replaces a submission's auto-grade with a manual grade
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param grade body services.GradeOverrideRequest true "Grade data"
// @Success 200 {object} services.GradingResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id}/grade [post]
func (h *GradingHandler) OverrideGrade(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.GradeOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Overriding grade", "submission_id", id, "grader_id", userID)

	result, err := h.gradingService.OverrideGrade(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMyScore returns the calling student's aggregate score on a quiz
// @Summary Get own quiz score
// @Tags grading
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/score [get]
func (h *GradingHandler) GetMyScore(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	score, err := h.gradingService.AggregateScore(c.Request.Context(), quizID, userID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quiz_id":    quizID,
		"student_id": userID,
		"score":      score,
	})
}

// GetStudentScore returns a student's aggregate score on a quiz.
// Course managers only.
// @Summary Get student's quiz score
// @Tags grading
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param student_id path string true "Student ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/score/{student_id} [get]
func (h *GradingHandler) GetStudentScore(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	studentID := strings.TrimSpace(c.Param("student_id"))
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Student ID is required",
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Getting student score", "quiz_id", quizID, "student_id", studentID)

	score, err := h.gradingService.AggregateScore(c.Request.Context(), quizID, studentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quiz_id":    quizID,
		"student_id": studentID,
		"score":      score,
	})
}
