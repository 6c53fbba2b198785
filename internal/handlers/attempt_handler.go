package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/lms-quiz-service/internal/services"
	"github.com/campusworks/lms-quiz-service/internal/utils"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(attemptService services.AttemptService, validator *validator.Validator, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// RenderAttempt returns the quiz as the student should see it: the
// questions without correct answers.
// @Summary Render quiz attempt
// @Description Returns an active quiz's questions for an enrolled student
// @Tags attempts
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.AttemptView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/attempt [get]
func (h *AttemptHandler) RenderAttempt(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Rendering quiz attempt", "quiz_id", quizID, "student_id", userID)

	view, err := h.attemptService.Render(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitAttempt records the student's answers and returns how many of
// the quiz's questions they have right so far. Submitting the same
// answers again returns the same result.
// @Summary Submit quiz attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param answers body services.SubmitAttemptRequest true "Answers"
// @Success 200 {object} services.SubmitResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/attempt [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}

	var req services.SubmitAttemptRequest
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

	h.LogRequest(c, "Submitting quiz attempt", "quiz_id", quizID, "student_id", userID)

	result, err := h.attemptService.Submit(c.Request.Context(), quizID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
