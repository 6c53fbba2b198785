package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/lms-quiz-service/internal/services"
	"github.com/campusworks/lms-quiz-service/internal/utils"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
	validator         *validator.Validator
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService, validator *validator.Validator, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
		validator:         validator,
	}
}

// Enroll registers the caller (or, for admins, another student) in a course
// @Summary Enroll in course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param enrollment body services.EnrollRequest true "Enrollment data"
// @Success 201 {object} models.Enrollment
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req services.EnrollRequest
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

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// Unenroll removes an enrollment
// @Summary Remove enrollment
// @Tags enrollments
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	if err := h.enrollmentService.Unenroll(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Enrollment removed successfully",
	})
}

// GetMyEnrollments lists the calling student's enrollments
// @Summary Get own enrollments
// @Tags enrollments
// @Produce json
// @Success 200 {array} models.Enrollment
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) GetMyEnrollments(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	enrollments, err := h.enrollmentService.GetByStudent(c.Request.Context(), userID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// GetStudentEnrollments lists a student's enrollments. Instructors and
// admins only.
// @Summary Get student enrollments
// @Tags enrollments
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {array} models.Enrollment
// @Failure 403 {object} ErrorResponse
// @Router /enrollments/student/{student_id} [get]
func (h *EnrollmentHandler) GetStudentEnrollments(c *gin.Context) {
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

	h.LogRequest(c, "Getting student enrollments", "student_id", studentID)

	enrollments, err := h.enrollmentService.GetByStudent(c.Request.Context(), studentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// GetCourseEnrollments lists a course's enrollments. Course managers only.
// @Summary Get course enrollments
// @Tags enrollments
// @Produce json
// @Param course_id path uint true "Course ID"
// @Success 200 {array} models.Enrollment
// @Failure 403 {object} ErrorResponse
// @Router /enrollments/course/{course_id} [get]
func (h *EnrollmentHandler) GetCourseEnrollments(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	enrollments, err := h.enrollmentService.GetByCourse(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// UpdateProgress updates an enrollment's progress percentage
// @Summary Update enrollment progress
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id}/progress [put]
func (h *EnrollmentHandler) UpdateProgress(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req struct {
		Progress float64 `json:"progress"`
	}
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

	if err := h.enrollmentService.UpdateProgress(c.Request.Context(), id, req.Progress, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Progress updated successfully",
	})
}
