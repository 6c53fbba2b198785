package validator

import (
	"github.com/campusworks/lms-quiz-service/internal/models"
)

// QuizCreateRequest represents the request structure for creating a quiz
// together with its questions. A quiz is never created empty. Status is
// optional and defaults to Inactive; creating straight to Active
// publishes the quiz immediately.
type QuizCreateRequest struct {
	CourseID  uint                    `json:"course_id" validate:"required"`
	Title     string                  `json:"title" validate:"required,quiz_title"`
	Status    models.QuizStatus       `json:"status" validate:"omitempty,quiz_status"`
	Questions []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuestionCreateRequest represents one question inside a quiz create request
type QuestionCreateRequest struct {
	QuestionText  string   `json:"question_text" validate:"required,min=1,max=2000"`
	CorrectAnswer string   `json:"correct_answer" validate:"required,min=1,max=500"`
	Choices       []string `json:"choices" validate:"omitempty,max=10,dive,min=1,max=500"`
}

// QuizUpdateRequest represents the request structure for updating a quiz
type QuizUpdateRequest struct {
	Title  *string            `json:"title" validate:"omitempty,quiz_title"`
	Status *models.QuizStatus `json:"status" validate:"omitempty,quiz_status"`
}

// AttemptSubmitRequest carries a student's answers for a quiz
type AttemptSubmitRequest struct {
	Answers []AnswerSubmitRequest `json:"answers" validate:"required,min=1,dive"`
}

// AnswerSubmitRequest is a single answer within an attempt submission
type AnswerSubmitRequest struct {
	QuestionID     uint   `json:"question_id" validate:"required"`
	SelectedAnswer string `json:"selected_answer" validate:"max=500"`
}

// GradeOverrideRequest carries a manual grade. The grade arrives as a
// string and must parse as a non-negative integer; the service rejects
// anything else with a validation error.
type GradeOverrideRequest struct {
	Grade string `json:"grade" validate:"required,max=10"`
}

// CourseCreateRequest represents the request structure for creating a course
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,course_title"`
	Description string `json:"description" validate:"max=2000"`
	IsFeatured  bool   `json:"is_featured"`
}

// CourseUpdateRequest represents the request structure for updating a course
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,course_title"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsFeatured  *bool   `json:"is_featured"`
}

// LessonCreateRequest represents the request structure for creating a lesson
type LessonCreateRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"max=50000"`
	Slug    string `json:"slug" validate:"required,lesson_slug"`
}

// LessonUpdateRequest represents the request structure for updating a lesson
type LessonUpdateRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,max=50000"`
	Slug    *string `json:"slug" validate:"omitempty,lesson_slug"`
}

// EnrollRequest represents the request structure for enrolling in a course.
// StudentID is only honored for admin callers; everyone else enrolls themselves.
type EnrollRequest struct {
	CourseID  uint    `json:"course_id" validate:"required"`
	StudentID *string `json:"student_id" validate:"omitempty,max=255"`
}
