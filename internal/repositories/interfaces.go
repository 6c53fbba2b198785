package repositories

import (
	"time"

	"github.com/campusworks/lms-quiz-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	InstructorID *string    `json:"instructor_id"`
	IsFeatured   *bool      `json:"is_featured"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
	SortBy       string     `json:"sort_by"`    // "created_at", "title"
	SortOrder    string     `json:"sort_order"` // "asc", "desc"
}

type QuizFilters struct {
	Status    *models.QuizStatus `json:"status"`
	CourseID  *uint              `json:"course_id"`
	CreatedBy *string            `json:"created_by"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`
	SortOrder string             `json:"sort_order"`
}

type SubmissionFilters struct {
	StudentID *string    `json:"student_id"`
	QuizID    *uint      `json:"quiz_id"`
	Graded    *bool      `json:"graded"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// UserFilters defines filters for user queries.
type UserFilters struct {
	Query  string // Search query for name or email
	Limit  int    // Page size
	Offset int    // Offset for pagination
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizStats struct {
	QuestionCount     int     `json:"question_count"`
	SubmissionCount   int     `json:"submission_count"`
	StudentsAttempted int     `json:"students_attempted"`
	AverageScore      float64 `json:"average_score"`
}

type CourseStats struct {
	LessonCount     int `json:"lesson_count"`
	QuizCount       int `json:"quiz_count"`
	EnrollmentCount int `json:"enrollment_count"`
}
