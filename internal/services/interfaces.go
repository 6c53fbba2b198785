package services

import (
	"context"
	"time"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest
type QuizQuestionRequest = validator.QuestionCreateRequest
type SubmitAttemptRequest = validator.AttemptSubmitRequest
type GradeOverrideRequest = validator.GradeOverrideRequest
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type EnrollRequest = validator.EnrollRequest

type QuizResponse struct {
	*models.Quiz
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type QuizListResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
}

type CourseResponse struct {
	*models.Course
	CanEdit bool `json:"can_edit"`
}

type CourseListResponse struct {
	Courses []*CourseResponse `json:"courses"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// ===== ATTEMPT RELATED DTOs =====

// AttemptQuestion is a question as shown to a student taking a quiz.
// It deliberately has no correct answer field.
type AttemptQuestion struct {
	ID           uint     `json:"id"`
	Position     int      `json:"position"`
	QuestionText string   `json:"question_text"`
	Choices      []string `json:"choices,omitempty"`
}

// AttemptView is the render of an active quiz for an enrolled student
type AttemptView struct {
	QuizID    uint              `json:"quiz_id"`
	CourseID  uint              `json:"course_id"`
	Title     string            `json:"title"`
	Questions []AttemptQuestion `json:"questions"`
}

// SubmitResult is the outcome of submitting answers: how many of the
// quiz's questions this student has answered correctly so far, over the
// total question count. Re-submissions return the same numbers.
type SubmitResult struct {
	QuizID  uint `json:"quiz_id"`
	Correct int  `json:"correct"`
	Total   int  `json:"total"`
	Score   int  `json:"score"`
}

// ===== GRADING RELATED DTOs =====

type GradingResult struct {
	SubmissionID uint      `json:"submission_id"`
	QuestionID   uint      `json:"question_id"`
	Grade        int       `json:"grade"`
	GradedBy     string    `json:"graded_by"`
	GradedAt     time.Time `json:"graded_at"`
}

// ===== ROSTER RELATED DTOs =====

// QuizScore is a per-quiz aggregate (sum of grades) for one student
type QuizScore struct {
	QuizID    uint   `json:"quiz_id"`
	QuizTitle string `json:"quiz_title"`
	Score     int    `json:"score"`
}

type RosterCourse struct {
	CourseID    uint        `json:"course_id"`
	CourseTitle string      `json:"course_title"`
	Quizzes     []QuizScore `json:"quizzes"`
}

// RosterEntry is one student's row in the roster: the courses they are
// enrolled in and their aggregate score per quiz.
type RosterEntry struct {
	StudentID   string         `json:"student_id"`
	StudentName string         `json:"student_name"`
	Courses     []RosterCourse `json:"courses"`
}

// StudentSubmissions groups a quiz's submissions by student
type StudentSubmissions struct {
	StudentID   string                   `json:"student_id"`
	StudentName string                   `json:"student_name"`
	Submissions []*models.QuizSubmission `json:"submissions"`
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateCourseRequest, instructorID string) (*CourseResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*CourseResponse, error)
	GetByIDWithDetails(ctx context.Context, id uint, userID string) (*CourseResponse, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*CourseResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List operations
	List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error)
	GetByInstructor(ctx context.Context, instructorID string, filters repositories.CourseFilters) (*CourseListResponse, error)

	// Lesson management
	AddLesson(ctx context.Context, courseID uint, req *CreateLessonRequest, userID string) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, courseID, lessonID uint, req *UpdateLessonRequest, userID string) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, courseID, lessonID uint, userID string) error
	GetLessons(ctx context.Context, courseID uint) ([]*models.Lesson, error)

	// Statistics
	GetStats(ctx context.Context, courseID uint, userID string) (*repositories.CourseStats, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, req *EnrollRequest, callerID string) (*models.Enrollment, error)
	Unenroll(ctx context.Context, enrollmentID uint, callerID string) error
	GetByStudent(ctx context.Context, studentID string, callerID string) ([]*models.Enrollment, error)
	GetByCourse(ctx context.Context, courseID uint, callerID string) ([]*models.Enrollment, error)
	UpdateProgress(ctx context.Context, enrollmentID uint, progress float64, callerID string) error
}

type QuizService interface {
	// Create builds the quiz and all its questions atomically
	Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List operations
	List(ctx context.Context, filters repositories.QuizFilters, userID string) (*QuizListResponse, error)
	GetByCourse(ctx context.Context, courseID uint, userID string) ([]*QuizResponse, error)

	// Status management
	Publish(ctx context.Context, id uint, userID string) error
	Deactivate(ctx context.Context, id uint, userID string) error

	// Statistics
	GetStats(ctx context.Context, id uint, userID string) (*repositories.QuizStats, error)
}

type AttemptService interface {
	// Render returns the quiz as a student sees it: active quizzes of
	// courses the student is enrolled in, without correct answers.
	Render(ctx context.Context, quizID uint, studentID string) (*AttemptView, error)

	// Submit records the student's answers, one per question of the
	// quiz. Each answer is graded at insert time; answers for
	// already-answered questions are ignored.
	Submit(ctx context.Context, quizID uint, req *SubmitAttemptRequest, studentID string) (*SubmitResult, error)
}

type GradingService interface {
	// OverrideGrade replaces a submission's grade with an instructor-set
	// value. The raw grade must parse as a non-negative integer.
	OverrideGrade(ctx context.Context, submissionID uint, req *GradeOverrideRequest, graderID string) (*GradingResult, error)

	// AggregateScore returns the sum of a student's grades on a quiz
	AggregateScore(ctx context.Context, quizID uint, studentID string, callerID string) (int, error)
}

type RosterService interface {
	// Roster lists every enrolled student with course titles and
	// per-quiz aggregate scores
	Roster(ctx context.Context, callerID string) ([]*RosterEntry, error)

	// CourseRoster restricts the roster to one course
	CourseRoster(ctx context.Context, courseID uint, callerID string) ([]*RosterEntry, error)

	// SubmissionsByStudent groups a quiz's submissions per student
	SubmissionsByStudent(ctx context.Context, quizID uint, callerID string) ([]*StudentSubmissions, error)
}

type ExportService interface {
	// ExportRosterXLSX renders the roster as an Excel workbook
	ExportRosterXLSX(ctx context.Context, callerID string) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Course() CourseService
	Enrollment() EnrollmentService
	Quiz() QuizService
	Attempt() AttemptService
	Grading() GradingService
	Roster() RosterService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
