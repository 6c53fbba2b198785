package repositories

import (
	"context"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"gorm.io/gorm"
)

// SubmissionRepository interface for quiz submission operations
type SubmissionRepository interface {
	// CreateIfAbsent inserts the submission unless a row already exists
	// for the same (student, quiz, question). Returns true when the row
	// was inserted, false when an earlier answer already held the slot.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, submission *models.QuizSubmission) (bool, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizSubmission, error)
	GetByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) ([]*models.QuizSubmission, error)
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters SubmissionFilters) ([]*models.QuizSubmission, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.QuizSubmission, error)

	// Grading
	UpdateGrade(ctx context.Context, tx *gorm.DB, id uint, grade int, gradedBy string) error

	// Aggregates
	SumGradesByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int, error)
	CountByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int64, error)
	CountCorrectByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int64, error)
	CountDistinctStudents(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error)
}
