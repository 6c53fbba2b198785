package repositories

import (
	"context"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"gorm.io/gorm"
)

// QuizRepository interface for quiz-specific operations
type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Quiz, error)
	GetActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Quiz, error)

	// Status transitions
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.QuizStatus) error

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, quizID uint) (*QuizStats, error)
}

// QuestionRepository interface for question operations.
// Questions are created in bulk alongside their quiz and are immutable
// afterwards; there is no Update on purpose.
type QuestionRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error)
	CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}
