package repositories

import (
	"context"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"gorm.io/gorm"
)

// CourseRepository interface for course-specific operations
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) // Include lessons, quizzes
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters CourseFilters) ([]*models.Course, int64, error)

	// Validation and checks
	ExistsByTitle(ctx context.Context, tx *gorm.DB, title string, instructorID string, excludeID *uint) (bool, error)
	IsOwnedBy(ctx context.Context, tx *gorm.DB, courseID uint, instructorID string) (bool, error)

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, courseID uint) (*CourseStats, error)
}

// LessonRepository interface for lesson operations
type LessonRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Lesson, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Validation
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error)
}

// EnrollmentRepository interface for enrollment operations
type EnrollmentRepository interface {
	// Create relies on the (student_id, course_id) unique index; a
	// duplicate enrollment surfaces as a duplicate-key error, never as a
	// racy existence check in the caller.
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Enrollment, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, id uint, progress float64) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Checks
	IsEnrolled(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (bool, error)
}
