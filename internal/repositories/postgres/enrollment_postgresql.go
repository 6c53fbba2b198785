package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/campusworks/lms-quiz-service/internal/cache"
	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// Create inserts an enrollment. A duplicate (student, course) pair hits
// the unique index and comes back as a duplicate-key error; callers map
// that to the duplicate-enrollment business error.
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := e.getDB(tx).WithContext(ctx).Create(enrollment).Error; err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.Stats, fmt.Sprintf("course:%d:*", enrollment.CourseID))
	cache.InvalidateRosterCache(ctx, e.cacheManager, enrollment.CourseID)

	return nil
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := e.getDB(tx).WithContext(ctx).Preload("Course").First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Course").
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments for student: %w", err)
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments for course: %w", err)
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Preload("Course").
		Order("student_id ASC, created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) UpdateProgress(ctx context.Context, tx *gorm.DB, id uint, progress float64) error {
	result := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("progress", progress)
	if result.Error != nil {
		return fmt.Errorf("failed to update enrollment progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (e *EnrollmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var enrollment models.Enrollment
	if err := e.getDB(tx).WithContext(ctx).Select("id, course_id").First(&enrollment, id).Error; err != nil {
		return fmt.Errorf("failed to get enrollment before delete: %w", err)
	}

	if err := e.getDB(tx).WithContext(ctx).Delete(&models.Enrollment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	cache.InvalidateRosterCache(ctx, e.cacheManager, enrollment.CourseID)

	return nil
}

// IsEnrolled checks enrollment with a short-lived existence cache
func (e *EnrollmentPostgreSQL) IsEnrolled(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (bool, error) {
	cacheKey := fmt.Sprintf("enrollment:%s:%d", studentID, courseID)
	if cached, err := e.cacheManager.Exists.GetString(ctx, cacheKey); err == nil {
		return cached == "true", nil
	}

	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}

	enrolled := count > 0
	e.cacheManager.Exists.SetString(ctx, cacheKey, fmt.Sprintf("%t", enrolled), cache.ExistsCacheConfig.TTL)

	return enrolled, nil
}
