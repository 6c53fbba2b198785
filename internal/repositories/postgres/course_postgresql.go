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

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// Create creates a new course and invalidates cache
func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("instructor:%s:*", course.InstructorID))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.getDB(tx).WithContext(ctx).First(&dbCourse, id).Error
		if err != nil {
			return nil, err
		}
		return &dbCourse, nil
	})

	if err != nil {
		return nil, err
	}

	return &course, nil
}

// GetByIDWithDetails retrieves a course with lessons and quizzes preloaded
func (c *CoursePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.getDB(tx).WithContext(ctx).
			Preload("Lessons", func(db *gorm.DB) *gorm.DB {
				return db.Order("lessons.id ASC")
			}).
			Preload("Quizzes").
			First(&dbCourse, id).Error
		if err != nil {
			return nil, err
		}

		c.calculateComputedFields(ctx, tx, &dbCourse)
		return &dbCourse, nil
	})

	return &course, err
}

// Update updates a course and invalidates cache
func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).Updates(map[string]interface{}{
		"title":       course.Title,
		"description": course.Description,
		"is_featured": course.IsFeatured,
		"updated_at":  course.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID, course.InstructorID)

	return nil
}

// Delete soft deletes a course
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var course models.Course
	if err := c.getDB(tx).WithContext(ctx).Select("id, instructor_id").First(&course, id).Error; err != nil {
		return fmt.Errorf("failed to get course before delete: %w", err)
	}

	if err := c.getDB(tx).WithContext(ctx).Delete(&models.Course{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id, course.InstructorID)

	return nil
}

// List retrieves courses with filters and pagination
func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.getDB(tx).WithContext(ctx).Model(&models.Course{})

	query = c.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	err := query.Preload("Instructor").Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}

	for _, course := range courses {
		c.calculateComputedFields(ctx, tx, course)
	}

	return courses, total, nil
}

// GetByInstructor retrieves courses owned by an instructor
func (c *CoursePostgreSQL) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.InstructorID = &instructorID
	return c.List(ctx, tx, filters)
}

// ExistsByTitle checks title uniqueness per instructor
func (c *CoursePostgreSQL) ExistsByTitle(ctx context.Context, tx *gorm.DB, title string, instructorID string, excludeID *uint) (bool, error) {
	query := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("title = ? AND instructor_id = ?", title, instructorID)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check course title: %w", err)
	}

	return count > 0, nil
}

// IsOwnedBy checks whether the instructor owns the course
func (c *CoursePostgreSQL) IsOwnedBy(ctx context.Context, tx *gorm.DB, courseID uint, instructorID string) (bool, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND instructor_id = ?", courseID, instructorID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course ownership: %w", err)
	}

	return count > 0, nil
}

// GetStats returns aggregate counts for a course with caching
func (c *CoursePostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, courseID uint) (*repositories.CourseStats, error) {
	cacheKey := fmt.Sprintf("course:%d:counts", courseID)
	var stats repositories.CourseStats

	err := c.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		db := c.getDB(tx).WithContext(ctx)
		var dbStats repositories.CourseStats

		var lessonCount, quizCount, enrollmentCount int64
		if err := db.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&lessonCount).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.Quiz{}).Where("course_id = ?", courseID).Count(&quizCount).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&enrollmentCount).Error; err != nil {
			return nil, err
		}

		dbStats.LessonCount = int(lessonCount)
		dbStats.QuizCount = int(quizCount)
		dbStats.EnrollmentCount = int(enrollmentCount)
		return &dbStats, nil
	})

	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// calculateComputedFields fills the gorm:"-" counters on a course
func (c *CoursePostgreSQL) calculateComputedFields(ctx context.Context, tx *gorm.DB, course *models.Course) {
	stats, err := c.GetStats(ctx, tx, course.ID)
	if err != nil {
		return
	}
	course.LessonCount = stats.LessonCount
	course.QuizCount = stats.QuizCount
	course.EnrollmentCount = stats.EnrollmentCount
}
