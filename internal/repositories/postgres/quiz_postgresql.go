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

type QuizPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// Create creates a new quiz and invalidates cache. Questions travel on
// quiz.Questions and are inserted by GORM in the same statement batch,
// so a quiz never becomes visible without its questions.
func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.getDB(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Quiz, fmt.Sprintf("course:%d:*", quiz.CourseID))
	cache.SafeInvalidatePattern(ctx, q.cacheManager.Quiz, "list:*")

	return nil
}

// GetByID retrieves a quiz by ID with caching
func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var quiz models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		err := q.getDB(tx).WithContext(ctx).First(&dbQuiz, id).Error
		if err != nil {
			return nil, err
		}
		return &dbQuiz, nil
	})

	if err != nil {
		return nil, err
	}

	return &quiz, nil
}

// GetByIDWithQuestions retrieves a quiz with its questions ordered by position
func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	cacheKey := fmt.Sprintf("questions:%d", id)
	var quiz models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		err := q.getDB(tx).WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("questions.position ASC")
			}).
			First(&dbQuiz, id).Error
		if err != nil {
			return nil, err
		}

		dbQuiz.QuestionCount = len(dbQuiz.Questions)
		return &dbQuiz, nil
	})

	return &quiz, err
}

// Update updates a quiz and invalidates cache
func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.getDB(tx).WithContext(ctx).Model(&models.Quiz{}).Where("id = ?", quiz.ID).Updates(map[string]interface{}{
		"title":      quiz.Title,
		"status":     quiz.Status,
		"updated_at": quiz.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.ID, quiz.CourseID)

	return nil
}

// Delete hard deletes a quiz after checking for submissions
func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var quiz models.Quiz
	if err := q.getDB(tx).WithContext(ctx).Select("id, course_id").First(&quiz, id).Error; err != nil {
		return fmt.Errorf("failed to get quiz before delete: %w", err)
	}

	var submissionCount int64
	err := q.getDB(tx).WithContext(ctx).
		Model(&models.QuizSubmission{}).
		Where("quiz_id = ?", id).
		Count(&submissionCount).Error
	if err != nil {
		return fmt.Errorf("failed to check submissions: %w", err)
	}
	if submissionCount > 0 {
		return fmt.Errorf("cannot delete quiz with existing submissions")
	}

	if err := q.getDB(tx).WithContext(ctx).Unscoped().Delete(&models.Quiz{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, id, quiz.CourseID)

	return nil
}

// List retrieves quizzes with filters and pagination
func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	query := q.getDB(tx).WithContext(ctx).Model(&models.Quiz{})

	query = q.helpers.ApplyQuizFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var quizzes []*models.Quiz
	err := query.Preload("Course").Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

// GetByCourse retrieves all quizzes of a course
func (q *QuizPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&quizzes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes for course: %w", err)
	}
	return quizzes, nil
}

// GetActiveByCourse retrieves only Active quizzes of a course, cached per course
func (q *QuizPostgreSQL) GetActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Quiz, error) {
	cacheKey := fmt.Sprintf("course:%d:active", courseID)
	var quizzes []*models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quizzes, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuizzes []*models.Quiz
		err := q.getDB(tx).WithContext(ctx).
			Where("course_id = ? AND status = ?", courseID, models.QuizActive).
			Order("created_at ASC").
			Find(&dbQuizzes).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list active quizzes: %w", err)
		}
		return dbQuizzes, nil
	})

	return quizzes, err
}

// UpdateStatus flips a quiz between Active and Inactive
func (q *QuizPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.QuizStatus) error {
	var quiz models.Quiz
	if err := q.getDB(tx).WithContext(ctx).Select("id, course_id").First(&quiz, id).Error; err != nil {
		return err
	}

	if err := q.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update quiz status: %w", err)
	}

	cache.InvalidateQuizCache(ctx, q.cacheManager, id, quiz.CourseID)

	return nil
}

// GetStats returns aggregate statistics for a quiz with caching
func (q *QuizPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, quizID uint) (*repositories.QuizStats, error) {
	cacheKey := fmt.Sprintf("quiz:%d:stats", quizID)
	var stats repositories.QuizStats

	err := q.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		db := q.getDB(tx).WithContext(ctx)
		var dbStats repositories.QuizStats

		var questionCount, submissionCount, studentsAttempted int64
		if err := db.Model(&models.Question{}).Where("quiz_id = ?", quizID).Count(&questionCount).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.QuizSubmission{}).Where("quiz_id = ?", quizID).Count(&submissionCount).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.QuizSubmission{}).
			Where("quiz_id = ?", quizID).
			Distinct("student_id").
			Count(&studentsAttempted).Error; err != nil {
			return nil, err
		}

		var avgScore *float64
		row := db.Model(&models.QuizSubmission{}).
			Where("quiz_id = ? AND grade IS NOT NULL", quizID).
			Select("AVG(grade)").
			Row()
		if err := row.Scan(&avgScore); err != nil {
			return nil, err
		}

		dbStats.QuestionCount = int(questionCount)
		dbStats.SubmissionCount = int(submissionCount)
		dbStats.StudentsAttempted = int(studentsAttempted)
		if avgScore != nil {
			dbStats.AverageScore = *avgScore
		}
		return &dbStats, nil
	})

	if err != nil {
		return nil, err
	}

	return &stats, nil
}
