package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusworks/lms-quiz-service/internal/cache"
	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSubmissionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// CreateIfAbsent inserts the submission with ON CONFLICT DO NOTHING on
// the (student_id, quiz_id, question_id) unique index. RowsAffected
// tells us whether the insert happened or an earlier answer won.
func (s *SubmissionPostgreSQL) CreateIfAbsent(ctx context.Context, tx *gorm.DB, submission *models.QuizSubmission) (bool, error) {
	result := s.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "student_id"},
				{Name: "quiz_id"},
				{Name: "question_id"},
			},
			DoNothing: true,
		}).
		Create(submission)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create submission: %w", result.Error)
	}

	inserted := result.RowsAffected > 0
	if inserted {
		s.invalidateSubmissionCaches(ctx, submission.StudentID, submission.QuizID)
	}

	return inserted, nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizSubmission, error) {
	var submission models.QuizSubmission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Question").
		Preload("Quiz").
		First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) ([]*models.QuizSubmission, error) {
	var submissions []*models.QuizSubmission
	err := s.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Preload("Question").
		Order("question_id ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters repositories.SubmissionFilters) ([]*models.QuizSubmission, error) {
	filters.QuizID = &quizID

	query := s.getDB(tx).WithContext(ctx).Model(&models.QuizSubmission{})
	query = s.helpers.ApplySubmissionFilters(query, filters)

	var submissions []*models.QuizSubmission
	err := query.
		Preload("Question").
		Order("student_id ASC, question_id ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz submissions: %w", err)
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.QuizSubmission, error) {
	var submissions []*models.QuizSubmission
	err := s.getDB(tx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Quiz").
		Order("quiz_id ASC, question_id ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list student submissions: %w", err)
	}
	return submissions, nil
}

// UpdateGrade sets the grade and grading metadata on a submission
func (s *SubmissionPostgreSQL) UpdateGrade(ctx context.Context, tx *gorm.DB, id uint, grade int, gradedBy string) error {
	var submission models.QuizSubmission
	if err := s.getDB(tx).WithContext(ctx).Select("id, student_id, quiz_id").First(&submission, id).Error; err != nil {
		return err
	}

	result := s.getDB(tx).WithContext(ctx).
		Model(&models.QuizSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"grade":     grade,
			"graded_by": gradedBy,
			"graded_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update grade: %w", result.Error)
	}

	s.invalidateSubmissionCaches(ctx, submission.StudentID, submission.QuizID)

	return nil
}

// SumGradesByStudentAndQuiz returns the aggregate score of a student on a quiz.
// NULL grades count as zero; no rows means score zero.
func (s *SubmissionPostgreSQL) SumGradesByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int, error) {
	var sum *int
	row := s.getDB(tx).WithContext(ctx).
		Model(&models.QuizSubmission{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Select("SUM(COALESCE(grade, 0))").
		Row()
	if err := row.Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum grades: %w", err)
	}

	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// CountByStudentAndQuiz counts the student's submissions on a quiz,
// graded or not. Zero means the quiz was never attempted.
func (s *SubmissionPostgreSQL) CountByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int64, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.QuizSubmission{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

func (s *SubmissionPostgreSQL) CountCorrectByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int64, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.QuizSubmission{}).
		Where("student_id = ? AND quiz_id = ? AND grade > 0", studentID, quizID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count correct submissions: %w", err)
	}
	return count, nil
}

func (s *SubmissionPostgreSQL) CountDistinctStudents(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.QuizSubmission{}).
		Where("quiz_id = ?", quizID).
		Distinct("student_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct students: %w", err)
	}
	return count, nil
}

func (s *SubmissionPostgreSQL) invalidateSubmissionCaches(ctx context.Context, studentID string, quizID uint) {
	cache.SafeInvalidatePattern(ctx, s.cacheManager.Stats, fmt.Sprintf("quiz:%d:*", quizID))
	cache.SafeInvalidatePattern(ctx, s.cacheManager.Roster, "*")
}
