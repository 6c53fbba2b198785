package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
)

type LessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{db: db}
}

func (l *LessonPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

func (l *LessonPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := l.getDB(tx).WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.getDB(tx).WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.getDB(tx).WithContext(ctx).Where("slug = ?", slug).First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := l.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (l *LessonPostgreSQL) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := l.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", lesson.ID).Updates(map[string]interface{}{
		"title":      lesson.Title,
		"content":    lesson.Content,
		"slug":       lesson.Slug,
		"updated_at": lesson.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return nil
}

func (l *LessonPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := l.getDB(tx).WithContext(ctx).Delete(&models.Lesson{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return nil
}

func (l *LessonPostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	query := l.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check lesson slug: %w", err)
	}
	return count > 0, nil
}
