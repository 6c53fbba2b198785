package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
	"gorm.io/gorm"
)

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	authz     *authz
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		authz:     newAuthz(repo),
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, instructorID string) (*CourseResponse, error) {
	s.logger.Info("Creating course", "instructor_id", instructorID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	canCreate, err := s.authz.isInstructorOrAdmin(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canCreate {
		return nil, NewPermissionError(instructorID, 0, "course", "create", "requires instructor or admin role")
	}

	exists, err := s.repo.Course().ExistsByTitle(ctx, nil, req.Title, instructorID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check course title: %w", err)
	}
	if exists {
		return nil, NewBusinessRuleError("duplicate_course_title", "instructor already has a course with this title")
	}

	course := &models.Course{
		Title:        req.Title,
		Description:  req.Description,
		IsFeatured:   req.IsFeatured,
		InstructorID: instructorID,
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created successfully", "course_id", course.ID)
	return s.GetByID(ctx, course.ID, instructorID)
}

func (s *courseService) GetByID(ctx context.Context, id uint, userID string) (*CourseResponse, error) {
	course, err := s.getCourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildCourseResponse(ctx, course, userID)
}

func (s *courseService) GetByIDWithDetails(ctx context.Context, id uint, userID string) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return s.buildCourseResponse(ctx, course, userID)
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*CourseResponse, error) {
	s.logger.Info("Updating course", "course_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.getCourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.requireCourseManager(ctx, id, userID, "update"); err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != course.Title {
		exists, err := s.repo.Course().ExistsByTitle(ctx, nil, *req.Title, course.InstructorID, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check course title: %w", err)
		}
		if exists {
			return nil, NewBusinessRuleError("duplicate_course_title", "instructor already has a course with this title")
		}
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.IsFeatured != nil {
		course.IsFeatured = *req.IsFeatured
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated successfully", "course_id", id)
	return s.GetByID(ctx, id, userID)
}

func (s *courseService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting course", "course_id", id, "user_id", userID)

	if _, err := s.getCourseByID(ctx, id); err != nil {
		return err
	}
	if err := s.authz.requireCourseManager(ctx, id, userID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted successfully", "course_id", id)
	return nil
}

// ===== LIST OPERATIONS =====

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return s.buildCourseListResponse(ctx, courses, total, filters, userID)
}

func (s *courseService) GetByInstructor(ctx context.Context, instructorID string, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().GetByInstructor(ctx, nil, instructorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructor courses: %w", err)
	}
	return s.buildCourseListResponse(ctx, courses, total, filters, instructorID)
}

// ===== LESSON MANAGEMENT =====

func (s *courseService) AddLesson(ctx context.Context, courseID uint, req *CreateLessonRequest, userID string) (*models.Lesson, error) {
	s.logger.Info("Adding lesson", "course_id", courseID, "user_id", userID, "slug", req.Slug)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.getCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	if err := s.authz.requireCourseManager(ctx, courseID, userID, "add_lesson"); err != nil {
		return nil, err
	}

	exists, err := s.repo.Lesson().ExistsBySlug(ctx, nil, req.Slug, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check lesson slug: %w", err)
	}
	if exists {
		return nil, NewBusinessRuleError("duplicate_lesson_slug", "a lesson with this slug already exists")
	}

	lesson := &models.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Slug:     req.Slug,
		Content:  req.Content,
	}
	if err := s.repo.Lesson().Create(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson created successfully", "lesson_id", lesson.ID, "course_id", courseID)
	return lesson, nil
}

func (s *courseService) UpdateLesson(ctx context.Context, courseID, lessonID uint, req *UpdateLessonRequest, userID string) (*models.Lesson, error) {
	s.logger.Info("Updating lesson", "course_id", courseID, "lesson_id", lessonID, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	lesson, err := s.getLessonInCourse(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.requireCourseManager(ctx, courseID, userID, "update_lesson"); err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.Slug != nil && *req.Slug != lesson.Slug {
		exists, err := s.repo.Lesson().ExistsBySlug(ctx, nil, *req.Slug, &lessonID)
		if err != nil {
			return nil, fmt.Errorf("failed to check lesson slug: %w", err)
		}
		if exists {
			return nil, NewBusinessRuleError("duplicate_lesson_slug", "a lesson with this slug already exists")
		}
		lesson.Slug = *req.Slug
	}

	if err := s.repo.Lesson().Update(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}
	return lesson, nil
}

func (s *courseService) DeleteLesson(ctx context.Context, courseID, lessonID uint, userID string) error {
	s.logger.Info("Deleting lesson", "course_id", courseID, "lesson_id", lessonID, "user_id", userID)

	if _, err := s.getLessonInCourse(ctx, courseID, lessonID); err != nil {
		return err
	}
	if err := s.authz.requireCourseManager(ctx, courseID, userID, "delete_lesson"); err != nil {
		return err
	}
	if err := s.repo.Lesson().Delete(ctx, nil, lessonID); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return nil
}

func (s *courseService) GetLessons(ctx context.Context, courseID uint) ([]*models.Lesson, error) {
	if _, err := s.getCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	lessons, err := s.repo.Lesson().GetByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// ===== STATISTICS =====

func (s *courseService) GetStats(ctx context.Context, courseID uint, userID string) (*repositories.CourseStats, error) {
	if _, err := s.getCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	if err := s.authz.requireCourseManager(ctx, courseID, userID, "stats"); err != nil {
		return nil, err
	}
	stats, err := s.repo.Course().GetStats(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course stats: %w", err)
	}
	return stats, nil
}

// ===== HELPERS =====

func (s *courseService) getCourseByID(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) getLessonInCourse(ctx context.Context, courseID, lessonID uint) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, nil, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.CourseID != courseID {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

func (s *courseService) buildCourseResponse(ctx context.Context, course *models.Course, userID string) (*CourseResponse, error) {
	canEdit, err := s.authz.canManageCourse(ctx, course.ID, userID)
	if err != nil {
		// Role lookup failures degrade to a read-only view
		s.logger.Warn("Failed to resolve edit permission", "course_id", course.ID, "user_id", userID, "error", err)
		canEdit = false
	}
	return &CourseResponse{Course: course, CanEdit: canEdit}, nil
}

func (s *courseService) buildCourseListResponse(ctx context.Context, courses []*models.Course, total int64, filters repositories.CourseFilters, userID string) (*CourseListResponse, error) {
	responses := make([]*CourseResponse, 0, len(courses))
	for _, course := range courses {
		resp, err := s.buildCourseResponse(ctx, course, userID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	page := 1
	size := len(responses)
	if filters.Limit > 0 {
		size = filters.Limit
		page = filters.Offset/filters.Limit + 1
	}
	return &CourseListResponse{
		Courses: responses,
		Total:   total,
		Page:    page,
		Size:    size,
	}, nil
}
