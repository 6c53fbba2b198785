package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusworks/lms-quiz-service/internal/events"
	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
	"gorm.io/gorm"
)

type enrollmentService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	authz          *authz
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) EnrollmentService {
	return &enrollmentService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		authz:          newAuthz(repo),
	}
}

// Enroll registers a student in a course. Students always enroll
// themselves; admins may enroll someone else by setting StudentID.
// Only users holding the student role can be enrolled at all.
func (s *enrollmentService) Enroll(ctx context.Context, req *EnrollRequest, callerID string) (*models.Enrollment, error) {
	s.logger.Info("Enrolling student", "course_id", req.CourseID, "caller_id", callerID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	studentID := callerID
	if req.StudentID != nil && *req.StudentID != callerID {
		isAdmin, err := s.authz.isAdmin(ctx, callerID)
		if err != nil {
			return nil, fmt.Errorf("permission check failed: %w", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(callerID, req.CourseID, "enrollment", "create", "only admins may enroll other students")
		}
		studentID = *req.StudentID
	}

	if _, err := s.repo.Course().GetByID(ctx, nil, req.CourseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	role, err := s.authz.userRole(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleStudent {
		return nil, NewPermissionError(studentID, req.CourseID, "enrollment", "create", "only users with the student role can be enrolled")
	}

	enrollment := &models.Enrollment{
		StudentID: studentID,
		CourseID:  req.CourseID,
	}
	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		// The unique index on (student_id, course_id) is the source of
		// truth for double enrollment
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEnrollment
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.publishStudentEnrolled(ctx, enrollment)

	s.logger.Info("Student enrolled successfully", "enrollment_id", enrollment.ID, "student_id", studentID, "course_id", req.CourseID)
	return enrollment, nil
}

func (s *enrollmentService) Unenroll(ctx context.Context, enrollmentID uint, callerID string) error {
	s.logger.Info("Removing enrollment", "enrollment_id", enrollmentID, "caller_id", callerID)

	enrollment, err := s.getEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return err
	}

	// Students may drop their own enrollment; otherwise course
	// management rights are required.
	if enrollment.StudentID != callerID {
		if err := s.authz.requireCourseManager(ctx, enrollment.CourseID, callerID, "unenroll"); err != nil {
			return err
		}
	}

	if err := s.repo.Enrollment().Delete(ctx, nil, enrollmentID); err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	return nil
}

func (s *enrollmentService) GetByStudent(ctx context.Context, studentID string, callerID string) ([]*models.Enrollment, error) {
	if studentID != callerID {
		ok, err := s.authz.isInstructorOrAdmin(ctx, callerID)
		if err != nil {
			return nil, fmt.Errorf("permission check failed: %w", err)
		}
		if !ok {
			return nil, NewPermissionError(callerID, 0, "enrollment", "read", "students may only view their own enrollments")
		}
	}
	enrollments, err := s.repo.Enrollment().GetByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

func (s *enrollmentService) GetByCourse(ctx context.Context, courseID uint, callerID string) ([]*models.Enrollment, error) {
	if err := s.authz.requireCourseManager(ctx, courseID, callerID, "list_enrollments"); err != nil {
		return nil, err
	}
	enrollments, err := s.repo.Enrollment().GetByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

func (s *enrollmentService) UpdateProgress(ctx context.Context, enrollmentID uint, progress float64, callerID string) error {
	if progress < 0 || progress > 100 {
		return NewValidationError("progress", "progress must be between 0 and 100", progress)
	}

	enrollment, err := s.getEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.StudentID != callerID {
		if err := s.authz.requireCourseManager(ctx, enrollment.CourseID, callerID, "update_progress"); err != nil {
			return err
		}
	}

	if err := s.repo.Enrollment().UpdateProgress(ctx, nil, enrollmentID, progress); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// ===== HELPERS =====

func (s *enrollmentService) getEnrollmentByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

// publishStudentEnrolled emits the enrollment event. Publishing is
// best-effort: the enrollment is already committed.
func (s *enrollmentService) publishStudentEnrolled(ctx context.Context, enrollment *models.Enrollment) {
	if s.eventPublisher == nil {
		return
	}
	event := &events.Event{
		Type: events.EventStudentEnrolled,
		Data: events.StudentEnrolledEvent{
			CourseID:  enrollment.CourseID,
			StudentID: enrollment.StudentID,
		},
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish enrollment event", "enrollment_id", enrollment.ID, "error", err)
	}
}
