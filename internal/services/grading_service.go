package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/campusworks/lms-quiz-service/internal/events"
	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
	"gorm.io/gorm"
)

// AutoGrade scores a single answer: 1 for an exact, case-sensitive
// match against the recorded correct answer, 0 otherwise. It is a pure
// function so the same answer always grades the same.
func AutoGrade(selectedAnswer, correctAnswer string) int {
	if selectedAnswer == correctAnswer {
		return 1
	}
	return 0
}

type gradingService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	authz          *authz
}

func NewGradingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) GradingService {
	return &gradingService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		authz:          newAuthz(repo),
	}
}

// OverrideGrade replaces a submission's grade with an instructor-set
// value. The grade arrives as a raw string and must parse as a
// non-negative integer; anything else is rejected before touching the
// database. Only the owning instructor or an admin may override.
func (s *gradingService) OverrideGrade(ctx context.Context, submissionID uint, req *GradeOverrideRequest, graderID string) (*GradingResult, error) {
	s.logger.Info("Overriding grade", "submission_id", submissionID, "grader_id", graderID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	grade, err := parseGrade(req.Grade)
	if err != nil {
		return nil, err
	}

	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	// Ownership is checked against the course the quiz belongs to, not
	// just the grader's role
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, submission.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if err := s.authz.requireCourseManager(ctx, quiz.CourseID, graderID, "override_grade"); err != nil {
		return nil, err
	}

	if err := s.repo.Submission().UpdateGrade(ctx, nil, submissionID, grade, graderID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to update grade: %w", err)
	}

	updated, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	result := &GradingResult{
		SubmissionID: updated.ID,
		QuestionID:   updated.QuestionID,
		Grade:        grade,
		GradedBy:     graderID,
	}
	if updated.GradedAt != nil {
		result.GradedAt = *updated.GradedAt
	}

	s.publishSubmissionGraded(ctx, updated, grade, graderID)

	s.logger.Info("Grade overridden", "submission_id", submissionID, "grade", grade, "grader_id", graderID)
	return result, nil
}

// AggregateScore is the sum of the student's grades across a quiz's
// submissions. Unanswered questions contribute nothing.
func (s *gradingService) AggregateScore(ctx context.Context, quizID uint, studentID string, callerID string) (int, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrQuizNotFound
		}
		return 0, fmt.Errorf("failed to get quiz: %w", err)
	}

	// Students may read their own score; everything else needs course
	// management rights
	if callerID != studentID {
		if err := s.authz.requireCourseManager(ctx, quiz.CourseID, callerID, "read_score"); err != nil {
			return 0, err
		}
	}

	score, err := s.repo.Submission().SumGradesByStudentAndQuiz(ctx, nil, studentID, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum grades: %w", err)
	}
	return score, nil
}

// ===== HELPERS =====

func (s *gradingService) getSubmission(ctx context.Context, id uint) (*models.QuizSubmission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *gradingService) publishSubmissionGraded(ctx context.Context, submission *models.QuizSubmission, grade int, gradedBy string) {
	if s.eventPublisher == nil {
		return
	}
	event := &events.Event{
		Type: events.EventSubmissionGraded,
		Data: events.SubmissionGradedEvent{
			SubmissionID: submission.ID,
			QuizID:       submission.QuizID,
			StudentID:    submission.StudentID,
			Grade:        grade,
			GradedBy:     gradedBy,
		},
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish grading event", "submission_id", submission.ID, "error", err)
	}
}

// parseGrade turns the raw override value into a grade. Whitespace is
// trimmed; negative values, signs, and non-digit input are rejected.
func parseGrade(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, NewValidationError("grade", "grade is required", raw)
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, NewValidationError("grade", "grade must be a non-negative integer", raw)
		}
	}
	grade, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, NewValidationError("grade", "grade must be a non-negative integer", raw)
	}
	return grade, nil
}
