package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/campusworks/lms-quiz-service/internal/events"
	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type quizService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	authz          *authz
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) QuizService {
	return &quizService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		authz:          newAuthz(repo),
	}
}

// ===== CORE CRUD OPERATIONS =====

// Create persists the quiz and every question in one transaction. A
// quiz is never visible with half its questions.
func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "creator_id", creatorID, "course_id", req.CourseID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateQuizCreate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.getCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}
	if err := s.authz.requireCourseManager(ctx, req.CourseID, creatorID, "create_quiz"); err != nil {
		return nil, err
	}

	status := models.QuizInactive
	if req.Status != "" {
		status = req.Status
	}
	quiz := &models.Quiz{
		CourseID:  req.CourseID,
		Title:     req.Title,
		Status:    status,
		CreatedBy: creatorID,
	}
	quiz.Questions = make([]models.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		choices, err := encodeChoices(q.Choices)
		if err != nil {
			return nil, fmt.Errorf("failed to encode choices for question %d: %w", i+1, err)
		}
		quiz.Questions = append(quiz.Questions, models.Question{
			Position:      i + 1,
			QuestionText:  q.QuestionText,
			CorrectAnswer: q.CorrectAnswer,
			Choices:       choices,
		})
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Quiz().Create(ctx, nil, quiz)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	if quiz.Status == models.QuizActive {
		s.publishQuizPublished(ctx, quiz)
	}

	s.logger.Info("Quiz created successfully", "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	return s.GetByIDWithQuestions(ctx, quiz.ID, creatorID)
}

func (s *quizService) GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildQuizResponse(ctx, quiz, userID)
}

func (s *quizService) GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	// Correct answers are only for people who can manage the course
	canManage, err := s.authz.canManageCourse(ctx, quiz.CourseID, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return nil, NewPermissionError(userID, id, "quiz", "read_questions", "requires admin role or course ownership")
	}
	return s.buildQuizResponse(ctx, quiz, userID)
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error) {
	s.logger.Info("Updating quiz", "quiz_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.requireCourseManager(ctx, quiz.CourseID, userID, "update_quiz"); err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Status != nil && *req.Status != quiz.Status {
		if err := s.validator.GetBusinessValidator().ValidateStatusTransition(quiz.Status, *req.Status); err != nil {
			return nil, err
		}
		quiz.Status = *req.Status
	}

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	if req.Status != nil && *req.Status == models.QuizActive {
		s.publishQuizPublished(ctx, quiz)
	}
	return s.GetByID(ctx, id, userID)
}

// Delete removes a quiz that has no submissions yet
func (s *quizService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting quiz", "quiz_id", id, "user_id", userID)

	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.requireCourseManager(ctx, quiz.CourseID, userID, "delete_quiz"); err != nil {
		return err
	}

	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted successfully", "quiz_id", id)
	return nil
}

// ===== LIST OPERATIONS =====

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters, userID string) (*QuizListResponse, error) {
	quizzes, total, err := s.repo.Quiz().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	responses := make([]*QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		resp, err := s.buildQuizResponse(ctx, quiz, userID)
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
	return &QuizListResponse{Quizzes: responses, Total: total, Page: page, Size: size}, nil
}

func (s *quizService) GetByCourse(ctx context.Context, courseID uint, userID string) ([]*QuizResponse, error) {
	if _, err := s.getCourse(ctx, courseID); err != nil {
		return nil, err
	}

	canManage, err := s.authz.canManageCourse(ctx, courseID, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}

	// Students only see active quizzes of courses they are enrolled in
	var quizzes []*models.Quiz
	if canManage {
		quizzes, err = s.repo.Quiz().GetByCourse(ctx, nil, courseID)
	} else {
		if err := s.authz.requireEnrolled(ctx, courseID, userID); err != nil {
			return nil, err
		}
		quizzes, err = s.repo.Quiz().GetActiveByCourse(ctx, nil, courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list course quizzes: %w", err)
	}

	responses := make([]*QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		responses = append(responses, &QuizResponse{Quiz: quiz, CanEdit: canManage, CanDelete: canManage})
	}
	return responses, nil
}

// ===== STATUS MANAGEMENT =====

func (s *quizService) Publish(ctx context.Context, id uint, userID string) error {
	return s.setStatus(ctx, id, models.QuizActive, userID)
}

func (s *quizService) Deactivate(ctx context.Context, id uint, userID string) error {
	return s.setStatus(ctx, id, models.QuizInactive, userID)
}

func (s *quizService) setStatus(ctx context.Context, id uint, status models.QuizStatus, userID string) error {
	s.logger.Info("Changing quiz status", "quiz_id", id, "status", status, "user_id", userID)

	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.requireCourseManager(ctx, quiz.CourseID, userID, "change_status"); err != nil {
		return err
	}
	if quiz.Status == status {
		return nil
	}
	if err := s.validator.GetBusinessValidator().ValidateStatusTransition(quiz.Status, status); err != nil {
		return err
	}

	if err := s.repo.Quiz().UpdateStatus(ctx, nil, id, status); err != nil {
		return fmt.Errorf("failed to update quiz status: %w", err)
	}

	if status == models.QuizActive {
		quiz.Status = status
		s.publishQuizPublished(ctx, quiz)
	}
	return nil
}

// ===== STATISTICS =====

func (s *quizService) GetStats(ctx context.Context, id uint, userID string) (*repositories.QuizStats, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.requireCourseManager(ctx, quiz.CourseID, userID, "stats"); err != nil {
		return nil, err
	}
	stats, err := s.repo.Quiz().GetStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}
	return stats, nil
}

// ===== HELPERS =====

func (s *quizService) getQuiz(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) getCourse(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *quizService) buildQuizResponse(ctx context.Context, quiz *models.Quiz, userID string) (*QuizResponse, error) {
	canManage, err := s.authz.canManageCourse(ctx, quiz.CourseID, userID)
	if err != nil {
		s.logger.Warn("Failed to resolve quiz permissions", "quiz_id", quiz.ID, "user_id", userID, "error", err)
		canManage = false
	}
	return &QuizResponse{Quiz: quiz, CanEdit: canManage, CanDelete: canManage}, nil
}

func (s *quizService) publishQuizPublished(ctx context.Context, quiz *models.Quiz) {
	if s.eventPublisher == nil {
		return
	}
	event := &events.Event{
		Type: events.EventQuizPublished,
		Data: events.QuizPublishedEvent{
			QuizID:   quiz.ID,
			CourseID: quiz.CourseID,
			Title:    quiz.Title,
		},
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz event", "quiz_id", quiz.ID, "error", err)
	}
}

// encodeChoices marshals the choice list for jsonb storage. Empty
// choice lists are stored as NULL so free-text questions stay distinguishable.
func encodeChoices(choices []string) (datatypes.JSON, error) {
	if len(choices) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(choices)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
