package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusworks/lms-quiz-service/internal/events"
	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
	"gorm.io/gorm"
)

type attemptService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	authz          *authz
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) AttemptService {
	return &attemptService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		authz:          newAuthz(repo),
	}
}

// Render returns the attempt view of a quiz: questions in position
// order, choices decoded, correct answers stripped. Only enrolled
// students of the quiz's course may see an active quiz.
func (s *attemptService) Render(ctx context.Context, quizID uint, studentID string) (*AttemptView, error) {
	quiz, err := s.getQuizWithQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != models.QuizActive {
		return nil, ErrQuizNotActive
	}
	if err := s.authz.requireEnrolled(ctx, quiz.CourseID, studentID); err != nil {
		return nil, err
	}

	view := &AttemptView{
		QuizID:    quiz.ID,
		CourseID:  quiz.CourseID,
		Title:     quiz.Title,
		Questions: make([]AttemptQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		choices, err := decodeChoices(q.Choices)
		if err != nil {
			return nil, fmt.Errorf("failed to decode choices for question %d: %w", q.ID, err)
		}
		view.Questions = append(view.Questions, AttemptQuestion{
			ID:           q.ID,
			Position:     q.Position,
			QuestionText: q.QuestionText,
			Choices:      choices,
		})
	}
	return view, nil
}

// Submit records the student's answers for an active quiz. An attempt
// must answer every question of the quiz exactly once. Each answer is
// graded as it is inserted; a question the student already answered
// stays untouched, so resubmitting is idempotent. The returned result
// always reflects the stored state, not the request.
func (s *attemptService) Submit(ctx context.Context, quizID uint, req *SubmitAttemptRequest, studentID string) (*SubmitResult, error) {
	s.logger.Info("Submitting quiz attempt", "quiz_id", quizID, "student_id", studentID, "answers", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getQuizWithQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != models.QuizActive {
		return nil, ErrQuizNotActive
	}
	if err := s.authz.requireEnrolled(ctx, quiz.CourseID, studentID); err != nil {
		return nil, err
	}

	questionsByID := make(map[uint]*models.Question, len(quiz.Questions))
	for i := range quiz.Questions {
		questionsByID[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	// An attempt covers the whole quiz: exactly one answer per question,
	// no foreign questions, no duplicates.
	answered := make(map[uint]bool, len(req.Answers))
	for _, answer := range req.Answers {
		if _, ok := questionsByID[answer.QuestionID]; !ok {
			return nil, NewValidationError("answers", fmt.Sprintf("question %d does not belong to quiz %d", answer.QuestionID, quizID), answer.QuestionID)
		}
		if answered[answer.QuestionID] {
			return nil, NewValidationError("answers", fmt.Sprintf("question %d answered more than once", answer.QuestionID), answer.QuestionID)
		}
		answered[answer.QuestionID] = true
	}
	if len(answered) != len(quiz.Questions) {
		return nil, NewValidationError("answers", fmt.Sprintf("quiz has %d questions, got answers for %d", len(quiz.Questions), len(answered)), len(answered))
	}

	inserted := 0
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		now := time.Now()
		for _, answer := range req.Answers {
			question := questionsByID[answer.QuestionID]
			grade := AutoGrade(answer.SelectedAnswer, question.CorrectAnswer)
			submission := &models.QuizSubmission{
				StudentID:      studentID,
				QuizID:         quizID,
				QuestionID:     answer.QuestionID,
				SelectedAnswer: answer.SelectedAnswer,
				SubmissionDate: now,
				Grade:          &grade,
			}
			ok, err := txRepo.Submission().CreateIfAbsent(ctx, nil, submission)
			if err != nil {
				return fmt.Errorf("failed to store answer for question %d: %w", answer.QuestionID, err)
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.buildSubmitResult(ctx, quiz, studentID)
	if err != nil {
		return nil, err
	}

	if inserted > 0 {
		s.publishAttemptSubmitted(ctx, quiz, studentID, result)
	}

	s.logger.Info("Quiz attempt submitted", "quiz_id", quizID, "student_id", studentID,
		"inserted", inserted, "correct", result.Correct, "total", result.Total)
	return result, nil
}

// ===== HELPERS =====

func (s *attemptService) getQuizWithQuestions(ctx context.Context, quizID uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *attemptService) buildSubmitResult(ctx context.Context, quiz *models.Quiz, studentID string) (*SubmitResult, error) {
	correct, err := s.repo.Submission().CountCorrectByStudentAndQuiz(ctx, nil, studentID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count correct answers: %w", err)
	}
	score, err := s.repo.Submission().SumGradesByStudentAndQuiz(ctx, nil, studentID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum grades: %w", err)
	}
	return &SubmitResult{
		QuizID:  quiz.ID,
		Correct: int(correct),
		Total:   len(quiz.Questions),
		Score:   score,
	}, nil
}

func (s *attemptService) publishAttemptSubmitted(ctx context.Context, quiz *models.Quiz, studentID string, result *SubmitResult) {
	if s.eventPublisher == nil {
		return
	}
	event := &events.Event{
		Type: events.EventAttemptSubmitted,
		Data: events.AttemptSubmittedEvent{
			QuizID:    quiz.ID,
			StudentID: studentID,
			Correct:   result.Correct,
			Total:     result.Total,
		},
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt event", "quiz_id", quiz.ID, "student_id", studentID, "error", err)
	}
}

// decodeChoices unmarshals the stored jsonb choice list. NULL means a
// free-text question.
func decodeChoices(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var choices []string
	if err := json.Unmarshal(raw, &choices); err != nil {
		return nil, err
	}
	return choices, nil
}
