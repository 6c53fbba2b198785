package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/campusworks/lms-quiz-service/internal/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateQuizCreate validates quiz creation business rules
func (bv *BusinessValidator) ValidateQuizCreate(req *QuizCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Question-level business validations
	errors = append(errors, bv.validateQuizQuestions(req.Questions)...)

	return errors
}

// ValidateStatusTransition validates quiz status transitions. The status
// set is closed, so the only rule is that both sides must be valid.
func (bv *BusinessValidator) ValidateStatusTransition(currentStatus, newStatus models.QuizStatus) ValidationErrors {
	var errors ValidationErrors

	if !newStatus.Valid() {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", newStatus),
			Value:   newStatus,
			Rule:    "quiz_status",
		})
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Quiz title validation (1-200 characters after trimming)
	bv.validate.RegisterValidation("quiz_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Course title validation (1-200 characters after trimming)
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Quiz status validation against the closed status set
	bv.validate.RegisterValidation("quiz_status", func(fl validator.FieldLevel) bool {
		return models.QuizStatus(fl.Field().String()).Valid()
	})

	// Lesson slug validation (lowercase, digits, hyphen-separated)
	bv.validate.RegisterValidation("lesson_slug", func(fl validator.FieldLevel) bool {
		slug := fl.Field().String()
		return len(slug) <= 200 && slugPattern.MatchString(slug)
	})
}

// validateQuizQuestions validates business rules for questions in a quiz
func (bv *BusinessValidator) validateQuizQuestions(questions []QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	for i, q := range questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].question_text", i),
				Message: "question text cannot be blank",
				Value:   q.QuestionText,
				Rule:    "business_logic",
			})
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].correct_answer", i),
				Message: "correct answer cannot be blank",
				Value:   q.CorrectAnswer,
				Rule:    "business_logic",
			})
		}

		// When choices are given, the correct answer must be among them.
		// Matching is case sensitive, same as grading.
		if len(q.Choices) > 0 {
			found := false
			for _, choice := range q.Choices {
				if choice == q.CorrectAnswer {
					found = true
					break
				}
			}
			if !found {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("questions[%d].correct_answer", i),
					Message: "correct answer must be one of the choices",
					Value:   q.CorrectAnswer,
					Rule:    "business_logic",
				})
			}
		}
	}

	return errors
}
