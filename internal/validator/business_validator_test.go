package validator

import (
	"testing"

	"github.com/campusworks/lms-quiz-service/internal/models"
)

func validCreate() *QuizCreateRequest {
	return &QuizCreateRequest{
		CourseID: 1,
		Title:    "Week 1 Quiz",
		Questions: []QuestionCreateRequest{
			{QuestionText: "Pick B", CorrectAnswer: "B", Choices: []string{"A", "B"}},
			{QuestionText: "Free text", CorrectAnswer: "42"},
		},
	}
}

func TestValidateQuizCreate(t *testing.T) {
	bv := NewBusinessValidator()

	if errs := bv.ValidateQuizCreate(validCreate()); len(errs) > 0 {
		t.Fatalf("valid request rejected: %v", errs)
	}

	tests := []struct {
		name   string
		mutate func(*QuizCreateRequest)
	}{
		{name: "missing title", mutate: func(r *QuizCreateRequest) { r.Title = "" }},
		{name: "whitespace title", mutate: func(r *QuizCreateRequest) { r.Title = "   " }},
		{name: "no questions", mutate: func(r *QuizCreateRequest) { r.Questions = nil }},
		{name: "blank question text", mutate: func(r *QuizCreateRequest) { r.Questions[0].QuestionText = "  " }},
		{name: "blank correct answer", mutate: func(r *QuizCreateRequest) { r.Questions[1].CorrectAnswer = " " }},
		{name: "answer not in choices", mutate: func(r *QuizCreateRequest) { r.Questions[0].CorrectAnswer = "C" }},
		{name: "answer case mismatch", mutate: func(r *QuizCreateRequest) { r.Questions[0].CorrectAnswer = "b" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(req)
			if errs := bv.ValidateQuizCreate(req); len(errs) == 0 {
				t.Error("expected validation errors")
			}
		})
	}
}

func TestValidateStatusTransition(t *testing.T) {
	bv := NewBusinessValidator()

	// Both directions of the closed status set are allowed
	if errs := bv.ValidateStatusTransition(models.QuizInactive, models.QuizActive); len(errs) > 0 {
		t.Errorf("inactive to active rejected: %v", errs)
	}
	if errs := bv.ValidateStatusTransition(models.QuizActive, models.QuizInactive); len(errs) > 0 {
		t.Errorf("active to inactive rejected: %v", errs)
	}

	if errs := bv.ValidateStatusTransition(models.QuizActive, "Archived"); len(errs) == 0 {
		t.Error("unknown status must be rejected")
	}
}

func TestLessonSlugRule(t *testing.T) {
	v := New()

	type slugged struct {
		Slug string `validate:"required,lesson_slug"`
	}

	for _, slug := range []string{"intro", "osi-model", "week-1-basics"} {
		if err := v.Validate(&slugged{Slug: slug}); err != nil {
			t.Errorf("slug %q should be valid: %v", slug, err)
		}
	}
	for _, slug := range []string{"OSI", "has space", "trailing-", "-leading", "under_score", "ümlaut"} {
		if err := v.Validate(&slugged{Slug: slug}); err == nil {
			t.Errorf("slug %q should be rejected", slug)
		}
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	var none ValidationErrors
	if none.Error() != "validation failed" {
		t.Errorf("unexpected empty message: %s", none.Error())
	}

	one := ValidationErrors{{Field: "title", Message: "is required"}}
	if one.Error() != "validation failed: title is required" {
		t.Errorf("unexpected single message: %s", one.Error())
	}

	two := ValidationErrors{{Field: "a"}, {Field: "b"}}
	if two.Error() != "validation failed: 2 field errors" {
		t.Errorf("unexpected multi message: %s", two.Error())
	}
}
