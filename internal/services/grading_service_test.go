package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/campusworks/lms-quiz-service/internal/events"
	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

func TestAutoGrade(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		correct  string
		want     int
	}{
		{name: "exact match", selected: "B", correct: "B", want: 1},
		{name: "wrong answer", selected: "A", correct: "B", want: 0},
		{name: "case sensitive", selected: "b", correct: "B", want: 0},
		{name: "whitespace matters", selected: " B", correct: "B", want: 0},
		{name: "empty answer", selected: "", correct: "B", want: 0},
		{name: "free text match", selected: "42", correct: "42", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AutoGrade(tt.selected, tt.correct); got != tt.want {
				t.Errorf("AutoGrade(%q, %q) = %d, want %d", tt.selected, tt.correct, got, tt.want)
			}
			// Deterministic: grading twice gives the same grade
			if again := AutoGrade(tt.selected, tt.correct); again != tt.want {
				t.Errorf("AutoGrade not deterministic for (%q, %q)", tt.selected, tt.correct)
			}
		})
	}
}

func TestParseGrade(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "zero", raw: "0", want: 0},
		{name: "positive", raw: "7", want: 7},
		{name: "surrounding whitespace", raw: " 3 ", want: 3},
		{name: "empty", raw: "", wantErr: true},
		{name: "blank", raw: "   ", wantErr: true},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "explicit plus sign", raw: "+5", wantErr: true},
		{name: "not a number", raw: "abc", wantErr: true},
		{name: "decimal", raw: "1.5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGrade(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseGrade(%q) should fail", tt.raw)
				}
				if !IsValidationError(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseGrade(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("parseGrade(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

// gradingFixture seeds one graded submission on a quiz owned by
// teacher-1, with teacher-2 owning an unrelated course.
type gradingFixture struct {
	submissions *fakeSubmissionRepo
	publisher   *events.MockEventPublisher
	service     GradingService
}

func newGradingFixture(t *testing.T) *gradingFixture {
	t.Helper()

	users := &fakeUserRepo{users: map[string]*models.User{
		"teacher-1": {ID: "teacher-1", FullName: "Ada Teacher", Role: models.RoleInstructor},
		"teacher-2": {ID: "teacher-2", FullName: "Bo Teacher", Role: models.RoleInstructor},
		"admin-1":   {ID: "admin-1", FullName: "Root Admin", Role: models.RoleAdmin},
		"student-1": {ID: "student-1", FullName: "Sam Student", Role: models.RoleStudent},
	}}

	courses := newFakeCourseRepo()
	_ = courses.Create(context.Background(), nil, &models.Course{Title: "Networks", Description: "x", InstructorID: "teacher-1"})
	_ = courses.Create(context.Background(), nil, &models.Course{Title: "Databases", Description: "x", InstructorID: "teacher-2"})

	quizzes := newFakeQuizRepo()
	_ = quizzes.Create(context.Background(), nil, &models.Quiz{CourseID: 1, Title: "Week 1 Quiz", Status: models.QuizActive})

	submissions := newFakeSubmissionRepo()
	zero := 0
	_, _ = submissions.CreateIfAbsent(context.Background(), nil, &models.QuizSubmission{
		StudentID:      "student-1",
		QuizID:         1,
		QuestionID:     1,
		SelectedAnswer: "A",
		SubmissionDate: time.Now(),
		Grade:          &zero,
	})

	repo := &mockRepository{
		course:     courses,
		quiz:       quizzes,
		submission: submissions,
		user:       users,
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher(logger)
	service := NewGradingService(repo, nil, logger, validator.New(), publisher)

	return &gradingFixture{submissions: submissions, publisher: publisher, service: service}
}

func TestGradingService_OverrideGrade(t *testing.T) {
	ctx := context.Background()
	f := newGradingFixture(t)

	result, err := f.service.OverrideGrade(ctx, 1, &GradeOverrideRequest{Grade: "1"}, "teacher-1")
	if err != nil {
		t.Fatalf("OverrideGrade failed: %v", err)
	}
	if result.Grade != 1 {
		t.Errorf("expected grade 1, got %d", result.Grade)
	}
	if result.GradedBy != "teacher-1" {
		t.Errorf("expected grader teacher-1, got %s", result.GradedBy)
	}
	if result.GradedAt.IsZero() {
		t.Error("GradedAt should be set")
	}

	stored := f.submissions.submissions[1]
	if stored.Grade == nil || *stored.Grade != 1 {
		t.Errorf("stored grade not updated: %v", stored.Grade)
	}
	if stored.GradedBy == nil || *stored.GradedBy != "teacher-1" {
		t.Error("stored grader not recorded")
	}

	published := f.publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}
	if published[0].Type != events.EventSubmissionGraded {
		t.Errorf("expected event type %q, got %q", events.EventSubmissionGraded, published[0].Type)
	}
}

func TestGradingService_OverrideGrade_Permissions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		graderID string
		wantErr  bool
	}{
		{name: "owning instructor", graderID: "teacher-1"},
		{name: "admin", graderID: "admin-1"},
		{name: "other instructor", graderID: "teacher-2", wantErr: true},
		{name: "student", graderID: "student-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGradingFixture(t)
			_, err := f.service.OverrideGrade(ctx, 1, &GradeOverrideRequest{Grade: "2"}, tt.graderID)
			if tt.wantErr {
				if !IsPermissionError(err) {
					t.Fatalf("expected permission error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("OverrideGrade failed: %v", err)
			}
		})
	}
}

func TestGradingService_OverrideGrade_RejectsBadGrade(t *testing.T) {
	ctx := context.Background()
	f := newGradingFixture(t)

	for _, raw := range []string{"-1", "abc", ""} {
		_, err := f.service.OverrideGrade(ctx, 1, &GradeOverrideRequest{Grade: raw}, "teacher-1")
		if err == nil {
			t.Errorf("grade %q should be rejected", raw)
		}
	}

	// Nothing persisted, nothing published
	stored := f.submissions.submissions[1]
	if stored.GradedBy != nil {
		t.Error("rejected override must not touch the submission")
	}
	if got := len(f.publisher.GetPublishedEvents()); got != 0 {
		t.Errorf("expected 0 events, got %d", got)
	}
}

func TestGradingService_OverrideGrade_UnknownSubmission(t *testing.T) {
	ctx := context.Background()
	f := newGradingFixture(t)

	_, err := f.service.OverrideGrade(ctx, 42, &GradeOverrideRequest{Grade: "1"}, "teacher-1")
	if !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestGradingService_AggregateScore(t *testing.T) {
	ctx := context.Background()
	f := newGradingFixture(t)

	one := 1
	_, _ = f.submissions.CreateIfAbsent(ctx, nil, &models.QuizSubmission{
		StudentID: "student-1", QuizID: 1, QuestionID: 2, SelectedAnswer: "B",
		SubmissionDate: time.Now(), Grade: &one,
	})
	// Another student's grades must not leak into the sum
	_, _ = f.submissions.CreateIfAbsent(ctx, nil, &models.QuizSubmission{
		StudentID: "student-2", QuizID: 1, QuestionID: 1, SelectedAnswer: "A",
		SubmissionDate: time.Now(), Grade: &one,
	})

	t.Run("self read", func(t *testing.T) {
		score, err := f.service.AggregateScore(ctx, 1, "student-1", "student-1")
		if err != nil {
			t.Fatalf("AggregateScore failed: %v", err)
		}
		if score != 1 {
			t.Errorf("expected score 1, got %d", score)
		}
	})

	t.Run("owning instructor", func(t *testing.T) {
		score, err := f.service.AggregateScore(ctx, 1, "student-1", "teacher-1")
		if err != nil {
			t.Fatalf("AggregateScore failed: %v", err)
		}
		if score != 1 {
			t.Errorf("expected score 1, got %d", score)
		}
	})

	t.Run("other student denied", func(t *testing.T) {
		_, err := f.service.AggregateScore(ctx, 1, "student-1", "student-1x")
		if err == nil {
			t.Fatal("expected error for unknown caller")
		}
	})

	t.Run("foreign instructor denied", func(t *testing.T) {
		_, err := f.service.AggregateScore(ctx, 1, "student-1", "teacher-2")
		if !IsPermissionError(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})
}
