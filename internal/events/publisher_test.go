package events

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestMockEventPublisher_FillsEnvelope(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	err := publisher.Publish(context.Background(), &Event{
		Type: EventQuizPublished,
		Data: QuizPublishedEvent{QuizID: 1, CourseID: 2, Title: "Week 1 Quiz"},
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}

	event := published[0]
	if event.ID == "" {
		t.Error("ID should be assigned")
	}
	if event.Source != "lms-quiz-service" {
		t.Errorf("expected source lms-quiz-service, got %q", event.Source)
	}
	if event.Version != "1.0" {
		t.Errorf("expected version 1.0, got %q", event.Version)
	}
	if !event.Timestamp.Equal(fixed) {
		t.Errorf("expected timestamp %v, got %v", fixed, event.Timestamp)
	}
}

func TestMockEventPublisher_KeepsExplicitFields(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)

	err := publisher.Publish(context.Background(), &Event{
		ID:      "evt-1",
		Type:    EventStudentEnrolled,
		Source:  "migration-tool",
		Version: "2.0",
		Data:    StudentEnrolledEvent{CourseID: 1, StudentID: "student-1"},
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	event := publisher.GetPublishedEvents()[0]
	if event.ID != "evt-1" || event.Source != "migration-tool" || event.Version != "2.0" {
		t.Errorf("explicit envelope fields overwritten: %+v", event)
	}
}

func TestMockEventPublisher_ClearEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)

	_ = publisher.Publish(context.Background(), &Event{Type: EventAttemptSubmitted})
	_ = publisher.Publish(context.Background(), &Event{Type: EventSubmissionGraded})
	if got := len(publisher.GetPublishedEvents()); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}

	publisher.ClearEvents()
	if got := len(publisher.GetPublishedEvents()); got != 0 {
		t.Errorf("expected 0 events after clear, got %d", got)
	}
}

// Topic names double as event types, so they must stay stable
func TestEventTypeNames(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{got: EventQuizPublished, want: "quiz.published"},
		{got: EventAttemptSubmitted, want: "quiz.attempt_submitted"},
		{got: EventSubmissionGraded, want: "quiz.submission_graded"},
		{got: EventStudentEnrolled, want: "course.student_enrolled"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("event type changed: got %q, want %q", tt.got, tt.want)
		}
	}
}
