package events

import (
	"context"
	"time"
)

// Event type names, one per topic
const (
	EventQuizPublished    = "quiz.published"
	EventAttemptSubmitted = "quiz.attempt_submitted"
	EventSubmissionGraded = "quiz.submission_graded"
	EventStudentEnrolled  = "course.student_enrolled"
)

// Event is the envelope every published message travels in
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// EventPublisher publishes domain events to the event bus
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// nowFunc is swapped out in tests
var nowFunc = time.Now

// QuizPublishedEvent is emitted when a quiz becomes Active
type QuizPublishedEvent struct {
	QuizID   uint   `json:"quiz_id"`
	CourseID uint   `json:"course_id"`
	Title    string `json:"title"`
}

// AttemptSubmittedEvent is emitted after a student's answers are recorded
type AttemptSubmittedEvent struct {
	QuizID    uint   `json:"quiz_id"`
	StudentID string `json:"student_id"`
	Correct   int    `json:"correct"`
	Total     int    `json:"total"`
}

// SubmissionGradedEvent is emitted when an instructor overrides a grade
type SubmissionGradedEvent struct {
	SubmissionID uint   `json:"submission_id"`
	QuizID       uint   `json:"quiz_id"`
	StudentID    string `json:"student_id"`
	Grade        int    `json:"grade"`
	GradedBy     string `json:"graded_by"`
}

// StudentEnrolledEvent is emitted when a student joins a course
type StudentEnrolledEvent struct {
	CourseID  uint   `json:"course_id"`
	StudentID string `json:"student_id"`
}
