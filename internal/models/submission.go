package models

import (
	"time"
)

// QuizSubmission is one student's answer to one question. The unique
// index on (student_id, quiz_id, question_id) makes re-submission an
// insert-if-absent: a second answer for the same question is a no-op at
// the database, not a check-then-act in the service.
type QuizSubmission struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	StudentID      string    `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_student_quiz_question;index"`
	QuizID         uint      `json:"quiz_id" gorm:"not null;uniqueIndex:idx_student_quiz_question;index"`
	QuestionID     uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_student_quiz_question"`
	SelectedAnswer string    `json:"selected_answer" gorm:"not null;size:200"`
	SubmissionDate time.Time `json:"submission_date" gorm:"not null"`

	// Grading. Grade is set at insert time by auto-grading (0 or 1) and
	// may later be overwritten by an instructor; GradedBy stays nil for
	// auto-graded rows.
	Grade    *int       `json:"grade"`
	GradedBy *string    `json:"graded_by" gorm:"size:255"`
	GradedAt *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student  User     `json:"student" gorm:"foreignKey:StudentID"`
	Quiz     Quiz     `json:"quiz" gorm:"foreignKey:QuizID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (QuizSubmission) TableName() string {
	return "quiz_submissions"
}
