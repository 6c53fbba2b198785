package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizStatus string

const (
	QuizActive   QuizStatus = "Active"
	QuizInactive QuizStatus = "Inactive"
)

// Valid reports whether the status is one of the closed status set.
func (s QuizStatus) Valid() bool {
	return s == QuizActive || s == QuizInactive
}

type Quiz struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	CourseID uint       `json:"course_id" gorm:"not null;index"`
	Title    string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Status   QuizStatus `json:"status" gorm:"default:Inactive;index" validate:"omitempty,oneof=Active Inactive"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Course      Course           `json:"course" gorm:"foreignKey:CourseID"`
	Questions   []Question       `json:"questions" gorm:"foreignKey:QuizID"`
	Submissions []QuizSubmission `json:"submissions" gorm:"foreignKey:QuizID"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
}

// Question is immutable once its quiz is created: there are no edit or
// delete paths, so a recorded correct_answer never changes under an
// already-graded submission.
type Question struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	QuizID       uint   `json:"quiz_id" gorm:"not null;index"`
	Position     int    `json:"position" gorm:"not null;default:0"`
	QuestionText string `json:"question_text" gorm:"type:text;not null" validate:"required"`

	// CorrectAnswer must survive serialization (the repository layer
	// caches questions as JSON); student-facing views go through
	// dedicated DTOs that have no answer field at all.
	CorrectAnswer string `json:"correct_answer" gorm:"not null;size:200" validate:"required,max=200"`

	// Optional multiple-choice options shown to the student. The correct
	// answer is matched against the raw answer string either way.
	Choices datatypes.JSON `json:"choices" gorm:"type:jsonb"` // []string

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Quiz        Quiz             `json:"quiz" gorm:"foreignKey:QuizID"`
	Submissions []QuizSubmission `json:"submissions" gorm:"foreignKey:QuestionID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (Question) TableName() string {
	return "questions"
}
