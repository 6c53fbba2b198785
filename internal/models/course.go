package models

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description string `json:"description" gorm:"type:text;not null" validate:"required"`
	IsFeatured  bool   `json:"is_featured" gorm:"default:false"`

	// Metadata
	InstructorID string         `json:"instructor_id" gorm:"not null;index;size:255"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Instructor  User         `json:"instructor" gorm:"foreignKey:InstructorID"`
	Lessons     []Lesson     `json:"lessons" gorm:"foreignKey:CourseID"`
	Quizzes     []Quiz       `json:"quizzes" gorm:"foreignKey:CourseID"`
	Enrollments []Enrollment `json:"enrollments" gorm:"foreignKey:CourseID"`

	// Computed fields (not stored)
	LessonCount     int `json:"lesson_count" gorm:"-"`
	QuizCount       int `json:"quiz_count" gorm:"-"`
	EnrollmentCount int `json:"enrollment_count" gorm:"-"`
}

type Lesson struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`
	Title    string `json:"title" gorm:"not null;size:200" validate:"required,max=200"`
	Content  string `json:"content" gorm:"type:text;not null" validate:"required"`
	Slug     string `json:"slug" gorm:"uniqueIndex;not null;size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course Course `json:"course" gorm:"foreignKey:CourseID"`
}

type Enrollment struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	StudentID string  `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_student_course"`
	CourseID  uint    `json:"course_id" gorm:"not null;index;uniqueIndex:idx_student_course"`
	Progress  float64 `json:"progress" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student User   `json:"student" gorm:"foreignKey:StudentID"`
	Course  Course `json:"course" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

func (Lesson) TableName() string {
	return "lessons"
}

func (Enrollment) TableName() string {
	return "enrollments"
}
