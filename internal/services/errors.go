package services

import (
	"errors"
	"fmt"

	"github.com/campusworks/lms-quiz-service/internal/validator"
)

// Sentinel errors returned by services. Handlers map these to HTTP
// status codes in one place.
var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrDuplicateEnrollment = errors.New("student already enrolled in course")
	ErrQuizNotActive       = errors.New("quiz is not active")
	ErrNotEnrolled         = errors.New("student is not enrolled in course")
)

// PermissionError carries who tried to do what to which resource.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError is returned when an operation violates a domain rule
// that is neither a permission problem nor bad input.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

// NewValidationError builds a single-field validation error
func NewValidationError(field, message string, value interface{}) validator.ValidationErrors {
	return validator.ValidationErrors{{
		Field:   field,
		Message: message,
		Value:   value,
	}}
}

// IsPermissionError reports whether err is a permission failure
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err carries field validation failures
func IsValidationError(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRuleError reports whether err is a domain rule violation
func IsBusinessRuleError(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsNotFoundError reports whether err is one of the not-found sentinels
func IsNotFoundError(err error) bool {
	for _, sentinel := range []error{
		ErrCourseNotFound,
		ErrLessonNotFound,
		ErrQuizNotFound,
		ErrQuestionNotFound,
		ErrEnrollmentNotFound,
		ErrSubmissionNotFound,
		ErrUserNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
