package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campusworks/lms-quiz-service/internal/models"
)

func newAuthzFixture() *authz {
	users := &fakeUserRepo{users: map[string]*models.User{
		"teacher-1": {ID: "teacher-1", Role: models.RoleInstructor},
		"admin-1":   {ID: "admin-1", Role: models.RoleAdmin},
		"student-1": {ID: "student-1", Role: models.RoleStudent},
		"broken-1":  {ID: "broken-1", Role: "superuser"},
	}}

	courses := newFakeCourseRepo()
	_ = courses.Create(context.Background(), nil, &models.Course{Title: "Networks", Description: "x", InstructorID: "teacher-1"})

	enrollments := newFakeEnrollmentRepo()
	_ = enrollments.Create(context.Background(), nil, &models.Enrollment{StudentID: "student-1", CourseID: 1})

	return newAuthz(&mockRepository{course: courses, enrollment: enrollments, user: users})
}

func TestAuthz_UserRole(t *testing.T) {
	ctx := context.Background()
	a := newAuthzFixture()

	role, err := a.userRole(ctx, "teacher-1")
	if err != nil {
		t.Fatalf("userRole failed: %v", err)
	}
	if role != models.RoleInstructor {
		t.Errorf("expected instructor, got %s", role)
	}

	t.Run("unknown user is an error, not a default role", func(t *testing.T) {
		if _, err := a.userRole(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("role outside the closed set is an error", func(t *testing.T) {
		if _, err := a.userRole(ctx, "broken-1"); err == nil {
			t.Fatal("expected error for unrecognized role")
		}
	})
}

func TestAuthz_CanManageCourse(t *testing.T) {
	ctx := context.Background()
	a := newAuthzFixture()

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{name: "admin manages any course", userID: "admin-1", want: true},
		{name: "owning instructor", userID: "teacher-1", want: true},
		{name: "student never", userID: "student-1", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.canManageCourse(ctx, 1, tt.userID)
			if err != nil {
				t.Fatalf("canManageCourse failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("canManageCourse = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthz_RequireCourseManager(t *testing.T) {
	ctx := context.Background()
	a := newAuthzFixture()

	if err := a.requireCourseManager(ctx, 1, "teacher-1", "update"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}

	err := a.requireCourseManager(ctx, 1, "student-1", "update")
	var pe *PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if pe.UserID != "student-1" || pe.ResourceID != 1 || pe.Action != "update" {
		t.Errorf("permission error not filled in: %+v", pe)
	}
}

func TestAuthz_RequireEnrolled(t *testing.T) {
	ctx := context.Background()
	a := newAuthzFixture()

	if err := a.requireEnrolled(ctx, 1, "student-1"); err != nil {
		t.Fatalf("enrolled student should pass: %v", err)
	}
	if err := a.requireEnrolled(ctx, 1, "teacher-1"); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}
