package services

import (
	"context"
	"fmt"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
)

// authz is the single authorization path for all services. Every
// permission decision goes through these helpers so role checks and
// ownership checks cannot drift apart between endpoints.
type authz struct {
	repo repositories.Repository
}

func newAuthz(repo repositories.Repository) *authz {
	return &authz{repo: repo}
}

// userRole resolves the caller's role from the identity provider.
// Unknown users resolve to an error, never to a default role.
func (a *authz) userRole(ctx context.Context, userID string) (models.UserRole, error) {
	user, err := a.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to resolve user role: %w", err)
	}
	if !user.Role.Valid() {
		return "", fmt.Errorf("user %s has unrecognized role %q", userID, user.Role)
	}
	return user.Role, nil
}

// isAdmin reports whether the caller holds the admin role
func (a *authz) isAdmin(ctx context.Context, userID string) (bool, error) {
	role, err := a.userRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// isInstructorOrAdmin reports whether the caller may hold teaching
// responsibilities at all, regardless of course ownership.
func (a *authz) isInstructorOrAdmin(ctx context.Context, userID string) (bool, error) {
	role, err := a.userRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin || role == models.RoleInstructor, nil
}

// canManageCourse reports whether the caller may modify the course and
// everything that hangs off it (lessons, quizzes, grades). Admins may
// manage any course; instructors only their own.
func (a *authz) canManageCourse(ctx context.Context, courseID uint, userID string) (bool, error) {
	role, err := a.userRole(ctx, userID)
	if err != nil {
		return false, err
	}
	switch role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleInstructor:
		owned, err := a.repo.Course().IsOwnedBy(ctx, nil, courseID, userID)
		if err != nil {
			return false, fmt.Errorf("failed to check course ownership: %w", err)
		}
		return owned, nil
	default:
		return false, nil
	}
}

// requireCourseManager is canManageCourse with the denial already
// shaped as a PermissionError for handler consumption.
func (a *authz) requireCourseManager(ctx context.Context, courseID uint, userID, action string) error {
	ok, err := a.canManageCourse(ctx, courseID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return NewPermissionError(userID, courseID, "course", action, "requires admin role or course ownership")
	}
	return nil
}

// requireEnrolled verifies the student has an active enrollment in the
// course before they may see or submit a quiz.
func (a *authz) requireEnrolled(ctx context.Context, courseID uint, studentID string) error {
	enrolled, err := a.repo.Enrollment().IsEnrolled(ctx, nil, studentID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}
