package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
	"gorm.io/gorm"
)

type rosterService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	authz     *authz
}

func NewRosterService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) RosterService {
	return &rosterService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		authz:     newAuthz(repo),
	}
}

// Roster builds the full roster for the caller: every enrolled student,
// the titles of their courses and the aggregate score (sum of grades)
// per quiz. Admins see the whole catalogue; instructors only the
// courses they own.
func (s *rosterService) Roster(ctx context.Context, callerID string) ([]*RosterEntry, error) {
	role, err := s.authz.userRole(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleStudent {
		return nil, NewPermissionError(callerID, 0, "roster", "read", "requires instructor or admin role")
	}

	courses, err := s.visibleCourses(ctx, callerID, role)
	if err != nil {
		return nil, err
	}
	return s.buildRoster(ctx, courses)
}

// CourseRoster restricts the roster to one course
func (s *rosterService) CourseRoster(ctx context.Context, courseID uint, callerID string) ([]*RosterEntry, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if err := s.authz.requireCourseManager(ctx, courseID, callerID, "roster"); err != nil {
		return nil, err
	}
	return s.buildRoster(ctx, []*models.Course{course})
}

// SubmissionsByStudent groups every submission of a quiz per student,
// for the grading view.
func (s *rosterService) SubmissionsByStudent(ctx context.Context, quizID uint, callerID string) ([]*StudentSubmissions, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if err := s.authz.requireCourseManager(ctx, quiz.CourseID, callerID, "read_submissions"); err != nil {
		return nil, err
	}

	submissions, err := s.repo.Submission().GetByQuiz(ctx, nil, quizID, repositories.SubmissionFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	byStudent := make(map[string][]*models.QuizSubmission)
	order := make([]string, 0)
	for _, sub := range submissions {
		if _, seen := byStudent[sub.StudentID]; !seen {
			order = append(order, sub.StudentID)
		}
		byStudent[sub.StudentID] = append(byStudent[sub.StudentID], sub)
	}
	sort.Strings(order)

	names := s.resolveStudentNames(ctx, order)

	grouped := make([]*StudentSubmissions, 0, len(order))
	for _, studentID := range order {
		grouped = append(grouped, &StudentSubmissions{
			StudentID:   studentID,
			StudentName: names[studentID],
			Submissions: byStudent[studentID],
		})
	}
	return grouped, nil
}

// ===== HELPERS =====

func (s *rosterService) visibleCourses(ctx context.Context, callerID string, role models.UserRole) ([]*models.Course, error) {
	filters := repositories.CourseFilters{}
	if role == models.RoleInstructor {
		filters.InstructorID = &callerID
	}
	courses, _, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// buildRoster walks every enrollment of the given courses and fills in
// the per-quiz aggregate scores. One entry per student even when they
// are enrolled in several of the courses; quizzes without any
// submission by the student are left out.
func (s *rosterService) buildRoster(ctx context.Context, courses []*models.Course) ([]*RosterEntry, error) {
	entries := make(map[string]*RosterEntry)
	order := make([]string, 0)

	for _, course := range courses {
		enrollments, err := s.repo.Enrollment().GetByCourse(ctx, nil, course.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list enrollments for course %d: %w", course.ID, err)
		}
		if len(enrollments) == 0 {
			continue
		}

		quizzes, err := s.repo.Quiz().GetByCourse(ctx, nil, course.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list quizzes for course %d: %w", course.ID, err)
		}

		for _, enrollment := range enrollments {
			entry, ok := entries[enrollment.StudentID]
			if !ok {
				entry = &RosterEntry{StudentID: enrollment.StudentID}
				entries[enrollment.StudentID] = entry
				order = append(order, enrollment.StudentID)
			}

			rosterCourse := RosterCourse{
				CourseID:    course.ID,
				CourseTitle: course.Title,
				Quizzes:     make([]QuizScore, 0, len(quizzes)),
			}
			for _, quiz := range quizzes {
				// Only quizzes the student attempted get a row, so a
				// zero score always means a graded attempt.
				attempted, err := s.repo.Submission().CountByStudentAndQuiz(ctx, nil, enrollment.StudentID, quiz.ID)
				if err != nil {
					return nil, fmt.Errorf("failed to count submissions for student %s on quiz %d: %w", enrollment.StudentID, quiz.ID, err)
				}
				if attempted == 0 {
					continue
				}
				score, err := s.repo.Submission().SumGradesByStudentAndQuiz(ctx, nil, enrollment.StudentID, quiz.ID)
				if err != nil {
					return nil, fmt.Errorf("failed to sum grades for student %s on quiz %d: %w", enrollment.StudentID, quiz.ID, err)
				}
				rosterCourse.Quizzes = append(rosterCourse.Quizzes, QuizScore{
					QuizID:    quiz.ID,
					QuizTitle: quiz.Title,
					Score:     score,
				})
			}
			entry.Courses = append(entry.Courses, rosterCourse)
		}
	}

	sort.Strings(order)
	names := s.resolveStudentNames(ctx, order)

	roster := make([]*RosterEntry, 0, len(order))
	for _, studentID := range order {
		entry := entries[studentID]
		entry.StudentName = names[studentID]
		roster = append(roster, entry)
	}
	return roster, nil
}

// resolveStudentNames looks up display names in bulk. Identity lookups
// failing must not break the roster, so misses resolve to the raw ID.
func (s *rosterService) resolveStudentNames(ctx context.Context, studentIDs []string) map[string]string {
	names := make(map[string]string, len(studentIDs))
	for _, id := range studentIDs {
		names[id] = id
	}
	if len(studentIDs) == 0 {
		return names
	}

	users, err := s.repo.User().GetByIDs(ctx, studentIDs)
	if err != nil {
		s.logger.Warn("Failed to resolve student names", "error", err)
		return names
	}
	for _, user := range users {
		if user.FullName != "" {
			names[user.ID] = user.FullName
		}
	}
	return names
}
