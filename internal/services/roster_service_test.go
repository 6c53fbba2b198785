package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

// rosterFixture: two courses by two instructors, two students. Course 1
// has a quiz with graded submissions for student-1.
func newRosterFixture(t *testing.T) (*mockRepository, RosterService) {
	t.Helper()
	ctx := context.Background()

	users := &fakeUserRepo{users: map[string]*models.User{
		"teacher-1": {ID: "teacher-1", FullName: "Ada Teacher", Role: models.RoleInstructor},
		"teacher-2": {ID: "teacher-2", FullName: "Bo Teacher", Role: models.RoleInstructor},
		"admin-1":   {ID: "admin-1", FullName: "Root Admin", Role: models.RoleAdmin},
		"student-1": {ID: "student-1", FullName: "Sam Student", Role: models.RoleStudent},
		"student-2": {ID: "student-2", FullName: "Lee Student", Role: models.RoleStudent},
	}}

	courses := newFakeCourseRepo()
	_ = courses.Create(ctx, nil, &models.Course{Title: "Networks", Description: "x", InstructorID: "teacher-1"})
	_ = courses.Create(ctx, nil, &models.Course{Title: "Databases", Description: "x", InstructorID: "teacher-2"})

	enrollments := newFakeEnrollmentRepo()
	_ = enrollments.Create(ctx, nil, &models.Enrollment{StudentID: "student-1", CourseID: 1})
	_ = enrollments.Create(ctx, nil, &models.Enrollment{StudentID: "student-2", CourseID: 1})
	_ = enrollments.Create(ctx, nil, &models.Enrollment{StudentID: "student-1", CourseID: 2})

	quizzes := newFakeQuizRepo()
	_ = quizzes.Create(ctx, nil, &models.Quiz{CourseID: 1, Title: "Week 1 Quiz", Status: models.QuizActive})

	submissions := newFakeSubmissionRepo()
	one, zero := 1, 0
	_, _ = submissions.CreateIfAbsent(ctx, nil, &models.QuizSubmission{
		StudentID: "student-1", QuizID: 1, QuestionID: 1, SelectedAnswer: "B",
		SubmissionDate: time.Now(), Grade: &one,
	})
	_, _ = submissions.CreateIfAbsent(ctx, nil, &models.QuizSubmission{
		StudentID: "student-1", QuizID: 1, QuestionID: 2, SelectedAnswer: "42",
		SubmissionDate: time.Now(), Grade: &one,
	})
	_, _ = submissions.CreateIfAbsent(ctx, nil, &models.QuizSubmission{
		StudentID: "student-2", QuizID: 1, QuestionID: 1, SelectedAnswer: "A",
		SubmissionDate: time.Now(), Grade: &zero,
	})

	repo := &mockRepository{
		course:     courses,
		enrollment: enrollments,
		quiz:       quizzes,
		submission: submissions,
		user:       users,
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := NewRosterService(repo, nil, logger, validator.New())
	return repo, service
}

func TestRosterService_Roster_Admin(t *testing.T) {
	ctx := context.Background()
	_, service := newRosterFixture(t)

	roster, err := service.Roster(ctx, "admin-1")
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 roster entries, got %d", len(roster))
	}

	// Entries come back sorted by student ID
	first := roster[0]
	if first.StudentID != "student-1" {
		t.Fatalf("expected student-1 first, got %s", first.StudentID)
	}
	if first.StudentName != "Sam Student" {
		t.Errorf("expected resolved name, got %q", first.StudentName)
	}
	// student-1 is enrolled in both courses
	if len(first.Courses) != 2 {
		t.Fatalf("expected 2 courses for student-1, got %d", len(first.Courses))
	}

	var networks *RosterCourse
	for i := range first.Courses {
		if first.Courses[i].CourseID == 1 {
			networks = &first.Courses[i]
		}
	}
	if networks == nil {
		t.Fatal("course 1 missing from roster entry")
	}
	if len(networks.Quizzes) != 1 {
		t.Fatalf("expected 1 quiz score, got %d", len(networks.Quizzes))
	}
	// Aggregate is the sum of grades across the quiz's submissions
	if networks.Quizzes[0].Score != 2 {
		t.Errorf("expected score 2 for student-1, got %d", networks.Quizzes[0].Score)
	}

	second := roster[1]
	if second.StudentID != "student-2" {
		t.Fatalf("expected student-2 second, got %s", second.StudentID)
	}
	if second.Courses[0].Quizzes[0].Score != 0 {
		t.Errorf("expected score 0 for student-2, got %d", second.Courses[0].Quizzes[0].Score)
	}
}

func TestRosterService_Roster_SkipsUnattemptedQuizzes(t *testing.T) {
	ctx := context.Background()
	repo, service := newRosterFixture(t)

	// A second quiz nobody attempted must not show up in any entry
	_ = repo.Quiz().Create(ctx, nil, &models.Quiz{CourseID: 1, Title: "Week 2 Quiz", Status: models.QuizActive})

	roster, err := service.Roster(ctx, "admin-1")
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	for _, entry := range roster {
		for _, course := range entry.Courses {
			for _, quiz := range course.Quizzes {
				if quiz.QuizID == 2 {
					t.Errorf("unattempted quiz listed for %s", entry.StudentID)
				}
			}
		}
	}

	// An attempted quiz with every answer wrong still shows, score 0
	second := roster[1]
	if second.StudentID != "student-2" {
		t.Fatalf("expected student-2, got %s", second.StudentID)
	}
	if len(second.Courses[0].Quizzes) != 1 || second.Courses[0].Quizzes[0].Score != 0 {
		t.Errorf("attempted quiz with zero score must stay: %+v", second.Courses[0].Quizzes)
	}
}

func TestRosterService_Roster_InstructorScope(t *testing.T) {
	ctx := context.Background()
	_, service := newRosterFixture(t)

	// teacher-2 owns only course 2, so the roster has just its students
	roster, err := service.Roster(ctx, "teacher-2")
	if err != nil {
		t.Fatalf("Roster failed: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected 1 roster entry, got %d", len(roster))
	}
	if roster[0].StudentID != "student-1" {
		t.Errorf("expected student-1, got %s", roster[0].StudentID)
	}
	if len(roster[0].Courses) != 1 || roster[0].Courses[0].CourseID != 2 {
		t.Errorf("teacher-2 roster must only cover course 2: %+v", roster[0].Courses)
	}
}

func TestRosterService_Roster_DeniedForStudent(t *testing.T) {
	ctx := context.Background()
	_, service := newRosterFixture(t)

	if _, err := service.Roster(ctx, "student-1"); !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestRosterService_CourseRoster(t *testing.T) {
	ctx := context.Background()
	_, service := newRosterFixture(t)

	roster, err := service.CourseRoster(ctx, 1, "teacher-1")
	if err != nil {
		t.Fatalf("CourseRoster failed: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(roster))
	}

	t.Run("foreign instructor denied", func(t *testing.T) {
		if _, err := service.CourseRoster(ctx, 1, "teacher-2"); !IsPermissionError(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		if _, err := service.CourseRoster(ctx, 99, "admin-1"); !errors.Is(err, ErrCourseNotFound) {
			t.Fatalf("expected ErrCourseNotFound, got %v", err)
		}
	})
}

func TestRosterService_SubmissionsByStudent(t *testing.T) {
	ctx := context.Background()
	_, service := newRosterFixture(t)

	grouped, err := service.SubmissionsByStudent(ctx, 1, "teacher-1")
	if err != nil {
		t.Fatalf("SubmissionsByStudent failed: %v", err)
	}
	if len(grouped) != 2 {
		t.Fatalf("expected 2 students, got %d", len(grouped))
	}
	if grouped[0].StudentID != "student-1" || grouped[1].StudentID != "student-2" {
		t.Errorf("students not sorted: %s, %s", grouped[0].StudentID, grouped[1].StudentID)
	}
	if len(grouped[0].Submissions) != 2 {
		t.Errorf("expected 2 submissions for student-1, got %d", len(grouped[0].Submissions))
	}
	if grouped[1].StudentName != "Lee Student" {
		t.Errorf("expected resolved name, got %q", grouped[1].StudentName)
	}

	t.Run("student denied", func(t *testing.T) {
		if _, err := service.SubmissionsByStudent(ctx, 1, "student-1"); !IsPermissionError(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})
}
