package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

func newCourseFixture(t *testing.T) (*fakeCourseRepo, *fakeLessonRepo, CourseService) {
	t.Helper()

	users := &fakeUserRepo{users: map[string]*models.User{
		"teacher-1": {ID: "teacher-1", FullName: "Ada Teacher", Role: models.RoleInstructor},
		"teacher-2": {ID: "teacher-2", FullName: "Bo Teacher", Role: models.RoleInstructor},
		"admin-1":   {ID: "admin-1", FullName: "Root Admin", Role: models.RoleAdmin},
		"student-1": {ID: "student-1", FullName: "Sam Student", Role: models.RoleStudent},
	}}

	courses := newFakeCourseRepo()
	lessons := newFakeLessonRepo()

	repo := &mockRepository{
		course: courses,
		lesson: lessons,
		user:   users,
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := NewCourseService(repo, nil, logger, validator.New())
	return courses, lessons, service
}

func TestCourseService_Create(t *testing.T) {
	ctx := context.Background()
	_, _, service := newCourseFixture(t)

	resp, err := service.Create(ctx, &CreateCourseRequest{Title: "Networks", Description: "Intro"}, "teacher-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if resp.InstructorID != "teacher-1" {
		t.Errorf("expected instructor teacher-1, got %s", resp.InstructorID)
	}
	if !resp.CanEdit {
		t.Error("creator should be able to edit")
	}

	t.Run("student denied", func(t *testing.T) {
		_, err := service.Create(ctx, &CreateCourseRequest{Title: "Hacking", Description: "x"}, "student-1")
		if !IsPermissionError(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})

	t.Run("duplicate title for same instructor", func(t *testing.T) {
		_, err := service.Create(ctx, &CreateCourseRequest{Title: "Networks", Description: "again"}, "teacher-1")
		if !IsBusinessRuleError(err) {
			t.Fatalf("expected business rule error, got %v", err)
		}
	})

	t.Run("same title for another instructor is fine", func(t *testing.T) {
		if _, err := service.Create(ctx, &CreateCourseRequest{Title: "Networks", Description: "x"}, "teacher-2"); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	})

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := service.Create(ctx, &CreateCourseRequest{Title: "  ", Description: "x"}, "teacher-1")
		if !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestCourseService_Update(t *testing.T) {
	ctx := context.Background()
	courses, _, service := newCourseFixture(t)

	created, err := service.Create(ctx, &CreateCourseRequest{Title: "Networks", Description: "Intro"}, "teacher-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newTitle := "Advanced Networks"
	featured := true
	resp, err := service.Update(ctx, created.ID, &UpdateCourseRequest{Title: &newTitle, IsFeatured: &featured}, "teacher-1")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if resp.Title != "Advanced Networks" || !resp.IsFeatured {
		t.Errorf("update not applied: %+v", resp.Course)
	}
	if courses.courses[created.ID].Title != "Advanced Networks" {
		t.Error("update not persisted")
	}

	t.Run("foreign instructor denied", func(t *testing.T) {
		title := "Hijacked"
		_, err := service.Update(ctx, created.ID, &UpdateCourseRequest{Title: &title}, "teacher-2")
		if !IsPermissionError(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})

	t.Run("admin may update", func(t *testing.T) {
		desc := "curated"
		if _, err := service.Update(ctx, created.ID, &UpdateCourseRequest{Description: &desc}, "admin-1"); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		title := "x"
		_, err := service.Update(ctx, 99, &UpdateCourseRequest{Title: &title}, "teacher-1")
		if !errors.Is(err, ErrCourseNotFound) {
			t.Fatalf("expected ErrCourseNotFound, got %v", err)
		}
	})
}

func TestCourseService_Delete(t *testing.T) {
	ctx := context.Background()
	courses, _, service := newCourseFixture(t)

	created, err := service.Create(ctx, &CreateCourseRequest{Title: "Networks", Description: "x"}, "teacher-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := service.Delete(ctx, created.ID, "teacher-2"); !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if err := service.Delete(ctx, created.ID, "teacher-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(courses.courses) != 0 {
		t.Error("course should be removed")
	}
}

func TestCourseService_Lessons(t *testing.T) {
	ctx := context.Background()
	_, lessonRepo, service := newCourseFixture(t)

	course, err := service.Create(ctx, &CreateCourseRequest{Title: "Networks", Description: "x"}, "teacher-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	lesson, err := service.AddLesson(ctx, course.ID, &CreateLessonRequest{
		Title: "OSI model", Slug: "osi-model", Content: "Layers.",
	}, "teacher-1")
	if err != nil {
		t.Fatalf("AddLesson failed: %v", err)
	}
	if lesson.CourseID != course.ID {
		t.Errorf("lesson bound to wrong course: %d", lesson.CourseID)
	}

	t.Run("duplicate slug rejected", func(t *testing.T) {
		_, err := service.AddLesson(ctx, course.ID, &CreateLessonRequest{
			Title: "OSI again", Slug: "osi-model", Content: "x",
		}, "teacher-1")
		if !IsBusinessRuleError(err) {
			t.Fatalf("expected business rule error, got %v", err)
		}
	})

	t.Run("bad slug rejected", func(t *testing.T) {
		_, err := service.AddLesson(ctx, course.ID, &CreateLessonRequest{
			Title: "Bad", Slug: "Not A Slug!", Content: "x",
		}, "teacher-1")
		if !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("update keeps own slug", func(t *testing.T) {
		title := "OSI model refreshed"
		slug := "osi-model"
		updated, err := service.UpdateLesson(ctx, course.ID, lesson.ID, &UpdateLessonRequest{Title: &title, Slug: &slug}, "teacher-1")
		if err != nil {
			t.Fatalf("UpdateLesson failed: %v", err)
		}
		if updated.Title != title {
			t.Errorf("title not updated: %s", updated.Title)
		}
	})

	t.Run("lesson from another course is hidden", func(t *testing.T) {
		other, err := service.Create(ctx, &CreateCourseRequest{Title: "Databases", Description: "x"}, "teacher-1")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := service.UpdateLesson(ctx, other.ID, lesson.ID, &UpdateLessonRequest{}, "teacher-1"); !errors.Is(err, ErrLessonNotFound) {
			t.Fatalf("expected ErrLessonNotFound, got %v", err)
		}
	})

	t.Run("student may not add lessons", func(t *testing.T) {
		_, err := service.AddLesson(ctx, course.ID, &CreateLessonRequest{
			Title: "Nope", Slug: "nope", Content: "x",
		}, "student-1")
		if !IsPermissionError(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := service.DeleteLesson(ctx, course.ID, lesson.ID, "teacher-1"); err != nil {
			t.Fatalf("DeleteLesson failed: %v", err)
		}
		if len(lessonRepo.lessons) != 0 {
			t.Error("lesson should be removed")
		}
	})
}

func TestCourseService_List(t *testing.T) {
	ctx := context.Background()
	_, _, service := newCourseFixture(t)

	if _, err := service.Create(ctx, &CreateCourseRequest{Title: "Networks", Description: "x"}, "teacher-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := service.Create(ctx, &CreateCourseRequest{Title: "Databases", Description: "x"}, "teacher-2"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := service.List(ctx, repositories.CourseFilters{}, "student-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list.Total != 2 {
		t.Errorf("expected 2 courses, got %d", list.Total)
	}
	for _, c := range list.Courses {
		if c.CanEdit {
			t.Errorf("student must not get edit rights on course %d", c.ID)
		}
	}

	mine, err := service.GetByInstructor(ctx, "teacher-1", repositories.CourseFilters{})
	if err != nil {
		t.Fatalf("GetByInstructor failed: %v", err)
	}
	if mine.Total != 1 {
		t.Errorf("expected 1 course, got %d", mine.Total)
	}
	if !mine.Courses[0].CanEdit {
		t.Error("owner should be able to edit")
	}
}
