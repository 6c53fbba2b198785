package services

import (
	"context"
	"time"

	"github.com/campusworks/lms-quiz-service/internal/models"
	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// mockRepository wires hand-written in-memory fakes together for
// service tests. Sub-repositories a test does not touch may stay nil.
type mockRepository struct {
	course     repositories.CourseRepository
	lesson     repositories.LessonRepository
	enrollment repositories.EnrollmentRepository
	quiz       repositories.QuizRepository
	question   repositories.QuestionRepository
	submission repositories.SubmissionRepository
	user       repositories.UserRepository
}

func (m *mockRepository) Course() repositories.CourseRepository         { return m.course }
func (m *mockRepository) Lesson() repositories.LessonRepository         { return m.lesson }
func (m *mockRepository) Enrollment() repositories.EnrollmentRepository { return m.enrollment }
func (m *mockRepository) Quiz() repositories.QuizRepository             { return m.quiz }
func (m *mockRepository) Question() repositories.QuestionRepository     { return m.question }
func (m *mockRepository) Submission() repositories.SubmissionRepository { return m.submission }
func (m *mockRepository) User() repositories.UserRepository             { return m.user }
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== USERS =====

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var found []*models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			found = append(found, u)
		}
	}
	return found, nil
}

func (f *fakeUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var all []*models.User
	for _, u := range f.users {
		all = append(all, u)
	}
	return all, int64(len(all)), nil
}

func (f *fakeUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	u, ok := f.users[id]
	return ok && u.Role == role, nil
}

// ===== COURSES =====

type fakeCourseRepo struct {
	courses map[uint]*models.Course
	nextID  uint
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: make(map[uint]*models.Course), nextID: 1}
}

func (f *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	course.ID = f.nextID
	f.nextID++
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCourseRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if _, ok := f.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := f.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.courses, id)
	return nil
}

func (f *fakeCourseRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	var all []*models.Course
	for _, c := range f.courses {
		if filters.InstructorID != nil && c.InstructorID != *filters.InstructorID {
			continue
		}
		all = append(all, c)
	}
	return all, int64(len(all)), nil
}

func (f *fakeCourseRepo) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.InstructorID = &instructorID
	return f.List(ctx, tx, filters)
}

func (f *fakeCourseRepo) ExistsByTitle(ctx context.Context, tx *gorm.DB, title string, instructorID string, excludeID *uint) (bool, error) {
	for _, c := range f.courses {
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		if c.Title == title && c.InstructorID == instructorID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCourseRepo) IsOwnedBy(ctx context.Context, tx *gorm.DB, courseID uint, instructorID string) (bool, error) {
	c, ok := f.courses[courseID]
	return ok && c.InstructorID == instructorID, nil
}

func (f *fakeCourseRepo) GetStats(ctx context.Context, tx *gorm.DB, courseID uint) (*repositories.CourseStats, error) {
	if _, ok := f.courses[courseID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &repositories.CourseStats{}, nil
}

// ===== LESSONS =====

type fakeLessonRepo struct {
	lessons map[uint]*models.Lesson
	nextID  uint
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{lessons: make(map[uint]*models.Lesson), nextID: 1}
}

func (f *fakeLessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	lesson.ID = f.nextID
	f.nextID++
	f.lessons[lesson.ID] = lesson
	return nil
}

func (f *fakeLessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	if l, ok := f.lessons[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLessonRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Lesson, error) {
	for _, l := range f.lessons {
		if l.Slug == slug {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLessonRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Lesson, error) {
	var out []*models.Lesson
	for _, l := range f.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLessonRepo) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if _, ok := f.lessons[lesson.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.lessons[lesson.ID] = lesson
	return nil
}

func (f *fakeLessonRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := f.lessons[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.lessons, id)
	return nil
}

func (f *fakeLessonRepo) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	for _, l := range f.lessons {
		if excludeID != nil && l.ID == *excludeID {
			continue
		}
		if l.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// ===== ENROLLMENTS =====

type fakeEnrollmentRepo struct {
	enrollments map[uint]*models.Enrollment
	nextID      uint
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[uint]*models.Enrollment), nextID: 1}
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	for _, e := range f.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = f.nextID
	f.nextID++
	f.enrollments[enrollment.ID] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	if e, ok := f.enrollments[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range f.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range f.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range f.enrollments {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, id uint, progress float64) error {
	e, ok := f.enrollments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Progress = progress
	return nil
}

func (f *fakeEnrollmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := f.enrollments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.enrollments, id)
	return nil
}

func (f *fakeEnrollmentRepo) IsEnrolled(ctx context.Context, tx *gorm.DB, studentID string, courseID uint) (bool, error) {
	for _, e := range f.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

// ===== QUIZZES =====

type fakeQuizRepo struct {
	quizzes map[uint]*models.Quiz
	nextID  uint
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{quizzes: make(map[uint]*models.Quiz), nextID: 1}
}

func (f *fakeQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	quiz.ID = f.nextID
	f.nextID++
	for i := range quiz.Questions {
		quiz.Questions[i].ID = uint(i + 1)
		quiz.Questions[i].QuizID = quiz.ID
	}
	f.quizzes[quiz.ID] = quiz
	return nil
}

func (f *fakeQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	if q, ok := f.quizzes[id]; ok {
		return q, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeQuizRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeQuizRepo) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if _, ok := f.quizzes[quiz.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.quizzes[quiz.ID] = quiz
	return nil
}

func (f *fakeQuizRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := f.quizzes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.quizzes, id)
	return nil
}

func (f *fakeQuizRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var out []*models.Quiz
	for _, q := range f.quizzes {
		if filters.CourseID != nil && q.CourseID != *filters.CourseID {
			continue
		}
		if filters.Status != nil && q.Status != *filters.Status {
			continue
		}
		out = append(out, q)
	}
	return out, int64(len(out)), nil
}

func (f *fakeQuizRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Quiz, error) {
	var out []*models.Quiz
	for _, q := range f.quizzes {
		if q.CourseID == courseID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuizRepo) GetActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Quiz, error) {
	var out []*models.Quiz
	for _, q := range f.quizzes {
		if q.CourseID == courseID && q.Status == models.QuizActive {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuizRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.QuizStatus) error {
	q, ok := f.quizzes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	q.Status = status
	return nil
}

func (f *fakeQuizRepo) GetStats(ctx context.Context, tx *gorm.DB, quizID uint) (*repositories.QuizStats, error) {
	if _, ok := f.quizzes[quizID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &repositories.QuizStats{}, nil
}

// ===== SUBMISSIONS =====

type fakeSubmissionRepo struct {
	submissions map[uint]*models.QuizSubmission
	nextID      uint
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[uint]*models.QuizSubmission), nextID: 1}
}

func (f *fakeSubmissionRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, submission *models.QuizSubmission) (bool, error) {
	for _, s := range f.submissions {
		if s.StudentID == submission.StudentID && s.QuizID == submission.QuizID && s.QuestionID == submission.QuestionID {
			return false, nil
		}
	}
	submission.ID = f.nextID
	f.nextID++
	f.submissions[submission.ID] = submission
	return true, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizSubmission, error) {
	if s, ok := f.submissions[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) GetByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) ([]*models.QuizSubmission, error) {
	var out []*models.QuizSubmission
	for _, s := range f.submissions {
		if s.StudentID == studentID && s.QuizID == quizID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters repositories.SubmissionFilters) ([]*models.QuizSubmission, error) {
	var out []*models.QuizSubmission
	for _, s := range f.submissions {
		if s.QuizID == quizID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.QuizSubmission, error) {
	var out []*models.QuizSubmission
	for _, s := range f.submissions {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) UpdateGrade(ctx context.Context, tx *gorm.DB, id uint, grade int, gradedBy string) error {
	s, ok := f.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	s.Grade = &grade
	s.GradedBy = &gradedBy
	s.GradedAt = &now
	return nil
}

func (f *fakeSubmissionRepo) SumGradesByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int, error) {
	sum := 0
	for _, s := range f.submissions {
		if s.StudentID == studentID && s.QuizID == quizID && s.Grade != nil {
			sum += *s.Grade
		}
	}
	return sum, nil
}

func (f *fakeSubmissionRepo) CountByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int64, error) {
	var count int64
	for _, s := range f.submissions {
		if s.StudentID == studentID && s.QuizID == quizID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionRepo) CountCorrectByStudentAndQuiz(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (int64, error) {
	var count int64
	for _, s := range f.submissions {
		if s.StudentID == studentID && s.QuizID == quizID && s.Grade != nil && *s.Grade > 0 {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionRepo) CountDistinctStudents(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error) {
	seen := make(map[string]bool)
	for _, s := range f.submissions {
		if s.QuizID == quizID {
			seen[s.StudentID] = true
		}
	}
	return int64(len(seen)), nil
}
