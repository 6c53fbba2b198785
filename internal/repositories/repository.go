package repositories

import "context"

// Repository aggregates every repository the service touches.
type Repository interface {
	// Course domain
	Course() CourseRepository
	Lesson() LessonRepository
	Enrollment() EnrollmentRepository

	// Quiz domain
	Quiz() QuizRepository
	Question() QuestionRepository
	Submission() SubmissionRepository

	// User domain (read-only, identity lives in Casdoor)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
