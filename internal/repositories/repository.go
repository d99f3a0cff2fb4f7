package repositories

import "context"

// Repository aggregates all domain repositories behind one handle.
type Repository interface {
	// Quiz domain (read-only for this service)
	Quiz() QuizRepository

	// Attempt domain
	Attempt() AttemptRepository

	// Eligibility
	Enrollment() EnrollmentRepository

	// User domain (backed by the identity provider)
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
