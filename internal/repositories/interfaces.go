package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campuskit/quiz-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "created_at", "submitted_at", "grade"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORY INTERFACES =====

// QuizRepository reads quiz definitions. Authoring lives elsewhere; this
// service only consumes them.
type QuizRepository interface {
	// GetByID loads a quiz with its questions ordered by position.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)

	// HasSubmissions reports whether any attempt for the quiz has been
	// submitted or graded.
	HasSubmissions(ctx context.Context, tx *gorm.DB, quizID uint) (bool, error)
}

// AttemptRepository persists quiz attempts.
//
// Update enforces optimistic locking: the write only applies when the
// stored row still carries the version the attempt was loaded with, and
// the version is bumped on success. A mismatch fails with
// models.ErrConcurrentModification, so no caller compares versions by
// hand.
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)

	// GetByQuizAndStudent returns the student's latest attempt for the
	// quiz, or models.ErrAttemptNotFound.
	GetByQuizAndStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (*models.Attempt, error)

	Update(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error

	ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters AttemptFilters) ([]*models.Attempt, int64, error)
}

// EnrollmentRepository answers course-membership checks.
type EnrollmentRepository interface {
	IsEnrolled(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (bool, error)
}

// UserRepository reads user identities (backed by Casdoor).
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
