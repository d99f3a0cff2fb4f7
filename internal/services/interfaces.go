package services

import (
	"context"
	"time"

	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/repositories"
)

// ===== REQUEST DTOs =====

// AnswerInput is one answer in a save or submit call. Exactly one of
// SelectedOption (MCQ) or Text (essay) should be set.
type AnswerInput struct {
	QuestionIndex  int     `json:"question_index" validate:"question_index"`
	SelectedOption *int    `json:"selected_option,omitempty" validate:"omitempty,min=0"`
	Text           *string `json:"text,omitempty"`
}

type SaveAnswersRequest struct {
	Answers []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

type SubmitAttemptRequest struct {
	// Answers, when present, replace the auto-saved set as the final
	// submission.
	Answers []AnswerInput `json:"answers" validate:"omitempty,dive"`
}

type GradeAttemptRequest struct {
	// Points holds one entry per question, aligned by index.
	Points   []float64 `json:"points" validate:"required,min=1,dive,grade_range"`
	Feedback *string   `json:"feedback" validate:"omitempty,max=5000"`
}

// ===== RESPONSE DTOs =====

// QuestionView is a question as shown to the quiz taker: MCQ options
// visible, correct index stripped. Grader views keep the correct index.
type QuestionView struct {
	Index              int                 `json:"index"`
	Kind               models.QuestionKind `json:"kind"`
	Text               string              `json:"text"`
	Options            []string            `json:"options,omitempty"`
	CorrectOptionIndex *int                `json:"correct_option_index,omitempty"`
}

// AttemptView is the start/resume/read result. TimeExpired marks that
// the attempt was (or just has been) closed by the clock, so clients
// route to the results screen instead of the quiz-taking screen.
type AttemptView struct {
	AttemptID        uint                 `json:"attempt_id"`
	QuizID           uint                 `json:"quiz_id"`
	Title            string               `json:"title"`
	Description      *string              `json:"description,omitempty"`
	LimitMinutes     int                  `json:"limit_minutes"`
	Questions        []QuestionView       `json:"questions"`
	StartedAt        *time.Time           `json:"started_at"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	Answers          []models.Answer      `json:"answers"`
	Status           models.AttemptStatus `json:"status"`
	TimeExpired      bool                 `json:"time_expired"`
	Grade            *float64             `json:"grade,omitempty"`
	Feedback         *string              `json:"feedback,omitempty"`
}

type SaveAnswersResult struct {
	AttemptID uint                 `json:"attempt_id"`
	Answers   []models.Answer      `json:"answers"`
	Status    models.AttemptStatus `json:"status"`
	SavedAt   time.Time            `json:"saved_at"`
}

type SubmitResult struct {
	AttemptID     uint                 `json:"attempt_id"`
	Answers       []models.Answer      `json:"answers"`
	SubmittedAt   time.Time            `json:"submitted_at"`
	Status        models.AttemptStatus `json:"status"`
	AutoSubmitted bool                 `json:"auto_submitted"`
}

type TimeRemainingResult struct {
	AttemptID        uint                 `json:"attempt_id"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	ExpiresAt        *time.Time           `json:"expires_at,omitempty"`
	Status           models.AttemptStatus `json:"status"`
}

// GradeResult carries the applied grade plus an optional non-blocking
// warning (points not summing to 100).
type GradeResult struct {
	AttemptID uint                 `json:"attempt_id"`
	Grade     float64              `json:"grade"`
	Feedback  *string              `json:"feedback,omitempty"`
	Status    models.AttemptStatus `json:"status"`
	GradedAt  time.Time            `json:"graded_at"`
	Warning   string               `json:"warning,omitempty"`
}

// AttemptSummary is one row of a teacher-facing listing.
type AttemptSummary struct {
	AttemptID     uint                 `json:"attempt_id"`
	StudentID     string               `json:"student_id"`
	Status        models.AttemptStatus `json:"status"`
	StartedAt     *time.Time           `json:"started_at"`
	SubmittedAt   *time.Time           `json:"submitted_at"`
	AutoSubmitted bool                 `json:"auto_submitted"`
	Grade         *float64             `json:"grade,omitempty"`
}

type AttemptListResult struct {
	Attempts []AttemptSummary `json:"attempts"`
	Total    int64            `json:"total"`
}

// ===== SERVICE INTERFACES =====

// AttemptService orchestrates the timed attempt lifecycle.
type AttemptService interface {
	// StartOrResume creates and starts a fresh attempt, resumes a live
	// one, or lazily auto-submits an expired one.
	StartOrResume(ctx context.Context, quizID uint, studentID string) (*AttemptView, error)

	// SaveAnswers is the periodic auto-save path. Rejected with
	// models.ErrResourceClosed once the attempt is closed or expired.
	SaveAnswers(ctx context.Context, attemptID uint, callerID string, req *SaveAnswersRequest) (*SaveAnswersResult, error)

	// Submit closes the attempt by student action. Past expiry it
	// finalizes with the auto-saved answers instead.
	Submit(ctx context.Context, attemptID uint, callerID string, req *SubmitAttemptRequest) (*SubmitResult, error)

	GetAttempt(ctx context.Context, attemptID uint, callerID string) (*AttemptView, error)
	GetTimeRemaining(ctx context.Context, attemptID uint, callerID string) (*TimeRemainingResult, error)

	// ListAttempts is the grader's view over a quiz's attempts.
	ListAttempts(ctx context.Context, quizID uint, callerID string, filters repositories.AttemptFilters) (*AttemptListResult, error)
}

// GradingService applies per-question point vectors to submitted
// attempts.
type GradingService interface {
	// GradeAttempt applies the first grade; fails with
	// models.ErrAlreadyGraded when one exists.
	GradeAttempt(ctx context.Context, attemptID uint, graderID string, req *GradeAttemptRequest) (*GradeResult, error)

	// UpdateGrade revises an existing grade. Always permitted once the
	// attempt is submitted.
	UpdateGrade(ctx context.Context, attemptID uint, graderID string, req *GradeAttemptRequest) (*GradeResult, error)
}

// AuthorizationPolicy gates attempt and grading operations. A nil return
// means allowed.
type AuthorizationPolicy interface {
	CanSubmitQuiz(ctx context.Context, user *models.User, quiz *models.Quiz) error
	CanGradeSubmissions(ctx context.Context, user *models.User, quiz *models.Quiz) error
}

// ServiceManager provides access to all services.
type ServiceManager interface {
	Attempt() AttemptService
	Grading() GradingService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
