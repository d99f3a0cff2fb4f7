package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/campuskit/quiz-service/internal/events"
	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/repositories"
	"github.com/campuskit/quiz-service/internal/timing"
	"github.com/campuskit/quiz-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	clock     Clock
	authz     AuthorizationPolicy
	publisher events.Publisher
}

func NewAttemptService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	clock Clock,
	authz AuthorizationPolicy,
	publisher events.Publisher,
) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		clock:     clock,
		authz:     authz,
		publisher: publisher,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) StartOrResume(ctx context.Context, quizID uint, studentID string) (*AttemptView, error) {
	s.logger.Info("Starting quiz attempt",
		"quiz_id", quizID,
		"student_id", studentID)

	quiz, err := s.repo.Quiz().GetByID(ctx, s.db, quizID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if quiz.IsPastDue(now) {
		return nil, models.ErrPastDueDate
	}

	user, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanSubmitQuiz(ctx, user, quiz); err != nil {
		return nil, err
	}

	attempt, err := s.repo.Attempt().GetByQuizAndStudent(ctx, s.db, quizID, studentID)
	if err != nil && !errors.Is(err, models.ErrAttemptNotFound) {
		return nil, err
	}

	if attempt != nil {
		return s.resumeAttempt(ctx, attempt, quiz)
	}

	// No previous attempt: create and start a fresh one.
	attempt = models.NewAttempt(quizID, studentID)
	if err := attempt.Start(now); err != nil {
		return nil, err
	}

	if err := s.repo.Attempt().Create(ctx, s.db, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quizID,
		"student_id", studentID)

	return s.buildAttemptView(attempt, quiz, user)
}

// resumeAttempt handles the existing-attempt branches of StartOrResume:
// live attempts resume, expired ones are lazily finalized, closed ones
// reject with ErrAlreadySubmitted.
func (s *attemptService) resumeAttempt(ctx context.Context, attempt *models.Attempt, quiz *models.Quiz) (*AttemptView, error) {
	if attempt.IsClosed() {
		return nil, models.ErrAlreadySubmitted
	}

	expired, err := timing.IsExpired(attempt.StartedAt, quiz.TimeLimitMinutes, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if expired {
		if err := s.finalizeExpired(ctx, attempt); err != nil {
			return nil, err
		}
		return s.buildExpiredView(attempt, quiz)
	}

	s.logger.Info("Resuming quiz attempt", "attempt_id", attempt.ID)

	user, err := s.repo.User().GetByID(ctx, attempt.StudentID)
	if err != nil {
		return nil, err
	}
	return s.buildAttemptView(attempt, quiz, user)
}

func (s *attemptService) SaveAnswers(ctx context.Context, attemptID uint, callerID string, req *SaveAnswersRequest) (*SaveAnswersResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, quiz, err := s.loadOwnedAttempt(ctx, attemptID, callerID)
	if err != nil {
		return nil, err
	}

	if attempt.IsClosed() {
		return nil, models.ErrResourceClosed
	}

	expired, err := timing.IsExpired(attempt.StartedAt, quiz.TimeLimitMinutes, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if expired {
		// The window closed between the client's last tick and this
		// save. Finalize with what was already saved and reject the
		// new answers.
		if err := s.finalizeExpired(ctx, attempt); err != nil {
			return nil, err
		}
		return nil, models.ErrResourceClosed
	}

	if err := attempt.SaveAnswers(toModelAnswers(req.Answers)); err != nil {
		return nil, err
	}

	if err := s.repo.Attempt().Update(ctx, s.db, attempt); err != nil {
		return nil, err
	}

	answers, err := attempt.AnswerList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode saved answers: %w", err)
	}

	s.logger.Debug("Answers auto-saved",
		"attempt_id", attempt.ID,
		"answers_count", len(answers))

	return &SaveAnswersResult{
		AttemptID: attempt.ID,
		Answers:   answers,
		Status:    attempt.Status,
		SavedAt:   s.clock.Now(),
	}, nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID uint, callerID string, req *SubmitAttemptRequest) (*SubmitResult, error) {
	s.logger.Info("Submitting quiz attempt",
		"attempt_id", attemptID,
		"student_id", callerID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, quiz, err := s.loadOwnedAttempt(ctx, attemptID, callerID)
	if err != nil {
		return nil, err
	}

	if attempt.IsClosed() {
		return nil, models.ErrAlreadySubmitted
	}

	now := s.clock.Now()
	expired, err := timing.IsExpired(attempt.StartedAt, quiz.TimeLimitMinutes, now)
	if err != nil {
		return nil, err
	}
	if expired {
		// Too late for the submitted payload: the attempt closes with
		// the answers that were auto-saved inside the window.
		if err := s.finalizeExpired(ctx, attempt); err != nil {
			return nil, err
		}
		return s.buildSubmitResult(attempt)
	}

	if err := attempt.Submit(toModelAnswers(req.Answers), now, false); err != nil {
		return nil, err
	}

	if err := s.repo.Attempt().Update(ctx, s.db, attempt); err != nil {
		return nil, err
	}

	s.publishAttemptEvent(ctx, events.AttemptSubmitted, attempt)

	s.logger.Info("Quiz attempt submitted",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID)

	return s.buildSubmitResult(attempt)
}

// ===== GET OPERATIONS =====

func (s *attemptService) GetAttempt(ctx context.Context, attemptID uint, callerID string) (*AttemptView, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, s.db, attemptID)
	if err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, s.db, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if !attempt.IsOwnedBy(callerID) {
		if err := s.authz.CanGradeSubmissions(ctx, user, quiz); err != nil {
			return nil, models.ErrForbiddenResource
		}
	}

	if attempt.Status == models.AttemptInProgress {
		expired, err := timing.IsExpired(attempt.StartedAt, quiz.TimeLimitMinutes, s.clock.Now())
		if err != nil {
			return nil, err
		}
		if expired {
			if err := s.finalizeExpired(ctx, attempt); err != nil {
				return nil, err
			}
			return s.buildExpiredView(attempt, quiz)
		}
	}

	return s.buildAttemptView(attempt, quiz, user)
}

func (s *attemptService) GetTimeRemaining(ctx context.Context, attemptID uint, callerID string) (*TimeRemainingResult, error) {
	attempt, quiz, err := s.loadOwnedAttempt(ctx, attemptID, callerID)
	if err != nil {
		return nil, err
	}

	if attempt.IsClosed() {
		return &TimeRemainingResult{
			AttemptID:        attempt.ID,
			RemainingSeconds: 0,
			Status:           attempt.Status,
		}, nil
	}

	remaining, err := timing.RemainingSeconds(attempt.StartedAt, quiz.TimeLimitMinutes, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		if err := s.finalizeExpired(ctx, attempt); err != nil {
			return nil, err
		}
		return &TimeRemainingResult{
			AttemptID:        attempt.ID,
			RemainingSeconds: 0,
			Status:           attempt.Status,
		}, nil
	}

	expiresAt, err := timing.ExpirationInstant(attempt.StartedAt, quiz.TimeLimitMinutes)
	if err != nil {
		return nil, err
	}

	return &TimeRemainingResult{
		AttemptID:        attempt.ID,
		RemainingSeconds: remaining,
		ExpiresAt:        expiresAt,
		Status:           attempt.Status,
	}, nil
}

// ===== LIST OPERATIONS =====

func (s *attemptService) ListAttempts(ctx context.Context, quizID uint, callerID string, filters repositories.AttemptFilters) (*AttemptListResult, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, s.db, quizID)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanGradeSubmissions(ctx, user, quiz); err != nil {
		return nil, err
	}

	attempts, total, err := s.repo.Attempt().ListByQuiz(ctx, s.db, quizID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	summaries := make([]AttemptSummary, len(attempts))
	for i, attempt := range attempts {
		summaries[i] = AttemptSummary{
			AttemptID:     attempt.ID,
			StudentID:     attempt.StudentID,
			Status:        attempt.Status,
			StartedAt:     attempt.StartedAt,
			SubmittedAt:   attempt.SubmittedAt,
			AutoSubmitted: attempt.AutoSubmitted,
			Grade:         attempt.Grade,
		}
	}

	return &AttemptListResult{Attempts: summaries, Total: total}, nil
}
