package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/campuskit/quiz-service/internal/events"
	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/repositories"
	"github.com/campuskit/quiz-service/internal/validator"
)

type gradingService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	clock     Clock
	authz     AuthorizationPolicy
	publisher events.Publisher
}

func NewGradingService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	clock Clock,
	authz AuthorizationPolicy,
	publisher events.Publisher,
) GradingService {
	return &gradingService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		clock:     clock,
		authz:     authz,
		publisher: publisher,
	}
}

// ===== GRADING OPERATIONS =====

func (s *gradingService) GradeAttempt(ctx context.Context, attemptID uint, graderID string, req *GradeAttemptRequest) (*GradeResult, error) {
	s.logger.Info("Grading attempt",
		"attempt_id", attemptID,
		"grader_id", graderID)

	return s.applyGrade(ctx, attemptID, graderID, req, false)
}

func (s *gradingService) UpdateGrade(ctx context.Context, attemptID uint, graderID string, req *GradeAttemptRequest) (*GradeResult, error) {
	s.logger.Info("Updating grade",
		"attempt_id", attemptID,
		"grader_id", graderID)

	return s.applyGrade(ctx, attemptID, graderID, req, true)
}

// applyGrade runs both grading paths. The only difference is whether an
// existing grade blocks the write (first grading) or is revised (update).
func (s *gradingService) applyGrade(ctx context.Context, attemptID uint, graderID string, req *GradeAttemptRequest, revision bool) (*GradeResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, s.db, attemptID)
	if err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, s.db, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	grader, err := s.repo.User().GetByID(ctx, graderID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanGradeSubmissions(ctx, grader, quiz); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateGradePoints(req.Points, quiz.QuestionCount()); err != nil {
		return nil, err
	}

	total := validator.GradePointsTotal(req.Points)
	warning := validator.GradeSumWarning(req.Points)
	if warning != "" {
		s.logger.Warn("Grade points do not sum to 100",
			"attempt_id", attemptID,
			"total", total,
			"grader_id", graderID)
	}

	now := s.clock.Now()
	if revision {
		err = attempt.UpdateGrade(total, req.Feedback, graderID, now)
	} else {
		err = attempt.SetGrade(total, req.Feedback, graderID, now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.Attempt().Update(ctx, s.db, attempt); err != nil {
		return nil, err
	}

	s.publishGradedEvent(ctx, attempt)

	s.logger.Info("Attempt graded",
		"attempt_id", attempt.ID,
		"grade", total,
		"grader_id", graderID)

	result := &GradeResult{
		AttemptID: attempt.ID,
		Grade:     total,
		Feedback:  attempt.Feedback,
		Status:    attempt.Status,
		Warning:   warning,
	}
	if attempt.GradedAt != nil {
		result.GradedAt = *attempt.GradedAt
	}
	return result, nil
}

func (s *gradingService) publishGradedEvent(ctx context.Context, attempt *models.Attempt) {
	payload := events.PayloadFromAttempt(attempt, s.clock.Now())
	if err := s.publisher.Publish(ctx, events.AttemptGraded, payload); err != nil {
		s.logger.Error("Failed to publish graded event",
			"attempt_id", attempt.ID,
			"error", err)
	}
}
