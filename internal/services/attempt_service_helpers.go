package services

import (
	"context"
	"fmt"

	"github.com/campuskit/quiz-service/internal/events"
	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/timing"
)

// ===== LOADING =====

// loadOwnedAttempt fetches an attempt and its quiz and verifies the
// caller owns the attempt.
func (s *attemptService) loadOwnedAttempt(ctx context.Context, attemptID uint, callerID string) (*models.Attempt, *models.Quiz, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, s.db, attemptID)
	if err != nil {
		return nil, nil, err
	}

	if !attempt.IsOwnedBy(callerID) {
		return nil, nil, models.ErrForbiddenResource
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, s.db, attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}

	return attempt, quiz, nil
}

// ===== EXPIRY =====

// finalizeExpired auto-submits an attempt whose window has closed and
// persists the transition. Safe to call on already-closed attempts.
func (s *attemptService) finalizeExpired(ctx context.Context, attempt *models.Attempt) error {
	wasClosed := attempt.IsClosed()

	if err := attempt.AutoSubmit(s.clock.Now()); err != nil {
		return err
	}
	if wasClosed {
		return nil
	}

	if err := s.repo.Attempt().Update(ctx, s.db, attempt); err != nil {
		return err
	}

	s.logger.Info("Attempt auto-submitted on expiry",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID,
		"student_id", attempt.StudentID)

	s.publishAttemptEvent(ctx, events.AttemptAutoSubmitted, attempt)
	return nil
}

// ===== VIEW BUILDING =====

func (s *attemptService) buildAttemptView(attempt *models.Attempt, quiz *models.Quiz, viewer *models.User) (*AttemptView, error) {
	answers, err := attempt.AnswerList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}

	view := &AttemptView{
		AttemptID:    attempt.ID,
		QuizID:       quiz.ID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		LimitMinutes: quiz.TimeLimitMinutes,
		StartedAt:    attempt.StartedAt,
		Answers:      answers,
		Status:       attempt.Status,
		Grade:        attempt.Grade,
		Feedback:     attempt.Feedback,
	}

	// Graders see the answer key; quiz takers never do.
	includeKey := viewer != nil && viewer.CanGrade()
	view.Questions, err = buildQuestionViews(quiz, includeKey)
	if err != nil {
		return nil, err
	}

	if attempt.Status == models.AttemptInProgress {
		remaining, err := timing.RemainingSeconds(attempt.StartedAt, quiz.TimeLimitMinutes, s.clock.Now())
		if err != nil {
			return nil, err
		}
		view.RemainingSeconds = remaining
	}

	return view, nil
}

// buildExpiredView is the result of a lazy auto-submit: no questions and
// no remaining time, but the answers that were auto-submitted stay in the
// view so the client can show what went in.
func (s *attemptService) buildExpiredView(attempt *models.Attempt, quiz *models.Quiz) (*AttemptView, error) {
	answers, err := attempt.AnswerList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}

	return &AttemptView{
		AttemptID:        attempt.ID,
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		LimitMinutes:     quiz.TimeLimitMinutes,
		Questions:        []QuestionView{},
		StartedAt:        attempt.StartedAt,
		RemainingSeconds: 0,
		Answers:          answers,
		Status:           attempt.Status,
		TimeExpired:      true,
		Grade:            attempt.Grade,
		Feedback:         attempt.Feedback,
	}, nil
}

func (s *attemptService) buildSubmitResult(attempt *models.Attempt) (*SubmitResult, error) {
	answers, err := attempt.AnswerList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}

	result := &SubmitResult{
		AttemptID:     attempt.ID,
		Answers:       answers,
		Status:        attempt.Status,
		AutoSubmitted: attempt.AutoSubmitted,
	}
	if attempt.SubmittedAt != nil {
		result.SubmittedAt = *attempt.SubmittedAt
	}
	return result, nil
}

func buildQuestionViews(quiz *models.Quiz, includeKey bool) ([]QuestionView, error) {
	views := make([]QuestionView, len(quiz.Questions))
	for i, q := range quiz.Questions {
		options, err := q.OptionList()
		if err != nil {
			return nil, fmt.Errorf("failed to decode options for question %d: %w", i, err)
		}

		view := QuestionView{
			Index:   i,
			Kind:    q.Kind,
			Text:    q.Text,
			Options: options,
		}
		if includeKey {
			view.CorrectOptionIndex = q.CorrectOptionIndex
		}
		views[i] = view
	}
	return views, nil
}

func toModelAnswers(inputs []AnswerInput) []models.Answer {
	if len(inputs) == 0 {
		return nil
	}
	answers := make([]models.Answer, len(inputs))
	for i, in := range inputs {
		answers[i] = models.Answer{
			QuestionIndex:  in.QuestionIndex,
			SelectedOption: in.SelectedOption,
			Text:           in.Text,
		}
	}
	return answers
}

// ===== EVENTS =====

// publishAttemptEvent emits an event best-effort: a broker failure never
// fails the request.
func (s *attemptService) publishAttemptEvent(ctx context.Context, eventType string, attempt *models.Attempt) {
	payload := events.PayloadFromAttempt(attempt, s.clock.Now())
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Error("Failed to publish attempt event",
			"event_type", eventType,
			"attempt_id", attempt.ID,
			"error", err)
	}
}
