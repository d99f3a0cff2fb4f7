// Package events publishes attempt lifecycle events for downstream
// consumers (notifications, gradebook sync).
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuskit/quiz-service/internal/models"
)

const (
	// Source identifies this service in event envelopes.
	Source = "quiz-service"

	// SchemaVersion of the event envelope.
	SchemaVersion = "1.0"
)

// Event types.
const (
	AttemptSubmitted     = "attempt.submitted"
	AttemptAutoSubmitted = "attempt.auto_submitted"
	AttemptGraded        = "attempt.graded"
)

// Event is the envelope every published message carries.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// AttemptPayload is the body of all attempt lifecycle events.
type AttemptPayload struct {
	AttemptID   uint                 `json:"attempt_id"`
	QuizID      uint                 `json:"quiz_id"`
	StudentID   string               `json:"student_id"`
	Status      models.AttemptStatus `json:"status"`
	Grade       *float64             `json:"grade,omitempty"`
	SubmittedAt *time.Time           `json:"submitted_at,omitempty"`
	GradedBy    *string              `json:"graded_by,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

// NewEvent wraps a payload in an envelope.
func NewEvent(eventType string, payload AttemptPayload) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event payload: %w", err)
	}

	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    Source,
		Version:   SchemaVersion,
		Timestamp: payload.OccurredAt,
		Payload:   body,
	}, nil
}

// PayloadFromAttempt builds the event body from an attempt.
func PayloadFromAttempt(attempt *models.Attempt, occurredAt time.Time) AttemptPayload {
	return AttemptPayload{
		AttemptID:   attempt.ID,
		QuizID:      attempt.QuizID,
		StudentID:   attempt.StudentID,
		Status:      attempt.Status,
		Grade:       attempt.Grade,
		SubmittedAt: attempt.SubmittedAt,
		GradedBy:    attempt.GradedBy,
		OccurredAt:  occurredAt,
	}
}
