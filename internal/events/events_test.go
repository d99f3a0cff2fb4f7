package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/campuskit/quiz-service/internal/models"
)

func TestNewEventEnvelope(t *testing.T) {
	occurredAt := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	payload := AttemptPayload{
		AttemptID:  12,
		QuizID:     3,
		StudentID:  "student-1",
		Status:     models.AttemptSubmitted,
		OccurredAt: occurredAt,
	}

	event, err := NewEvent(AttemptSubmitted, payload)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}

	if event.ID == "" {
		t.Error("event ID not assigned")
	}
	if event.Source != Source || event.Version != SchemaVersion {
		t.Errorf("envelope = %+v", event)
	}
	if !event.Timestamp.Equal(occurredAt) {
		t.Errorf("timestamp = %v, want %v", event.Timestamp, occurredAt)
	}

	var decoded AttemptPayload
	if err := json.Unmarshal(event.Payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded.AttemptID != 12 || decoded.Status != models.AttemptSubmitted {
		t.Errorf("payload = %+v", decoded)
	}
}

func TestMockPublisherRecordsEvents(t *testing.T) {
	pub := NewMockPublisher()
	ctx := context.Background()

	payload := AttemptPayload{AttemptID: 1, QuizID: 2, StudentID: "s", Status: models.AttemptGraded, OccurredAt: time.Now()}
	if err := pub.Publish(ctx, AttemptGraded, payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := pub.Publish(ctx, AttemptAutoSubmitted, payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	recorded := pub.Events()
	if len(recorded) != 2 {
		t.Fatalf("recorded %d events, want 2", len(recorded))
	}
	if recorded[0].Type != AttemptGraded || recorded[1].Type != AttemptAutoSubmitted {
		t.Errorf("types = %s, %s", recorded[0].Type, recorded[1].Type)
	}
}
