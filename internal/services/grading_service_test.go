package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/campuskit/quiz-service/internal/events"
	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/validator"
)

func newGradingFixture(t *testing.T) (*fakeRepo, *fixedClock, *events.MockPublisher, GradingService) {
	t.Helper()

	repo := newFakeRepo()
	repo.addQuiz(newTestQuiz())
	repo.addUser(&models.User{ID: testStudentID, Email: "s1@example.com", Role: models.RoleStudent})
	repo.addUser(&models.User{ID: testTeacherID, Email: "t1@example.com", Role: models.RoleTeacher})
	repo.enroll(testCourseID, testStudentID)

	clock := &fixedClock{now: testStart.Add(2 * time.Hour)}
	publisher := events.NewMockPublisher()
	logger := slog.New(slog.DiscardHandler)
	v := validator.New()
	authz := NewAuthorizationPolicy(repo, nil, logger)

	svc := NewGradingService(repo, nil, logger, v, clock, authz, publisher)
	return repo, clock, publisher, svc
}

func seedSubmittedAttempt(t *testing.T, repo *fakeRepo) uint {
	t.Helper()
	started := testStart
	submitted := testStart.Add(50 * time.Minute)
	attempt, err := models.ReconstituteAttempt(models.AttemptSnapshot{
		QuizID:    testQuizID,
		StudentID: testStudentID,
		Status:    models.AttemptSubmitted,
		Answers: []models.Answer{
			{QuestionIndex: 0, SelectedOption: intPtr(1)},
			{QuestionIndex: 1, Text: strPtr("an essay")},
		},
		StartedAt:   &started,
		SubmittedAt: &submitted,
		Version:     2,
	})
	if err != nil {
		t.Fatalf("reconstitute attempt: %v", err)
	}
	repo.addAttempt(attempt)
	return attempt.ID
}

func TestGradeAttempt_AppliesPointTotal(t *testing.T) {
	repo, _, publisher, svc := newGradingFixture(t)
	attemptID := seedSubmittedAttempt(t, repo)

	result, err := svc.GradeAttempt(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
		Points:   []float64{40, 50},
		Feedback: strPtr("good work"),
	})
	if err != nil {
		t.Fatalf("GradeAttempt failed: %v", err)
	}

	if result.Grade != 90 {
		t.Errorf("grade = %g, want 90", result.Grade)
	}
	if result.Status != models.AttemptGraded {
		t.Errorf("status = %s, want %s", result.Status, models.AttemptGraded)
	}
	if !strings.Contains(result.Warning, "do not equal 100") {
		t.Errorf("warning = %q, want sum-mismatch warning", result.Warning)
	}

	stored := repo.storedAttempt(t, attemptID)
	if stored.Grade == nil || *stored.Grade != 90 {
		t.Errorf("stored grade = %v, want 90", stored.Grade)
	}
	if stored.GradedBy == nil || *stored.GradedBy != testTeacherID {
		t.Errorf("stored GradedBy = %v", stored.GradedBy)
	}

	published := publisher.Events()
	if len(published) != 1 || published[0].Type != events.AttemptGraded {
		t.Errorf("published events = %+v, want one %s", published, events.AttemptGraded)
	}
}

func TestGradeAttempt_FullMarksNoWarning(t *testing.T) {
	repo, _, _, svc := newGradingFixture(t)
	attemptID := seedSubmittedAttempt(t, repo)

	result, err := svc.GradeAttempt(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
		Points: []float64{60, 40},
	})
	if err != nil {
		t.Fatalf("GradeAttempt failed: %v", err)
	}
	if result.Grade != 100 {
		t.Errorf("grade = %g, want 100", result.Grade)
	}
	if result.Warning != "" {
		t.Errorf("warning = %q, want none", result.Warning)
	}
}

func TestGradeAttempt_SecondGradeRejected(t *testing.T) {
	repo, _, _, svc := newGradingFixture(t)
	attemptID := seedSubmittedAttempt(t, repo)

	if _, err := svc.GradeAttempt(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
		Points: []float64{40, 50},
	}); err != nil {
		t.Fatalf("first grade failed: %v", err)
	}

	_, err := svc.GradeAttempt(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
		Points: []float64{60, 40},
	})
	if !errors.Is(err, models.ErrAlreadyGraded) {
		t.Errorf("err = %v, want ErrAlreadyGraded", err)
	}
}

func TestUpdateGrade_RevisesExistingGrade(t *testing.T) {
	repo, _, _, svc := newGradingFixture(t)
	attemptID := seedSubmittedAttempt(t, repo)

	if _, err := svc.GradeAttempt(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
		Points: []float64{40, 50},
	}); err != nil {
		t.Fatalf("first grade failed: %v", err)
	}

	result, err := svc.UpdateGrade(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
		Points:   []float64{60, 40},
		Feedback: strPtr("revised after appeal"),
	})
	if err != nil {
		t.Fatalf("UpdateGrade failed: %v", err)
	}

	if result.Grade != 100 {
		t.Errorf("revised grade = %g, want 100", result.Grade)
	}
	if result.Warning != "" {
		t.Errorf("warning = %q, want none", result.Warning)
	}
	if result.Status != models.AttemptGraded {
		t.Errorf("status = %s, want %s", result.Status, models.AttemptGraded)
	}

	stored := repo.storedAttempt(t, attemptID)
	if stored.Feedback == nil || *stored.Feedback != "revised after appeal" {
		t.Errorf("stored feedback = %v", stored.Feedback)
	}
}

func TestGradeAttempt_NotSubmitted(t *testing.T) {
	repo, _, _, svc := newGradingFixture(t)
	attemptID := seedInProgressAttempt(t, repo, nil)

	_, err := svc.GradeAttempt(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
		Points: []float64{40, 50},
	})
	if !errors.Is(err, models.ErrNotSubmitted) {
		t.Errorf("err = %v, want ErrNotSubmitted", err)
	}
}

func TestGradeAttempt_StudentForbidden(t *testing.T) {
	repo, _, _, svc := newGradingFixture(t)
	attemptID := seedSubmittedAttempt(t, repo)

	_, err := svc.GradeAttempt(context.Background(), attemptID, testStudentID, &GradeAttemptRequest{
		Points: []float64{40, 50},
	})
	if !errors.Is(err, models.ErrForbiddenResource) {
		t.Errorf("err = %v, want ErrForbiddenResource", err)
	}
}

func TestGradeAttempt_PointVectorValidation(t *testing.T) {
	repo, _, _, svc := newGradingFixture(t)
	attemptID := seedSubmittedAttempt(t, repo)

	tests := []struct {
		name   string
		points []float64
	}{
		{"length mismatch", []float64{100}},
		{"negative points", []float64{-5, 50}},
		{"single entry above 100", []float64{150, 0}},
		{"total above cap", []float64{70, 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GradeAttempt(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
				Points: tt.points,
			})
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Errorf("err = %v, want validation errors", err)
			}
		})
	}

	// None of the rejected vectors may have graded the attempt.
	stored := repo.storedAttempt(t, attemptID)
	if stored.Status != models.AttemptSubmitted {
		t.Errorf("status = %s, want %s", stored.Status, models.AttemptSubmitted)
	}
}

func TestGradeAttempt_ConcurrentModification(t *testing.T) {
	repo, _, _, svc := newGradingFixture(t)
	attemptID := seedSubmittedAttempt(t, repo)
	repo.failNextUpdate = true

	_, err := svc.GradeAttempt(context.Background(), attemptID, testTeacherID, &GradeAttemptRequest{
		Points: []float64{40, 50},
	})
	if !errors.Is(err, models.ErrConcurrentModification) {
		t.Errorf("err = %v, want ErrConcurrentModification", err)
	}
}
