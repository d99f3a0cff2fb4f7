package models

import (
	"errors"
	"testing"
	"time"
)

var testClock = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func inProgressAttempt(t *testing.T, answers []Answer) *Attempt {
	t.Helper()

	started := testClock
	attempt, err := ReconstituteAttempt(AttemptSnapshot{
		ID:        1,
		QuizID:    10,
		StudentID: "student-1",
		Status:    AttemptInProgress,
		Answers:   answers,
		StartedAt: &started,
		Version:   3,
	})
	if err != nil {
		t.Fatalf("reconstitute failed: %v", err)
	}
	return attempt
}

func TestAttemptStart(t *testing.T) {
	t.Run("from not started", func(t *testing.T) {
		attempt := NewAttempt(10, "student-1")
		if err := attempt.Start(testClock); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if attempt.Status != AttemptInProgress {
			t.Errorf("status = %s, want %s", attempt.Status, AttemptInProgress)
		}
		if attempt.StartedAt == nil || !attempt.StartedAt.Equal(testClock) {
			t.Errorf("startedAt = %v, want %v", attempt.StartedAt, testClock)
		}
		if attempt.SubmittedAt != nil {
			t.Errorf("submittedAt should stay nil while in progress")
		}
	})

	t.Run("twice fails", func(t *testing.T) {
		attempt := NewAttempt(10, "student-1")
		if err := attempt.Start(testClock); err != nil {
			t.Fatal(err)
		}
		if err := attempt.Start(testClock.Add(time.Minute)); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
		}
	})
}

func TestAttemptSaveAnswers(t *testing.T) {
	t.Run("only while in progress", func(t *testing.T) {
		attempt := NewAttempt(10, "student-1")
		err := attempt.SaveAnswers([]Answer{{QuestionIndex: 0, SelectedOption: intPtr(1)}})
		if !errors.Is(err, ErrNotInProgress) {
			t.Errorf("SaveAnswers() on unstarted attempt error = %v, want ErrNotInProgress", err)
		}
	})

	t.Run("last write wins per question index", func(t *testing.T) {
		attempt := inProgressAttempt(t, nil)

		writes := [][]Answer{
			{{QuestionIndex: 0, SelectedOption: intPtr(1)}, {QuestionIndex: 1, Text: strPtr("draft")}},
			{{QuestionIndex: 0, SelectedOption: intPtr(2)}},
			{{QuestionIndex: 1, Text: strPtr("final essay")}, {QuestionIndex: 1, Text: strPtr("really final")}},
		}
		for _, w := range writes {
			if err := attempt.SaveAnswers(w); err != nil {
				t.Fatalf("SaveAnswers() error = %v", err)
			}
		}

		answers, err := attempt.AnswerList()
		if err != nil {
			t.Fatal(err)
		}
		if len(answers) != 2 {
			t.Fatalf("answer count = %d, want 2", len(answers))
		}
		if answers[0].QuestionIndex != 0 || *answers[0].SelectedOption != 2 {
			t.Errorf("answer[0] = %+v, want question 0 option 2", answers[0])
		}
		if answers[1].QuestionIndex != 1 || *answers[1].Text != "really final" {
			t.Errorf("answer[1] = %+v, want question 1 text %q", answers[1], "really final")
		}
	})
}

func TestAttemptSubmit(t *testing.T) {
	t.Run("manual submit replaces answers", func(t *testing.T) {
		attempt := inProgressAttempt(t, []Answer{{QuestionIndex: 0, SelectedOption: intPtr(0)}})

		final := []Answer{{QuestionIndex: 0, SelectedOption: intPtr(3)}, {QuestionIndex: 1, Text: strPtr("done")}}
		submittedAt := testClock.Add(20 * time.Minute)
		if err := attempt.Submit(final, submittedAt, false); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		if attempt.Status != AttemptSubmitted {
			t.Errorf("status = %s, want %s", attempt.Status, AttemptSubmitted)
		}
		if attempt.SubmittedAt == nil || !attempt.SubmittedAt.Equal(submittedAt) {
			t.Errorf("submittedAt = %v, want %v", attempt.SubmittedAt, submittedAt)
		}
		if attempt.AutoSubmitted {
			t.Errorf("manual submit must not set autoSubmitted")
		}
		answers, _ := attempt.AnswerList()
		if len(answers) != 2 || *answers[0].SelectedOption != 3 {
			t.Errorf("final answers not applied: %+v", answers)
		}
	})

	t.Run("submit twice fails", func(t *testing.T) {
		attempt := inProgressAttempt(t, nil)
		if err := attempt.Submit(nil, testClock, false); err != nil {
			t.Fatal(err)
		}
		if err := attempt.Submit(nil, testClock, false); !errors.Is(err, ErrNotInProgress) {
			t.Errorf("second Submit() error = %v, want ErrNotInProgress", err)
		}
	})
}

func TestAttemptAutoSubmitIdempotent(t *testing.T) {
	saved := []Answer{{QuestionIndex: 0, SelectedOption: intPtr(1)}}
	attempt := inProgressAttempt(t, saved)

	deadline := testClock.Add(60 * time.Minute)
	if err := attempt.AutoSubmit(deadline); err != nil {
		t.Fatalf("first AutoSubmit() error = %v", err)
	}

	firstSubmittedAt := *attempt.SubmittedAt

	// A second invocation, as after a crash-recovery retry, must be a
	// no-op success leaving the terminal state untouched.
	if err := attempt.AutoSubmit(deadline.Add(5 * time.Minute)); err != nil {
		t.Fatalf("second AutoSubmit() error = %v", err)
	}

	if attempt.Status != AttemptSubmitted {
		t.Errorf("status = %s, want %s", attempt.Status, AttemptSubmitted)
	}
	if !attempt.SubmittedAt.Equal(firstSubmittedAt) {
		t.Errorf("submittedAt moved on retry: %v vs %v", attempt.SubmittedAt, firstSubmittedAt)
	}
	if !attempt.AutoSubmitted {
		t.Errorf("autoSubmitted flag not recorded")
	}

	answers, _ := attempt.AnswerList()
	if len(answers) != 1 || *answers[0].SelectedOption != 1 {
		t.Errorf("auto-submit must freeze the last auto-saved answers, got %+v", answers)
	}

	// Idempotence also holds on a graded attempt.
	if err := attempt.SetGrade(80, nil, "teacher-1", deadline.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := attempt.AutoSubmit(deadline.Add(2 * time.Hour)); err != nil {
		t.Fatalf("AutoSubmit() on graded attempt error = %v", err)
	}
	if attempt.Status != AttemptGraded {
		t.Errorf("status = %s, want %s", attempt.Status, AttemptGraded)
	}
}

func TestAttemptGrading(t *testing.T) {
	submitted := func(t *testing.T) *Attempt {
		attempt := inProgressAttempt(t, nil)
		if err := attempt.Submit(nil, testClock.Add(30*time.Minute), false); err != nil {
			t.Fatal(err)
		}
		return attempt
	}

	t.Run("set grade on submitted attempt", func(t *testing.T) {
		attempt := submitted(t)
		gradedAt := testClock.Add(24 * time.Hour)
		if err := attempt.SetGrade(90, strPtr("good work"), "teacher-1", gradedAt); err != nil {
			t.Fatalf("SetGrade() error = %v", err)
		}
		if attempt.Status != AttemptGraded {
			t.Errorf("status = %s, want %s", attempt.Status, AttemptGraded)
		}
		if attempt.Grade == nil || *attempt.Grade != 90 {
			t.Errorf("grade = %v, want 90", attempt.Grade)
		}
		if attempt.GradedBy == nil || *attempt.GradedBy != "teacher-1" {
			t.Errorf("gradedBy = %v, want teacher-1", attempt.GradedBy)
		}
	})

	t.Run("set grade before submission fails", func(t *testing.T) {
		attempt := inProgressAttempt(t, nil)
		if err := attempt.SetGrade(50, nil, "teacher-1", testClock); !errors.Is(err, ErrNotSubmitted) {
			t.Errorf("SetGrade() error = %v, want ErrNotSubmitted", err)
		}
	})

	t.Run("set grade twice fails, update grade succeeds", func(t *testing.T) {
		attempt := submitted(t)
		if err := attempt.SetGrade(90, nil, "teacher-1", testClock); err != nil {
			t.Fatal(err)
		}
		if err := attempt.SetGrade(95, nil, "teacher-1", testClock); !errors.Is(err, ErrAlreadyGraded) {
			t.Errorf("second SetGrade() error = %v, want ErrAlreadyGraded", err)
		}
		if err := attempt.UpdateGrade(100, strPtr("regrade"), "teacher-2", testClock); err != nil {
			t.Fatalf("UpdateGrade() error = %v", err)
		}
		if *attempt.Grade != 100 || attempt.Status != AttemptGraded {
			t.Errorf("grade = %v status = %s after revision", *attempt.Grade, attempt.Status)
		}
	})

	t.Run("grade outside bounds rejected", func(t *testing.T) {
		attempt := submitted(t)
		if err := attempt.SetGrade(101, nil, "teacher-1", testClock); !errors.Is(err, ErrInvalidGrade) {
			t.Errorf("SetGrade(101) error = %v, want ErrInvalidGrade", err)
		}
		if err := attempt.SetGrade(-1, nil, "teacher-1", testClock); !errors.Is(err, ErrInvalidGrade) {
			t.Errorf("SetGrade(-1) error = %v, want ErrInvalidGrade", err)
		}
	})
}

func TestReconstituteRoundTrip(t *testing.T) {
	started := testClock
	submittedAt := testClock.Add(45 * time.Minute)
	snap := AttemptSnapshot{
		ID:            7,
		QuizID:        10,
		StudentID:     "student-9",
		Status:        AttemptSubmitted,
		Answers:       []Answer{{QuestionIndex: 0, Text: strPtr("essay")}},
		StartedAt:     &started,
		SubmittedAt:   &submittedAt,
		AutoSubmitted: true,
		Grade:         floatPtr(72.5),
		Version:       5,
	}

	attempt, err := ReconstituteAttempt(snap)
	if err != nil {
		t.Fatalf("ReconstituteAttempt() error = %v", err)
	}
	if attempt.Version != 5 || attempt.Status != AttemptSubmitted || !attempt.AutoSubmitted {
		t.Errorf("snapshot fields not carried over: %+v", attempt)
	}

	answers, err := attempt.AnswerList()
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 1 || *answers[0].Text != "essay" {
		t.Errorf("answers not rehydrated: %+v", answers)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AttemptStatus
		want     bool
	}{
		{AttemptNotStarted, AttemptInProgress, true},
		{AttemptInProgress, AttemptSubmitted, true},
		{AttemptSubmitted, AttemptGraded, true},
		{AttemptGraded, AttemptGraded, true},
		{AttemptNotStarted, AttemptSubmitted, false},
		{AttemptInProgress, AttemptGraded, false},
		{AttemptSubmitted, AttemptInProgress, false},
		{AttemptGraded, AttemptInProgress, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
