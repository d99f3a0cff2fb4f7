package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "not_started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
)

// allowedTransitions encodes the legal lifecycle moves. GRADED → GRADED
// covers grade revision.
var allowedTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptNotStarted: {AttemptInProgress},
	AttemptInProgress: {AttemptSubmitted},
	AttemptSubmitted:  {AttemptGraded},
	AttemptGraded:     {AttemptGraded},
}

// CanTransition reports whether moving an attempt from one status to
// another is legal.
func CanTransition(from, to AttemptStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Answer is one student response, keyed by the question's position in the
// quiz. Exactly one of SelectedOption (MCQ) or Text (essay) is set.
type Answer struct {
	QuestionIndex  int     `json:"question_index"`
	SelectedOption *int    `json:"selected_option,omitempty"`
	Text           *string `json:"text,omitempty"`
}

// Attempt is one student's run at one quiz. All lifecycle transitions go
// through the methods below; timestamps come from the caller's clock so
// the entity itself never reads ambient time. Version backs optimistic
// locking in the repository layer.
type Attempt struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	QuizID    uint          `json:"quiz_id" gorm:"not null;index:idx_attempts_quiz_student"`
	StudentID string        `json:"student_id" gorm:"not null;size:255;index:idx_attempts_quiz_student"`
	Status    AttemptStatus `json:"status" gorm:"not null;default:not_started;index"`

	// Answers is the JSONB-encoded []Answer, at most one entry per
	// question index.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	// Timing
	StartedAt   *time.Time `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`

	// AutoSubmitted records whether the system closed the attempt on
	// expiry rather than the student submitting it.
	AutoSubmitted bool `json:"auto_submitted"`

	// Grading
	Grade    *float64   `json:"grade"`
	Feedback *string    `json:"feedback" gorm:"type:text"`
	GradedBy *string    `json:"graded_by" gorm:"size:255"`
	GradedAt *time.Time `json:"graded_at"`

	Version int64 `json:"version" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Quiz Quiz `json:"-" gorm:"foreignKey:QuizID"`
}

func (Attempt) TableName() string {
	return "quiz_attempts"
}

// NewAttempt creates an empty, unstarted attempt.
func NewAttempt(quizID uint, studentID string) *Attempt {
	return &Attempt{
		QuizID:    quizID,
		StudentID: studentID,
		Status:    AttemptNotStarted,
		Version:   1,
	}
}

// AttemptSnapshot is the full explicit state used to rehydrate an attempt
// from storage or to seed one in tests, so no field ever needs to be
// force-written from outside.
type AttemptSnapshot struct {
	ID            uint
	QuizID        uint
	StudentID     string
	Status        AttemptStatus
	Answers       []Answer
	StartedAt     *time.Time
	SubmittedAt   *time.Time
	AutoSubmitted bool
	Grade         *float64
	Feedback      *string
	GradedBy      *string
	GradedAt      *time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReconstituteAttempt rebuilds an attempt from a snapshot without running
// any transition checks.
func ReconstituteAttempt(snap AttemptSnapshot) (*Attempt, error) {
	attempt := &Attempt{
		ID:            snap.ID,
		QuizID:        snap.QuizID,
		StudentID:     snap.StudentID,
		Status:        snap.Status,
		StartedAt:     snap.StartedAt,
		SubmittedAt:   snap.SubmittedAt,
		AutoSubmitted: snap.AutoSubmitted,
		Grade:         snap.Grade,
		Feedback:      snap.Feedback,
		GradedBy:      snap.GradedBy,
		GradedAt:      snap.GradedAt,
		Version:       snap.Version,
		CreatedAt:     snap.CreatedAt,
		UpdatedAt:     snap.UpdatedAt,
	}
	if err := attempt.setAnswerList(snap.Answers); err != nil {
		return nil, err
	}
	return attempt, nil
}

// IsOwnedBy reports whether the attempt belongs to the given student.
func (a *Attempt) IsOwnedBy(studentID string) bool {
	return a.StudentID == studentID
}

// IsClosed reports whether the attempt reached a terminal status.
func (a *Attempt) IsClosed() bool {
	return a.Status == AttemptSubmitted || a.Status == AttemptGraded
}

// AnswerList decodes the stored answer set.
func (a *Attempt) AnswerList() ([]Answer, error) {
	if len(a.Answers) == 0 {
		return nil, nil
	}

	var answers []Answer
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *Attempt) setAnswerList(answers []Answer) error {
	if answers == nil {
		a.Answers = nil
		return nil
	}

	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	a.Answers = datatypes.JSON(data)
	return nil
}

// Start begins the attempt. Legal only from NOT_STARTED; the due-date
// gate is the orchestrator's job and is checked before this is called.
func (a *Attempt) Start(now time.Time) error {
	if !CanTransition(a.Status, AttemptInProgress) {
		return ErrAlreadyStarted
	}

	startedAt := now
	a.StartedAt = &startedAt
	a.Status = AttemptInProgress
	return nil
}

// SaveAnswers merges the incoming answers into the stored set, last write
// wins per question index. Legal only while IN_PROGRESS. Expiry is not
// checked here — the orchestrator rejects late writes so this stays pure.
func (a *Attempt) SaveAnswers(incoming []Answer) error {
	if a.Status != AttemptInProgress {
		return ErrNotInProgress
	}

	current, err := a.AnswerList()
	if err != nil {
		return err
	}
	return a.setAnswerList(mergeAnswers(current, incoming))
}

// Submit closes the attempt. When answers are provided they replace the
// stored set; otherwise whatever was last auto-saved stands. The
// autoSubmitted flag is recorded for audit and does not change the
// resulting state.
func (a *Attempt) Submit(answers []Answer, now time.Time, autoSubmitted bool) error {
	if a.Status != AttemptInProgress {
		return ErrNotInProgress
	}

	if len(answers) > 0 {
		if err := a.setAnswerList(dedupeAnswers(answers)); err != nil {
			return err
		}
	}

	submittedAt := now
	a.SubmittedAt = &submittedAt
	a.AutoSubmitted = autoSubmitted
	a.Status = AttemptSubmitted
	return nil
}

// AutoSubmit closes an expired attempt with the answers already saved.
// Idempotent: on an attempt that is already closed it is a no-op success,
// so the orchestrator can safely race with itself across retries.
func (a *Attempt) AutoSubmit(now time.Time) error {
	if a.IsClosed() {
		return nil
	}
	return a.Submit(nil, now, true)
}

// SetGrade applies the first grade. Fails once the attempt is GRADED;
// revisions go through UpdateGrade.
func (a *Attempt) SetGrade(grade float64, feedback *string, graderID string, now time.Time) error {
	if a.Status == AttemptGraded {
		return ErrAlreadyGraded
	}
	return a.applyGrade(grade, feedback, graderID, now)
}

// UpdateGrade revises the grade. Always permitted once the attempt has
// been submitted, including on an already graded attempt.
func (a *Attempt) UpdateGrade(grade float64, feedback *string, graderID string, now time.Time) error {
	return a.applyGrade(grade, feedback, graderID, now)
}

func (a *Attempt) applyGrade(grade float64, feedback *string, graderID string, now time.Time) error {
	if a.Status != AttemptSubmitted && a.Status != AttemptGraded {
		return ErrNotSubmitted
	}
	if grade < 0 || grade > 100 {
		return ErrInvalidGrade
	}

	gradedAt := now
	a.Grade = &grade
	a.Feedback = feedback
	a.GradedBy = &graderID
	a.GradedAt = &gradedAt
	a.Status = AttemptGraded
	return nil
}

// mergeAnswers overlays incoming onto current, keeping first-seen order
// and at most one entry per question index.
func mergeAnswers(current, incoming []Answer) []Answer {
	merged := make([]Answer, 0, len(current)+len(incoming))
	position := make(map[int]int, len(current))

	for _, ans := range current {
		if i, ok := position[ans.QuestionIndex]; ok {
			merged[i] = ans
			continue
		}
		position[ans.QuestionIndex] = len(merged)
		merged = append(merged, ans)
	}
	for _, ans := range incoming {
		if i, ok := position[ans.QuestionIndex]; ok {
			merged[i] = ans
			continue
		}
		position[ans.QuestionIndex] = len(merged)
		merged = append(merged, ans)
	}
	return merged
}

func dedupeAnswers(answers []Answer) []Answer {
	return mergeAnswers(nil, answers)
}
