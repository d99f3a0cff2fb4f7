package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionKind string

const (
	QuestionMCQ   QuestionKind = "mcq"
	QuestionEssay QuestionKind = "essay"
)

// Quiz is read-side input for the attempt lifecycle: authored elsewhere,
// consumed here. Questions are ordered by Position.
type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	CourseID    uint    `json:"course_id" gorm:"not null;index"`
	Title       string  `json:"title" gorm:"not null;size:255"`
	Description *string `json:"description" gorm:"type:text"`

	// Timing
	TimeLimitMinutes int        `json:"time_limit_minutes" gorm:"not null" validate:"required,quiz_time_limit"`
	DueAt            *time.Time `json:"due_at"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// IsPastDue reports whether the quiz no longer accepts new attempts.
// A nil due date means the quiz stays open indefinitely.
func (q *Quiz) IsPastDue(now time.Time) bool {
	return q.DueAt != nil && now.After(*q.DueAt)
}

// QuestionCount returns the number of questions in the quiz.
func (q *Quiz) QuestionCount() int {
	return len(q.Questions)
}

// Question is one entry of a quiz. MCQ questions carry an ordered option
// list (JSONB) and the index of the correct option; essay questions carry
// neither.
type Question struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	QuizID   uint         `json:"quiz_id" gorm:"not null;index"`
	Position int          `json:"position" gorm:"not null"`
	Kind     QuestionKind `json:"kind" gorm:"not null;size:16" validate:"required,oneof=mcq essay"`
	Text     string       `json:"text" gorm:"type:text;not null" validate:"required"`

	// MCQ only
	Options            datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`
	CorrectOptionIndex *int           `json:"correct_option_index,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// OptionList decodes the JSONB option column. Returns nil for essay
// questions.
func (q *Question) OptionList() ([]string, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}

	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// SetOptionList encodes the option list into the JSONB column.
func (q *Question) SetOptionList(options []string) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.Options = datatypes.JSON(data)
	return nil
}
