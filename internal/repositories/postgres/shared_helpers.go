package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuskit/quiz-service/internal/models"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountAttempts counts attempts for a quiz
func (h *SharedHelpers) CountAttempts(ctx context.Context, quizID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

// CountAttemptsByStatus counts attempts for a quiz by status
func (h *SharedHelpers) CountAttemptsByStatus(ctx context.Context, quizID uint, status models.AttemptStatus) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("quiz_id = ? AND status = ?", quizID, status).
		Count(&count).Error
	return count, err
}

// GetQuizBasicInfo loads a quiz without its questions, for checks that
// only need the timing columns.
func (h *SharedHelpers) GetQuizBasicInfo(ctx context.Context, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := h.db.WithContext(ctx).
		Select("id, course_id, time_limit_minutes, due_at").
		First(&quiz, quizID).Error
	return &quiz, err
}
