package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/campuskit/quiz-service/internal/cache"
	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	cache.InvalidateAttemptCache(ctx, a.cacheManager, attempt.ID, attempt.QuizID, attempt.StudentID)
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var attempt models.Attempt

	err := a.cacheManager.Attempt.CacheOrExecute(ctx, cacheKey, &attempt, cache.AttemptCacheConfig.TTL, func() (interface{}, error) {
		var dbAttempt models.Attempt
		if err := db.WithContext(ctx).First(&dbAttempt, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.ErrAttemptNotFound
			}
			return nil, fmt.Errorf("failed to get attempt: %w", err)
		}
		return &dbAttempt, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrAttemptNotFound) {
			return nil, models.ErrAttemptNotFound
		}
		return nil, err
	}

	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByQuizAndStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (*models.Attempt, error) {
	db := a.getDB(tx)
	cacheKey := fmt.Sprintf("quiz:%d:student:%s", quizID, studentID)
	var attempt models.Attempt

	err := a.cacheManager.Attempt.CacheOrExecute(ctx, cacheKey, &attempt, cache.AttemptCacheConfig.TTL, func() (interface{}, error) {
		var dbAttempt models.Attempt
		err := db.WithContext(ctx).
			Where("quiz_id = ? AND student_id = ?", quizID, studentID).
			Order("created_at DESC").
			First(&dbAttempt).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.ErrAttemptNotFound
			}
			return nil, fmt.Errorf("failed to get attempt by quiz and student: %w", err)
		}
		return &dbAttempt, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrAttemptNotFound) {
			return nil, models.ErrAttemptNotFound
		}
		return nil, err
	}

	return &attempt, nil
}

// Update writes the attempt back with a compare-and-swap on the version
// column. The caller's in-memory version must match the stored row; on
// success the version is bumped both in the database and on the passed
// attempt. Zero affected rows with an existing row means another request
// won the race.
func (a *AttemptPostgreSQL) Update(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	db := a.getDB(tx)
	loadedVersion := attempt.Version

	result := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND version = ?", attempt.ID, loadedVersion).
		Updates(map[string]interface{}{
			"status":         attempt.Status,
			"answers":        attempt.Answers,
			"started_at":     attempt.StartedAt,
			"submitted_at":   attempt.SubmittedAt,
			"auto_submitted": attempt.AutoSubmitted,
			"grade":          attempt.Grade,
			"feedback":       attempt.Feedback,
			"graded_by":      attempt.GradedBy,
			"graded_at":      attempt.GradedAt,
			"version":        loadedVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update attempt: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Attempt{}).Where("id = ?", attempt.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check attempt existence: %w", err)
		}
		if count == 0 {
			return models.ErrAttemptNotFound
		}
		return models.ErrConcurrentModification
	}

	attempt.Version = loadedVersion + 1
	cache.InvalidateAttemptCache(ctx, a.cacheManager, attempt.ID, attempt.QuizID, attempt.StudentID)
	return nil
}

func (a *AttemptPostgreSQL) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt
	var total int64

	query := db.WithContext(ctx).Model(&models.Attempt{}).Where("quiz_id = ?", quizID)
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	query = a.applyPaginationAndSort(query, filters)
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (a *AttemptPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "created_at", "submitted_at", "grade":
	default:
		sortBy = "created_at"
	}

	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, order))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
