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

type QuizPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var quiz models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		err := db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			First(&dbQuiz, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.ErrQuizNotFound
			}
			return nil, fmt.Errorf("failed to get quiz: %w", err)
		}
		return &dbQuiz, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrQuizNotFound) {
			return nil, models.ErrQuizNotFound
		}
		return nil, err
	}

	return &quiz, nil
}

func (q *QuizPostgreSQL) HasSubmissions(ctx context.Context, tx *gorm.DB, quizID uint) (bool, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("quiz:%d:submissions", quizID)

	var has bool
	err := q.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &has, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		err := db.WithContext(ctx).
			Model(&models.Attempt{}).
			Where("quiz_id = ? AND status IN ?", quizID, []models.AttemptStatus{models.AttemptSubmitted, models.AttemptGraded}).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count submissions: %w", err)
		}
		return count > 0, nil
	})
	return has, err
}
