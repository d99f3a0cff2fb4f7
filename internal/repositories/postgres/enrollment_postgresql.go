package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/campuskit/quiz-service/internal/cache"
	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *EnrollmentPostgreSQL) IsEnrolled(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (bool, error) {
	db := e.getDB(tx)
	cacheKey := fmt.Sprintf("course:%d:student:%s", courseID, studentID)

	var enrolled bool
	err := e.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &enrolled, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		err := db.WithContext(ctx).
			Model(&models.Enrollment{}).
			Where("course_id = ? AND student_id = ? AND status = ?", courseID, studentID, models.EnrollmentActive).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		return count > 0, nil
	})
	return enrolled, err
}
