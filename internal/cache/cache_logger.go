package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateAttemptCache drops every cached view of one attempt after a
// write, including the quiz+student lookup used by start-or-resume.
func InvalidateAttemptCache(ctx context.Context, cm *CacheManager, attemptID, quizID uint, studentID string) {
	SafeDelete(ctx, cm.Attempt,
		fmt.Sprintf("id:%d", attemptID),
		fmt.Sprintf("quiz:%d:student:%s", quizID, studentID))
	SafeInvalidatePattern(ctx, cm.Attempt, fmt.Sprintf("quiz:%d:list:*", quizID))
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("quiz:%d:submissions", quizID))
}

// InvalidateQuizCache drops cached quiz definitions.
func InvalidateQuizCache(ctx context.Context, cm *CacheManager, quizID uint) {
	SafeDelete(ctx, cm.Quiz, fmt.Sprintf("id:%d", quizID))
	SafeInvalidatePattern(ctx, cm.Attempt, fmt.Sprintf("quiz:%d:*", quizID))
}
