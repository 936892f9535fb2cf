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

// InvalidateDirectionCache drops a direction's cached catalog entries after
// an admin edit.
func InvalidateDirectionCache(ctx context.Context, cm *CacheManager, directionID string) {
	SafeDelete(ctx, cm.Direction,
		fmt.Sprintf("id:%s", directionID),
		fmt.Sprintf("details:%s", directionID))
	SafeInvalidatePattern(ctx, cm.Direction, "list:*")
}

// InvalidateUserCache drops a user's cached record after grants or blocks.
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%s", userID))
}

// InvalidateLeaderboardCache drops the cached ranking after a new result.
func InvalidateLeaderboardCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Leaderboard, "*")
	SafeInvalidatePattern(ctx, cm.Stats, "platform:*")
}
