package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

// CachedCounter wraps a usage counter with a short-lived Redis cache so
// that feature gate checks do not hit PostgreSQL on every request.
//
// Cache failures fall through to the underlying counter: metering must
// keep working when Redis is down, it just gets slower. A stale count can
// briefly let one extra action through, which is no worse than the
// read-then-decide window the gate already has.
func CachedCounter(client redis.UniversalClient, feature subscription.Feature, ttl time.Duration, next subscription.UsageCounterFunc) subscription.UsageCounterFunc {
	if client == nil {
		panic("billing: redis client is required")
	}
	if next == nil {
		panic("billing: wrapped counter is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(ctx context.Context, userID uuid.UUID) (int64, error) {
		key := counterCacheKey(feature, userID)

		if cached, err := client.Get(ctx, key).Int64(); err == nil {
			return cached, nil
		}

		count, err := next(ctx, userID)
		if err != nil {
			return 0, err
		}

		// Best effort: a failed SET only costs the next call a recount.
		_ = client.Set(ctx, key, count, ttl).Err()
		return count, nil
	}
}

// InvalidateCounter drops the cached count for one user and feature.
// Call it after the gated action succeeds so the next check sees the new
// usage immediately instead of after the TTL.
func InvalidateCounter(ctx context.Context, client redis.UniversalClient, feature subscription.Feature, userID uuid.UUID) error {
	return client.Del(ctx, counterCacheKey(feature, userID)).Err()
}

func counterCacheKey(feature subscription.Feature, userID uuid.UUID) string {
	return fmt.Sprintf("usage:%s:%s", feature, userID)
}
