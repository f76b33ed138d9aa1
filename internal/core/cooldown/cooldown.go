// Package cooldown rate-limits how quickly a single member can
// accumulate votes on one starboard, using a fixed window held in
// Redis so every shard observes the same bucket.
package cooldown

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// KeyPrefix is the prefix for the cooldown keys in Redis.
const KeyPrefix = "cooldown"

// Atomic increment and check. The window key expires on its own, so a
// quiet bucket costs nothing.
const tryScript = `
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	if count > tonumber(ARGV[1]) then
		return 0
	end
	return 1
`

// Bucket tracks vote attempts per member per starboard.
type Bucket struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewBucket creates a Bucket on the given Redis client.
func NewBucket(client rueidis.Client, logger *zap.Logger) *Bucket {
	return &Bucket{
		client: client,
		logger: logger.Named("cooldown"),
	}
}

// Try records one vote attempt by userID on starboardID and reports
// whether it fits inside the window of capacity attempts per
// periodSeconds. Attempts over capacity are still counted, so a member
// who keeps spamming keeps their window full.
func (b *Bucket) Try(ctx context.Context, starboardID, userID uint64, capacity, periodSeconds int) (bool, error) {
	key := fmt.Sprintf("%s:%d:%d", KeyPrefix, starboardID, userID)

	resp := b.client.Do(ctx, b.client.B().Eval().
		Script(tryScript).
		Numkeys(1).
		Key(key).
		Arg(fmt.Sprintf("%d", capacity)).
		Arg(fmt.Sprintf("%d", periodSeconds)).
		Build())
	if resp.Error() != nil {
		return false, fmt.Errorf("failed to check cooldown: %w", resp.Error())
	}

	allowed, err := resp.AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to parse cooldown response: %w", err)
	}

	if allowed != 1 {
		b.logger.Debug("Vote attempt over cooldown",
			zap.Uint64("starboardID", starboardID),
			zap.Uint64("userID", userID))

		return false, nil
	}

	return true, nil
}
