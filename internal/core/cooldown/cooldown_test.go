package cooldown_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloras/starboard/internal/core/cooldown"
	"go.uber.org/zap"
)

func setupTest(t *testing.T) (*cooldown.Bucket, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return cooldown.NewBucket(client, zap.NewNop()), mr
}

func TestTryWithinCapacity(t *testing.T) {
	t.Parallel()

	bucket, _ := setupTest(t)
	ctx := t.Context()

	for range 3 {
		allowed, err := bucket.Try(ctx, 1, 10, 3, 60)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestTryOverCapacity(t *testing.T) {
	t.Parallel()

	bucket, _ := setupTest(t)
	ctx := t.Context()

	for range 2 {
		allowed, err := bucket.Try(ctx, 1, 10, 2, 60)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := bucket.Try(ctx, 1, 10, 2, 60)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTryWindowExpires(t *testing.T) {
	t.Parallel()

	bucket, mr := setupTest(t)
	ctx := t.Context()

	allowed, err := bucket.Try(ctx, 1, 10, 1, 30)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = bucket.Try(ctx, 1, 10, 1, 30)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(31 * time.Second)

	allowed, err = bucket.Try(ctx, 1, 10, 1, 30)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestTryIsolatesBuckets(t *testing.T) {
	t.Parallel()

	bucket, _ := setupTest(t)
	ctx := t.Context()

	allowed, err := bucket.Try(ctx, 1, 10, 1, 60)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Other members and other starboards have their own windows.
	allowed, err = bucket.Try(ctx, 1, 11, 1, 60)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = bucket.Try(ctx, 2, 10, 1, 60)
	require.NoError(t, err)
	assert.True(t, allowed)
}
