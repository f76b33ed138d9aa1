package votes_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloras/starboard/internal/core/cooldown"
	"github.com/veloras/starboard/internal/core/settings"
	"github.com/veloras/starboard/internal/core/votes"
	"github.com/veloras/starboard/internal/database/types"
	"go.uber.org/zap"
)

type fakeStore struct {
	counts  map[[2]uint64]int
	added   int
	removed int
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: make(map[[2]uint64]int)}
}

func (f *fakeStore) CountVotes(_ context.Context, messageID, starboardID uint64) (int, error) {
	return f.counts[[2]uint64{messageID, starboardID}], nil
}

func (f *fakeStore) AddVotes(_ context.Context, _, _ uint64, starboardIDs []uint64, _ uint64) error {
	f.added += len(starboardIDs)
	return nil
}

func (f *fakeStore) RemoveVotes(_ context.Context, _, _ uint64, starboardIDs []uint64) error {
	f.removed += len(starboardIDs)
	return nil
}

func testBucket(t *testing.T) *cooldown.Bucket {
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

	return cooldown.NewBucket(client, zap.NewNop())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	msg := &types.Message{ID: 1, GuildID: 10, ChannelID: 20, AuthorID: 30}

	tests := []struct {
		name       string
		configure  func(sb *types.Starboard)
		message    *types.Message
		voterID    uint64
		wantValid  bool
		wantReason string
	}{
		{
			name:      "plain vote is valid",
			message:   msg,
			voterID:   40,
			wantValid: true,
		},
		{
			name:       "self vote rejected by default",
			message:    msg,
			voterID:    30,
			wantReason: "self votes are not allowed",
		},
		{
			name:      "self vote allowed when enabled",
			configure: func(sb *types.Starboard) { sb.SelfVote = true },
			message:   msg,
			voterID:   30,
			wantValid: true,
		},
		{
			name:      "bot author allowed by default",
			message:   &types.Message{ID: 1, AuthorID: 30, AuthorIsBot: true},
			voterID:   40,
			wantValid: true,
		},
		{
			name:       "bot author rejected when disallowed",
			configure:  func(sb *types.Starboard) { sb.AllowBots = false },
			message:    &types.Message{ID: 1, AuthorID: 30, AuthorIsBot: true},
			voterID:    40,
			wantReason: "bot messages cannot be voted on",
		},
		{
			name:       "trashed message rejected",
			message:    &types.Message{ID: 1, AuthorID: 30, Trashed: true},
			voterID:    40,
			wantReason: "message is trashed",
		},
		{
			name:       "frozen message rejected",
			message:    &types.Message{ID: 1, AuthorID: 30, Frozen: true},
			voterID:    40,
			wantReason: "message is frozen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sb := types.NewStarboard(100, 10)
			if tt.configure != nil {
				tt.configure(sb)
			}

			tally := votes.NewTally(newFakeStore(), nil, zap.NewNop())

			verdict, err := tally.Validate(t.Context(), settings.Resolve(sb, nil), tt.message, tt.voterID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, verdict.Valid)
			assert.Equal(t, tt.wantReason, verdict.Reason)
		})
	}
}

func TestValidateCooldown(t *testing.T) {
	t.Parallel()

	sb := types.NewStarboard(100, 10)
	sb.CooldownEnabled = true
	sb.CooldownCount = 2
	sb.CooldownPeriod = 60

	msg := &types.Message{ID: 1, GuildID: 10, AuthorID: 30}
	tally := votes.NewTally(newFakeStore(), testBucket(t), zap.NewNop())
	cfg := settings.Resolve(sb, nil)

	for range 2 {
		verdict, err := tally.Validate(t.Context(), cfg, msg, 40)
		require.NoError(t, err)
		assert.True(t, verdict.Valid)
	}

	verdict, err := tally.Validate(t.Context(), cfg, msg, 40)
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, "you are voting too fast", verdict.Reason)

	// A different voter has their own window.
	verdict, err = tally.Validate(t.Context(), cfg, msg, 41)
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
}

func TestCountAddRemove(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.counts[[2]uint64{1, 100}] = 3

	tally := votes.NewTally(store, nil, zap.NewNop())

	count, err := tally.Count(t.Context(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, tally.Add(t.Context(), 1, 40, []uint64{100, 101}, 30))
	assert.Equal(t, 2, store.added)

	require.NoError(t, tally.Remove(t.Context(), 1, 40, []uint64{100}))
	assert.Equal(t, 1, store.removed)
}
