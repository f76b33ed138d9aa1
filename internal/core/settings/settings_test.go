package settings_test

import (
	"context"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloras/starboard/internal/core/settings"
	"github.com/veloras/starboard/internal/database/types"
	"github.com/veloras/starboard/internal/setup/config"
)

func testLimits() *config.Limits {
	return &config.Limits{
		MinRequired:         1,
		MaxRequired:         500,
		MinRequiredRemove:   -1,
		MaxRequiredRemove:   495,
		MaxCooldownPeriod:   60,
		MaxCooldownCount:    60,
		MaxWebhookNameLen:   32,
		MaxWebhookAvatarLen: 512,
	}
}

func TestResolvedValue(t *testing.T) {
	t.Parallel()

	sb := types.NewStarboard(100, 1)
	sb.Required = 3

	t.Run("base value without overrides", func(t *testing.T) {
		t.Parallel()

		r := settings.Resolve(sb, nil)
		assert.Equal(t, 3, r.Required())
		assert.Equal(t, "Starboard", r.WebhookName())
	})

	t.Run("first matching override wins", func(t *testing.T) {
		t.Parallel()

		first := &types.Override{Settings: map[string]any{"required": float64(1)}}
		second := &types.Override{Settings: map[string]any{"required": float64(2)}}

		r := settings.Resolve(sb, []*types.Override{first, second})
		assert.Equal(t, 1, r.Required())
	})

	t.Run("later override fills fields earlier ones omit", func(t *testing.T) {
		t.Parallel()

		first := &types.Override{Settings: map[string]any{"required": float64(1)}}
		second := &types.Override{Settings: map[string]any{"self_vote": true}}

		r := settings.Resolve(sb, []*types.Override{first, second})
		assert.Equal(t, 1, r.Required())
		assert.True(t, r.SelfVote())
	})

	t.Run("override delta string for optional field", func(t *testing.T) {
		t.Parallel()

		ov := &types.Override{Settings: map[string]any{"display_emoji": "🌟"}}

		r := settings.Resolve(sb, []*types.Override{ov})
		require.NotNil(t, r.DisplayEmoji())
		assert.Equal(t, "🌟", *r.DisplayEmoji())
	})

	t.Run("unknown field panics", func(t *testing.T) {
		t.Parallel()

		r := settings.Resolve(sb, nil)
		assert.Panics(t, func() { r.Value("no_such_field") })
	})
}

type fakeChain struct {
	ids []snowflake.ID
}

func (f *fakeChain) QualifiedChannelIDs(_ context.Context, _ snowflake.ID) ([]snowflake.ID, error) {
	return f.ids, nil
}

type fakeOverrideSource struct {
	gotChannelIDs []uint64
	overrides     []*types.Override
}

func (f *fakeOverrideSource) GetOverridesForChannels(
	_ context.Context, _ uint64, channelIDs []uint64,
) ([]*types.Override, error) {
	f.gotChannelIDs = channelIDs
	return f.overrides, nil
}

func TestForChannel(t *testing.T) {
	t.Parallel()

	t.Run("category override applies to child channel", func(t *testing.T) {
		t.Parallel()

		sb := types.NewStarboard(100, 1)
		chain := &fakeChain{ids: []snowflake.ID{50, 40}} // channel, then its category
		source := &fakeOverrideSource{
			overrides: []*types.Override{
				{ChannelIDs: []uint64{40}, Settings: map[string]any{"required": float64(7)}},
			},
		}

		r, err := settings.ForChannel(t.Context(), chain, source, sb, 50)
		require.NoError(t, err)

		assert.Equal(t, []uint64{50, 40}, source.gotChannelIDs)
		assert.Equal(t, 7, r.Required())
	})

	t.Run("no overrides falls back to base", func(t *testing.T) {
		t.Parallel()

		sb := types.NewStarboard(100, 1)
		chain := &fakeChain{ids: []snowflake.ID{50}}
		source := &fakeOverrideSource{}

		r, err := settings.ForChannel(t.Context(), chain, source, sb, 50)
		require.NoError(t, err)
		assert.Equal(t, sb.Required, r.Required())
	})
}

func TestApplyChanges(t *testing.T) {
	t.Parallel()

	sb := types.NewStarboard(100, 1)

	settings.ApplyChanges(sb, map[string]any{
		"required":       float64(10),
		"self_vote":      true,
		"display_emoji":  "⭐",
		"upvote_emojis":  []any{"⭐", "🌟"},
		"webhook_avatar": nil,
	})

	assert.Equal(t, 10, sb.Required)
	assert.True(t, sb.SelfVote)
	require.NotNil(t, sb.DisplayEmoji)
	assert.Equal(t, "⭐", *sb.DisplayEmoji)
	assert.Equal(t, []string{"⭐", "🌟"}, sb.UpvoteEmojis)
	assert.Nil(t, sb.WebhookAvatar)

	assert.Panics(t, func() {
		settings.ApplyChanges(sb, map[string]any{"bogus": 1})
	})
}

func TestValidateChanges(t *testing.T) {
	t.Parallel()

	limits := testLimits()

	tests := []struct {
		name      string
		changes   map[string]any
		wantField string
	}{
		{
			name:    "valid changes",
			changes: map[string]any{"required": 5, "self_vote": true, "display_emoji": "⭐"},
		},
		{
			name:      "unknown key reported first",
			changes:   map[string]any{"zz_bogus": 1, "aa_bogus": 1, "required": 5},
			wantField: "aa_bogus",
		},
		{
			name:      "required above maximum",
			changes:   map[string]any{"required": 501},
			wantField: "required",
		},
		{
			name:      "required below minimum",
			changes:   map[string]any{"required": 0},
			wantField: "required",
		},
		{
			name:      "required_remove below minimum",
			changes:   map[string]any{"required_remove": -2},
			wantField: "required_remove",
		},
		{
			name:      "cooldown period of zero",
			changes:   map[string]any{"cooldown_period": 0},
			wantField: "cooldown_period",
		},
		{
			name:      "webhook name too long",
			changes:   map[string]any{"webhook_name": "an extremely long webhook name well past the limit"},
			wantField: "webhook_name",
		},
		{
			name:    "nil webhook avatar allowed",
			changes: map[string]any{"webhook_avatar": nil},
		},
		{
			name:    "custom emoji id allowed",
			changes: map[string]any{"display_emoji": "123456789012345678"},
		},
		{
			name:    "composed emoji allowed",
			changes: map[string]any{"display_emoji": "👍️"},
		},
		{
			name:      "plain text rejected as emoji",
			changes:   map[string]any{"display_emoji": "not an emoji"},
			wantField: "display_emoji",
		},
		{
			name:      "field order is deterministic",
			changes:   map[string]any{"required": 0, "cooldown_period": 0, "webhook_name": string(make([]byte, 40))},
			wantField: "webhook_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := settings.ValidateChanges(tt.changes, limits)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var verr *settings.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}
