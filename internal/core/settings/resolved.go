package settings

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/veloras/starboard/internal/database/types"
)

// OverrideSource loads the overrides applicable to a starboard for a
// set of channel ids, in load order.
type OverrideSource interface {
	GetOverridesForChannels(ctx context.Context, starboardID uint64, channelIDs []uint64) ([]*types.Override, error)
}

// ChannelChain resolves a channel plus its ancestor categories.
type ChannelChain interface {
	QualifiedChannelIDs(ctx context.Context, channelID snowflake.ID) ([]snowflake.ID, error)
}

// Resolved is the effective configuration view of one starboard for one
// channel. Field lookups walk the overrides in order; the first delta
// containing the field wins, otherwise the starboard's stored value is
// used. Resolution never fails for a missing override.
type Resolved struct {
	Starboard *types.Starboard
	Overrides []*types.Override
}

// Resolve builds the effective view from a starboard and its applicable
// overrides, already in load order.
func Resolve(sb *types.Starboard, overrides []*types.Override) *Resolved {
	return &Resolved{Starboard: sb, Overrides: overrides}
}

// ForChannel resolves the effective configuration of a starboard for a
// target channel: overrides apply if their channel set intersects the
// qualified channel chain (the channel plus its ancestor categories).
func ForChannel(
	ctx context.Context, chain ChannelChain, source OverrideSource, sb *types.Starboard, channelID snowflake.ID,
) (*Resolved, error) {
	qualified, err := chain.QualifiedChannelIDs(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel chain: %w", err)
	}

	ids := make([]uint64, 0, len(qualified))
	for _, id := range qualified {
		ids = append(ids, uint64(id))
	}

	overrides, err := source.GetOverridesForChannels(ctx, sb.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overrides: %w", err)
	}

	return Resolve(sb, overrides), nil
}

// Value returns the effective value of a configurable field by name.
// Requesting a field outside the registry is a programming error and
// panics.
func (r *Resolved) Value(name string) any {
	accessor, ok := registry[name]
	if !ok {
		panic(fmt.Sprintf("settings: unknown setting %q", name))
	}

	for _, ov := range r.Overrides {
		if v, ok := ov.Settings[name]; ok {
			return v
		}
	}

	return accessor.get(r.Starboard)
}

// Appearance

func (r *Resolved) Color() int             { return asInt(r.Value("color")) }
func (r *Resolved) DisplayEmoji() *string  { return optString(r.Value("display_emoji")) }
func (r *Resolved) PingAuthor() bool       { return asBool(r.Value("ping_author")) }
func (r *Resolved) UseServerProfile() bool { return asBool(r.Value("use_server_profile")) }
func (r *Resolved) ExtraEmbeds() bool      { return asBool(r.Value("extra_embeds")) }
func (r *Resolved) UseWebhook() bool       { return asBool(r.Value("use_webhook")) }
func (r *Resolved) WebhookName() string    { return asString(r.Value("webhook_name")) }
func (r *Resolved) WebhookAvatar() *string { return optString(r.Value("webhook_avatar")) }

// Requirements

func (r *Resolved) Required() int           { return asInt(r.Value("required")) }
func (r *Resolved) RequiredRemove() int     { return asInt(r.Value("required_remove")) }
func (r *Resolved) UpvoteEmojis() []string  { return asStringSlice(r.Value("upvote_emojis")) }
func (r *Resolved) SelfVote() bool          { return asBool(r.Value("self_vote")) }
func (r *Resolved) AllowBots() bool         { return asBool(r.Value("allow_bots")) }
func (r *Resolved) RequireImage() bool      { return asBool(r.Value("require_image")) }

// Behavior

func (r *Resolved) Enabled() bool         { return asBool(r.Value("enabled")) }
func (r *Resolved) Autoreact() bool       { return asBool(r.Value("autoreact")) }
func (r *Resolved) RemoveInvalid() bool   { return asBool(r.Value("remove_invalid")) }
func (r *Resolved) LinkDeletes() bool     { return asBool(r.Value("link_deletes")) }
func (r *Resolved) LinkEdits() bool       { return asBool(r.Value("link_edits")) }
func (r *Resolved) Private() bool         { return asBool(r.Value("private")) }
func (r *Resolved) CooldownEnabled() bool { return asBool(r.Value("cooldown_enabled")) }
func (r *Resolved) CooldownCount() int    { return asInt(r.Value("cooldown_count")) }
func (r *Resolved) CooldownPeriod() int   { return asInt(r.Value("cooldown_period")) }

// optString handles both *string base values and plain-string override
// deltas.
func optString(v any) *string {
	if v == nil {
		return nil
	}

	if s, ok := v.(*string); ok {
		return s
	}

	s := asString(v)

	return &s
}
