package cache

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/veloras/starboard/internal/database/types"
	"github.com/veloras/starboard/internal/discord/resterr"
	"github.com/veloras/starboard/internal/setup/config"
	"go.uber.org/zap"
)

// Fetcher is the slice of the Discord REST API the entity cache sits in
// front of. It is satisfied by disgo's rest.Rest.
type Fetcher interface {
	GetUser(userID snowflake.ID, opts ...rest.RequestOpt) (*discord.User, error)
	GetMember(guildID, userID snowflake.ID, opts ...rest.RequestOpt) (*discord.Member, error)
	GetWebhook(webhookID snowflake.ID, opts ...rest.RequestOpt) (discord.Webhook, error)
	GetMessage(channelID, messageID snowflake.ID, opts ...rest.RequestOpt) (*discord.Message, error)
	GetChannel(channelID snowflake.ID, opts ...rest.RequestOpt) (discord.Channel, error)
}

// ChannelGraph is the live gateway-fed channel cache. It is satisfied
// by disgo's cache.Caches.
type ChannelGraph interface {
	Channel(channelID snowflake.ID) (discord.GuildChannel, bool)
}

// StarboardSource loads a guild's starboards so their upvote emoji sets
// can be derived and cached.
type StarboardSource interface {
	GetStarboardsByGuild(ctx context.Context, guildID uint64) ([]*types.Starboard, error)
}

// MemberKey identifies a guild membership.
type MemberKey struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// Webhook is the slice of a managed webhook the bot posts through.
type Webhook struct {
	ID        snowflake.ID
	ChannelID snowflake.ID
	Token     string
}

// ChannelMeta is the cached view of a guild channel with a known NSFW
// flag, plus the parent link used to walk the qualified channel chain.
type ChannelMeta struct {
	ID       snowflake.ID
	GuildID  snowflake.ID
	ParentID *snowflake.ID
	NSFW     bool
}

// maxChannelDepth bounds the parent walk; Discord nests at most one
// category level but threads add more, and a broken parent link must
// not loop forever.
const maxChannelDepth = 16

// Cache resolves entity lookups with minimum remote calls. Lookups
// check the live channel graph (where one exists for the kind), then a
// per-kind bounded LFU cache, then fall back to a remote fetch. A
// confirmed "does not exist" answer is cached as an absent marker which
// short-circuits later fetches until it is evicted.
//
// Two racing resolutions for the same missing key may both fetch; the
// last write wins, which is acceptable because fetched values do not
// race-differ.
type Cache struct {
	fetcher Fetcher
	graph   ChannelGraph
	source  StarboardSource
	logger  *zap.Logger

	users        *LFU[snowflake.ID, *discord.User]
	nullUsers    *LFU[snowflake.ID, struct{}]
	members      *LFU[MemberKey, *discord.Member]
	webhooks     *LFU[snowflake.ID, *Webhook]
	messages     *LFU[snowflake.ID, *discord.Message]
	nullMessages *LFU[snowflake.ID, struct{}]
	channels     *LFU[snowflake.ID, ChannelMeta]
	nullChannels *LFU[snowflake.ID, struct{}]
	voteEmojis   *LFU[uint64, map[string]struct{}]
}

// New creates an entity cache with the configured per-kind capacities.
func New(
	cfg *config.Cache, fetcher Fetcher, graph ChannelGraph, source StarboardSource, logger *zap.Logger,
) *Cache {
	return &Cache{
		fetcher:      fetcher,
		graph:        graph,
		source:       source,
		logger:       logger.Named("cache"),
		users:        NewLFU[snowflake.ID, *discord.User](cfg.UserCacheSize),
		nullUsers:    NewLFU[snowflake.ID, struct{}](cfg.UserNullCacheSize),
		members:      NewLFU[MemberKey, *discord.Member](cfg.MemberCacheSize),
		webhooks:     NewLFU[snowflake.ID, *Webhook](cfg.WebhookCacheSize),
		messages:     NewLFU[snowflake.ID, *discord.Message](cfg.MessageCacheSize),
		nullMessages: NewLFU[snowflake.ID, struct{}](cfg.MessageNullCacheSize),
		channels:     NewLFU[snowflake.ID, ChannelMeta](cfg.ChannelCacheSize),
		nullChannels: NewLFU[snowflake.ID, struct{}](cfg.ChannelNullCacheSize),
		voteEmojis:   NewLFU[uint64, map[string]struct{}](cfg.VoteEmojiCacheSize),
	}
}

// GofUser resolves a user by id. Returns nil without an error when the
// user is confirmed absent.
func (c *Cache) GofUser(ctx context.Context, userID snowflake.ID) (*discord.User, error) {
	if user, ok := c.users.Get(userID); ok {
		return user, nil
	}

	if _, ok := c.nullUsers.Get(userID); ok {
		return nil, nil
	}

	user, err := c.fetcher.GetUser(userID, rest.WithCtx(ctx))
	if err != nil {
		if resterr.IsNotFound(err) {
			c.nullUsers.Put(userID, struct{}{})
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}

	c.users.Put(userID, user)

	return user, nil
}

// GofMember resolves a guild member. A nil result without an error
// means the membership is confirmed absent (the user left or never
// joined); that answer is cached inline.
func (c *Cache) GofMember(ctx context.Context, guildID, userID snowflake.ID) (*discord.Member, error) {
	key := MemberKey{GuildID: guildID, UserID: userID}

	if member, ok := c.members.Get(key); ok {
		return member, nil
	}

	member, err := c.fetcher.GetMember(guildID, userID, rest.WithCtx(ctx))
	if err != nil {
		if resterr.IsNotFound(err) {
			c.members.Put(key, nil)
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch member %d/%d: %w", guildID, userID, err)
	}

	c.members.Put(key, member)

	return member, nil
}

// SetMember stores a gateway-provided member, replacing any absent
// marker for the key.
func (c *Cache) SetMember(member discord.Member) {
	c.members.Put(MemberKey{GuildID: member.GuildID, UserID: member.User.ID}, &member)
}

// DeleteMember records a membership as gone without dropping the slot,
// so later lookups short-circuit instead of re-fetching.
func (c *Cache) DeleteMember(guildID, userID snowflake.ID) {
	c.members.Put(MemberKey{GuildID: guildID, UserID: userID}, nil)
}

// GofWebhook resolves a webhook by id. Returns nil without an error
// when the webhook no longer exists; absence is not cached because a
// stale id is cleared from the owning starboard row instead.
func (c *Cache) GofWebhook(ctx context.Context, webhookID snowflake.ID) (*Webhook, error) {
	if webhook, ok := c.webhooks.Get(webhookID); ok {
		return webhook, nil
	}

	fetched, err := c.fetcher.GetWebhook(webhookID, rest.WithCtx(ctx))
	if err != nil {
		if resterr.IsNotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch webhook %d: %w", webhookID, err)
	}

	incoming, ok := fetched.(discord.IncomingWebhook)
	if !ok {
		return nil, nil
	}

	webhook := &Webhook{
		ID:        incoming.ID(),
		ChannelID: incoming.ChannelID,
		Token:     incoming.Token,
	}

	c.webhooks.Put(webhookID, webhook)

	return webhook, nil
}

// SetWebhook stores a freshly created webhook.
func (c *Cache) SetWebhook(webhook *Webhook) {
	c.webhooks.Put(webhook.ID, webhook)
}

// GofMessage resolves a message. Returns nil without an error when the
// message is confirmed deleted.
func (c *Cache) GofMessage(ctx context.Context, channelID, messageID snowflake.ID) (*discord.Message, error) {
	if msg, ok := c.messages.Get(messageID); ok {
		return msg, nil
	}

	if _, ok := c.nullMessages.Get(messageID); ok {
		return nil, nil
	}

	msg, err := c.fetcher.GetMessage(channelID, messageID, rest.WithCtx(ctx))
	if err != nil {
		if resterr.IsNotFound(err) {
			c.nullMessages.Put(messageID, struct{}{})
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch message %d: %w", messageID, err)
	}

	c.messages.Put(messageID, msg)

	return msg, nil
}

// SetMessage stores a gateway-provided message.
func (c *Cache) SetMessage(msg discord.Message) {
	c.messages.Put(msg.ID, &msg)
}

// DeleteMessage drops a message and simultaneously records its id in
// the negative cache, so any lookup during the rest of the process
// lifetime short-circuits rather than re-fetches.
func (c *Cache) DeleteMessage(messageID snowflake.ID) {
	c.messages.Delete(messageID)
	c.nullMessages.Put(messageID, struct{}{})
}

// GofGuildChannel resolves a guild channel with a known NSFW flag.
// The live channel graph is consulted first; when the live object
// cannot answer NSFW (a partial object), exactly one remote re-fetch
// fills it before the cache is updated.
func (c *Cache) GofGuildChannel(ctx context.Context, channelID snowflake.ID) (*ChannelMeta, error) {
	if meta, ok := c.channels.Get(channelID); ok {
		return &meta, nil
	}

	if _, ok := c.nullChannels.Get(channelID); ok {
		return nil, nil
	}

	if live, ok := c.graph.Channel(channelID); ok {
		if mc, ok := live.(discord.GuildMessageChannel); ok {
			meta := ChannelMeta{
				ID:       live.ID(),
				GuildID:  live.GuildID(),
				ParentID: live.ParentID(),
				NSFW:     mc.NSFW(),
			}
			c.channels.Put(channelID, meta)

			return &meta, nil
		}

		if live.Type() == discord.ChannelTypeGuildCategory {
			meta := ChannelMeta{
				ID:       live.ID(),
				GuildID:  live.GuildID(),
				ParentID: live.ParentID(),
			}
			c.channels.Put(channelID, meta)

			return &meta, nil
		}
	}

	channel, err := c.fetcher.GetChannel(channelID, rest.WithCtx(ctx))
	if err != nil {
		if resterr.IsNotFound(err) {
			c.nullChannels.Put(channelID, struct{}{})
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch channel %d: %w", channelID, err)
	}

	guildChannel, ok := channel.(discord.GuildChannel)
	if !ok {
		c.nullChannels.Put(channelID, struct{}{})
		return nil, nil
	}

	meta := ChannelMeta{
		ID:       guildChannel.ID(),
		GuildID:  guildChannel.GuildID(),
		ParentID: guildChannel.ParentID(),
	}
	if mc, ok := guildChannel.(discord.GuildMessageChannel); ok {
		meta.NSFW = mc.NSFW()
	}

	c.channels.Put(channelID, meta)

	return &meta, nil
}

// InvalidateChannel drops one channel entry, forcing the next lookup to
// re-resolve it.
func (c *Cache) InvalidateChannel(channelID snowflake.ID) {
	c.channels.Delete(channelID)
}

// QualifiedChannelIDs returns the channel plus every ancestor reached
// by walking parent links upward. An override scoped to any id in the
// chain applies to the channel.
func (c *Cache) QualifiedChannelIDs(ctx context.Context, channelID snowflake.ID) ([]snowflake.ID, error) {
	chain := []snowflake.ID{channelID}

	current := channelID
	for range maxChannelDepth {
		meta, err := c.GofGuildChannel(ctx, current)
		if err != nil {
			return nil, err
		}

		if meta == nil || meta.ParentID == nil {
			break
		}

		chain = append(chain, *meta.ParentID)
		current = *meta.ParentID
	}

	return chain, nil
}

// GuildVoteEmojis returns the union of every starboard's upvote emojis
// for a guild, deriving and caching the set on first use.
func (c *Cache) GuildVoteEmojis(ctx context.Context, guildID uint64) (map[string]struct{}, error) {
	if emojis, ok := c.voteEmojis.Get(guildID); ok {
		return emojis, nil
	}

	starboards, err := c.source.GetStarboardsByGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild starboards: %w", err)
	}

	emojis := make(map[string]struct{})
	for _, sb := range starboards {
		for _, emoji := range sb.UpvoteEmojis {
			emojis[emoji] = struct{}{}
		}
	}

	c.voteEmojis.Put(guildID, emojis)

	return emojis, nil
}

// InvalidateVoteEmojis drops a guild's derived emoji set. Called after
// a starboard's emoji list is edited.
func (c *Cache) InvalidateVoteEmojis(guildID uint64) {
	c.voteEmojis.Delete(guildID)
}

// ClearSafe drops every derived and negative cache without touching the
// live channel graph. Used on reconnect-style resynchronization.
func (c *Cache) ClearSafe() {
	c.users.Clear()
	c.nullUsers.Clear()
	c.members.Clear()
	c.webhooks.Clear()
	c.messages.Clear()
	c.nullMessages.Clear()
	c.channels.Clear()
	c.nullChannels.Clear()
	c.voteEmojis.Clear()

	c.logger.Debug("Cleared derived caches")
}
