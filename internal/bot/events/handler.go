// Package events translates gateway events into vote and refresh
// operations.
package events

import (
	"context"
	"strconv"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sourcegraph/conc/pool"
	"github.com/veloras/starboard/internal/cache"
	"github.com/veloras/starboard/internal/core/refresh"
	"github.com/veloras/starboard/internal/core/settings"
	"github.com/veloras/starboard/internal/core/votes"
	"github.com/veloras/starboard/internal/database"
	"github.com/veloras/starboard/internal/database/types"
	"github.com/veloras/starboard/internal/discord/resterr"
	"go.uber.org/zap"
)

// maxConcurrentEvents bounds how many gateway events are processed at
// once; unrelated events must never serialize behind each other.
const maxConcurrentEvents = 32

// Handler reacts to gateway events. Each event is dispatched onto a
// bounded worker pool so slow reconciliations never block the gateway
// read loop.
type Handler struct {
	db     database.Client
	cache  *cache.Cache
	tally  *votes.Tally
	engine *refresh.Engine
	rest   rest.Rest
	pool   *pool.Pool
	logger *zap.Logger
}

// NewHandler creates a gateway event handler.
func NewHandler(
	db database.Client,
	entityCache *cache.Cache,
	tally *votes.Tally,
	engine *refresh.Engine,
	restClient rest.Rest,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		db:     db,
		cache:  entityCache,
		tally:  tally,
		engine: engine,
		rest:   restClient,
		pool:   pool.New().WithMaxGoroutines(maxConcurrentEvents),
		logger: logger.Named("events"),
	}
}

// Close waits for in-flight event work to drain.
func (h *Handler) Close() {
	h.pool.Wait()
}

// OnReactionAdd handles a member adding a reaction.
func (h *Handler) OnReactionAdd(event *events.GuildMessageReactionAdd) {
	if event.Member.User.Bot {
		return
	}

	h.pool.Go(func() {
		h.handleReaction(context.Background(), event.GenericGuildMessageReaction, true)
	})
}

// OnReactionRemove handles a member removing a reaction.
func (h *Handler) OnReactionRemove(event *events.GuildMessageReactionRemove) {
	h.pool.Go(func() {
		h.handleReaction(context.Background(), event.GenericGuildMessageReaction, false)
	})
}

// OnMessageUpdate keeps mirrors in sync with edited sources.
func (h *Handler) OnMessageUpdate(event *events.GuildMessageUpdate) {
	msg := event.Message

	h.pool.Go(func() {
		ctx := context.Background()

		h.cache.SetMessage(msg)

		row, err := h.db.Model().Message().GetMessage(ctx, uint64(msg.ID))
		if err != nil || row == nil {
			return
		}

		if err := h.engine.RefreshMessage(ctx, row); err != nil {
			h.logger.Error("Failed to refresh edited message",
				zap.Uint64("messageID", row.ID),
				zap.Error(err))
		}
	})
}

// OnMessageDelete marks the source as gone and reconciles, so boards
// with link_deletes drop their mirrors.
func (h *Handler) OnMessageDelete(event *events.GuildMessageDelete) {
	messageID := event.MessageID

	h.pool.Go(func() {
		ctx := context.Background()

		h.cache.DeleteMessage(messageID)

		row, err := h.db.Model().Message().GetMessage(ctx, uint64(messageID))
		if err != nil || row == nil {
			return
		}

		if err := h.engine.RefreshMessage(ctx, row); err != nil {
			h.logger.Error("Failed to refresh deleted message",
				zap.Uint64("messageID", row.ID),
				zap.Error(err))
		}
	})
}

// OnReady clears caches that may have gone stale across the gap in
// gateway coverage. Negative caches survive; see Cache.ClearSafe.
func (h *Handler) OnReady(*events.Ready) {
	h.cache.ClearSafe()
	h.logger.Info("Gateway session ready, cleared positive caches")
}

// OnResumed mirrors OnReady for resumed sessions.
func (h *Handler) OnResumed(*events.Resumed) {
	h.cache.ClearSafe()
	h.logger.Info("Gateway session resumed, cleared positive caches")
}

// handleReaction turns a reaction change into vote changes on every
// starboard whose emoji set contains the reaction, then reconciles.
func (h *Handler) handleReaction(ctx context.Context, event *events.GenericGuildMessageReaction, added bool) {
	emoji := emojiKey(event.Emoji)
	if emoji == "" {
		return
	}

	guildEmojis, err := h.cache.GuildVoteEmojis(ctx, uint64(event.GuildID))
	if err != nil {
		h.logger.Error("Failed to resolve guild vote emojis", zap.Error(err))
		return
	}

	if _, ok := guildEmojis[emoji]; !ok {
		return
	}

	row, err := h.resolveRow(ctx, event)
	if err != nil {
		h.logger.Error("Failed to resolve message row",
			zap.Uint64("messageID", uint64(event.MessageID)),
			zap.Error(err))

		return
	}

	if row == nil {
		return
	}

	starboards, err := h.db.Model().Starboard().GetStarboardsByGuild(ctx, uint64(event.GuildID))
	if err != nil {
		h.logger.Error("Failed to load starboards", zap.Error(err))
		return
	}

	var affected []uint64

	for _, sb := range starboards {
		cfg, err := settings.ForChannel(ctx, h.cache, h.db.Model().Override(), sb, snowflake.ID(row.ChannelID))
		if err != nil {
			h.logger.Error("Failed to resolve starboard config",
				zap.Uint64("starboardID", sb.ID),
				zap.Error(err))

			continue
		}

		if !boardUsesEmoji(cfg, emoji) {
			continue
		}

		if added {
			verdict, err := h.tally.Validate(ctx, cfg, row, uint64(event.UserID))
			if err != nil {
				h.logger.Error("Failed to validate vote",
					zap.Uint64("starboardID", sb.ID),
					zap.Error(err))

				continue
			}

			if !verdict.Valid {
				if cfg.RemoveInvalid() {
					h.removeReaction(ctx, event)
				}

				continue
			}
		}

		affected = append(affected, sb.ID)
	}

	if len(affected) == 0 {
		return
	}

	if added {
		err = h.tally.Add(ctx, row.ID, uint64(event.UserID), affected, row.AuthorID)
	} else {
		err = h.tally.Remove(ctx, row.ID, uint64(event.UserID), affected)
	}

	if err != nil {
		h.logger.Error("Failed to record vote change",
			zap.Uint64("messageID", row.ID),
			zap.Error(err))

		return
	}

	if err := h.engine.RefreshMessage(ctx, row, affected...); err != nil {
		h.logger.Error("Failed to refresh message",
			zap.Uint64("messageID", row.ID),
			zap.Error(err))
	}
}

// resolveRow maps the reacted-to message to its tracked source row,
// creating the row on first contact. Reactions on a mirror count for
// the original message.
func (h *Handler) resolveRow(ctx context.Context, event *events.GenericGuildMessageReaction) (*types.Message, error) {
	row, err := h.db.Model().Message().ResolveOriginal(ctx, uint64(event.MessageID))
	if err != nil || row != nil {
		return row, err
	}

	source, err := h.cache.GofMessage(ctx, event.ChannelID, event.MessageID)
	if err != nil || source == nil {
		return nil, err
	}

	meta, err := h.cache.GofGuildChannel(ctx, event.ChannelID)
	if err != nil {
		return nil, err
	}

	isNSFW := meta != nil && meta.NSFW

	return h.db.Model().Message().GetOrCreateMessage(ctx, &types.Message{
		ID:          uint64(event.MessageID),
		GuildID:     uint64(event.GuildID),
		ChannelID:   uint64(event.ChannelID),
		AuthorID:    uint64(source.Author.ID),
		AuthorIsBot: source.Author.Bot,
		IsNSFW:      isNSFW,
	})
}

// removeReaction strips an invalid vote reaction, best effort.
func (h *Handler) removeReaction(ctx context.Context, event *events.GenericGuildMessageReaction) {
	err := h.rest.RemoveUserReaction(
		event.ChannelID, event.MessageID, reactionString(event.Emoji), event.UserID, rest.WithCtx(ctx),
	)
	if err != nil && !resterr.IsIgnorable(err) {
		h.logger.Warn("Failed to remove invalid reaction",
			zap.Uint64("messageID", uint64(event.MessageID)),
			zap.Error(err))
	}
}

func boardUsesEmoji(cfg *settings.Resolved, emoji string) bool {
	for _, e := range cfg.UpvoteEmojis() {
		if e == emoji {
			return true
		}
	}

	return false
}

// emojiKey normalizes an emoji to the form stored in upvote_emojis:
// the unicode literal for builtin emojis, the numeric id for custom
// ones.
func emojiKey(emoji discord.PartialEmoji) string {
	if emoji.ID != nil {
		return strconv.FormatUint(uint64(*emoji.ID), 10)
	}

	if emoji.Name != nil {
		return *emoji.Name
	}

	return ""
}

// reactionString renders an emoji in the form the reaction endpoints
// expect.
func reactionString(emoji discord.PartialEmoji) string {
	if emoji.ID != nil && emoji.Name != nil {
		return *emoji.Name + ":" + emoji.ID.String()
	}

	if emoji.Name != nil {
		return *emoji.Name
	}

	return ""
}
