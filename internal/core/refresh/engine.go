// Package refresh reconciles the mirror of a source message on each of
// its starboards with the current vote tally and message state.
package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/veloras/starboard/internal/cache"
	"github.com/veloras/starboard/internal/core/render"
	"github.com/veloras/starboard/internal/core/settings"
	"github.com/veloras/starboard/internal/database/types"
	"github.com/veloras/starboard/internal/discord/resterr"
	"go.uber.org/zap"
)

// Store is the persistence surface the engine needs.
type Store interface {
	GetStarboardsByGuild(ctx context.Context, guildID uint64) ([]*types.Starboard, error)
	GetStarboardsByIDs(ctx context.Context, starboardIDs []uint64) ([]*types.Starboard, error)
	SetWebhookID(ctx context.Context, starboardID uint64, webhookID *uint64) error
	GetSBMessage(ctx context.Context, messageID, starboardID uint64) (*types.SBMessage, error)
	CreateSBMessage(ctx context.Context, messageID, starboardID uint64) (*types.SBMessage, error)
	UpdateSBMessage(ctx context.Context, row *types.SBMessage) error
}

// Tally reads the current vote count for a (message, starboard) pair.
type Tally interface {
	Count(ctx context.Context, messageID, starboardID uint64) (int, error)
}

// Poster is the Discord surface the engine needs. Fetches go through
// the entity cache; writes go straight to REST. Edit calls that carry
// no embeds update only the message content.
type Poster interface {
	BotID() snowflake.ID
	FetchMessage(ctx context.Context, channelID, messageID snowflake.ID) (*discord.Message, error)
	ResolveWebhook(ctx context.Context, webhookID snowflake.ID) (*cache.Webhook, error)
	CreateWebhook(ctx context.Context, channelID snowflake.ID, name string, avatarURL *string) (*cache.Webhook, error)
	SendWebhook(ctx context.Context, webhook *cache.Webhook, content render.Content) (snowflake.ID, error)
	SendDirect(ctx context.Context, channelID snowflake.ID, content render.Content) (snowflake.ID, error)
	EditWebhook(ctx context.Context, webhook *cache.Webhook, messageID snowflake.ID, content render.Content) error
	EditDirect(ctx context.Context, channelID, messageID snowflake.ID, content render.Content) error
	DeleteWebhook(ctx context.Context, webhook *cache.Webhook, messageID snowflake.ID) error
	DeleteDirect(ctx context.Context, channelID, messageID snowflake.ID) error
	React(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error
}

// Engine drives reconciliation. At most one reconciliation per source
// message id runs at a time process-wide; a second concurrent call for
// the same message is dropped, since the in-flight run observes current
// state anyway. Different messages never block each other.
type Engine struct {
	store     Store
	tally     Tally
	overrides settings.OverrideSource
	chain     settings.ChannelChain
	poster    Poster
	renderer  render.Renderer
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[uint64]struct{}
}

// NewEngine creates a reconciliation engine.
func NewEngine(
	store Store,
	tally Tally,
	overrides settings.OverrideSource,
	chain settings.ChannelChain,
	poster Poster,
	renderer render.Renderer,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:     store,
		tally:     tally,
		overrides: overrides,
		chain:     chain,
		poster:    poster,
		renderer:  renderer,
		logger:    logger.Named("refresh"),
		inFlight:  make(map[uint64]struct{}),
	}
}

// RefreshMessage reconciles row against the given starboards, or
// against every starboard in its guild when none are named. A failure
// on one starboard never blocks the others.
func (e *Engine) RefreshMessage(ctx context.Context, row *types.Message, starboardIDs ...uint64) error {
	if !e.acquire(row.ID) {
		return nil
	}
	defer e.release(row.ID)

	var (
		starboards []*types.Starboard
		err        error
	)

	if len(starboardIDs) > 0 {
		starboards, err = e.store.GetStarboardsByIDs(ctx, starboardIDs)
	} else {
		starboards, err = e.store.GetStarboardsByGuild(ctx, row.GuildID)
	}

	if err != nil {
		return fmt.Errorf("failed to load starboards: %w", err)
	}

	for _, sb := range starboards {
		if err := e.reconcile(ctx, row, sb); err != nil {
			e.logger.Error("Failed to reconcile message",
				zap.Uint64("messageID", row.ID),
				zap.Uint64("starboardID", sb.ID),
				zap.Error(err))
		}
	}

	return nil
}

func (e *Engine) acquire(messageID uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.inFlight[messageID]; ok {
		return false
	}

	e.inFlight[messageID] = struct{}{}

	return true
}

func (e *Engine) release(messageID uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, messageID)
}

// reconcile evaluates one (message, starboard) pair from scratch and
// converges the mirror.
func (e *Engine) reconcile(ctx context.Context, row *types.Message, sb *types.Starboard) error {
	forced := row.IsForcedTo(sb.ID)

	cfg, err := settings.ForChannel(ctx, e.chain, e.overrides, sb, snowflake.ID(row.ChannelID))
	if err != nil {
		return err
	}

	// Disabled starboards never change; forcing bypasses the switch.
	if !cfg.Enabled() && !forced {
		return nil
	}

	// Frozen messages keep their mirror exactly as it is.
	if row.Frozen {
		return nil
	}

	points, err := e.tally.Count(ctx, row.ID, sb.ID)
	if err != nil {
		return fmt.Errorf("failed to count votes: %w", err)
	}

	source, err := e.poster.FetchMessage(ctx, snowflake.ID(row.ChannelID), snowflake.ID(row.ID))
	if err != nil {
		return err
	}

	action := Decide(DecisionInput{
		Points:         points,
		Required:       cfg.Required(),
		RequiredRemove: cfg.RequiredRemove(),
		Forced:         forced,
		Trashed:        row.Trashed,
		Deleted:        source == nil,
		LinkDeletes:    cfg.LinkDeletes(),
	})

	state, err := e.store.GetSBMessage(ctx, row.ID, sb.ID)
	if err != nil {
		return err
	}

	// Fast path for vote churn: nothing moved and nothing needs
	// removing.
	if state != nil && state.LastKnownVoteCount == points && action != ActionRemove {
		return nil
	}

	// Resolve the live mirror. A stored id whose message is gone counts
	// as no mirror.
	var mirror *discord.Message

	if state != nil && state.SBMessageID != nil {
		mirror, err = e.poster.FetchMessage(ctx, snowflake.ID(sb.ID), snowflake.ID(*state.SBMessageID))
		if err != nil {
			return err
		}
	}

	newMirrorID := currentMirrorID(state, mirror)

	switch {
	case action == ActionRemove:
		if mirror != nil {
			if err := e.removeMirror(ctx, sb, mirror); err != nil {
				return err
			}
		}

		newMirrorID = nil

	case mirror == nil && action == ActionAdd:
		if source == nil || (cfg.RequireImage() && !hasImage(source)) {
			break
		}

		mirrorID, err := e.addMirror(ctx, row, sb, cfg, source, points)
		if err != nil {
			return err
		}

		id := uint64(mirrorID)
		newMirrorID = &id

	case mirror != nil:
		if err := e.editMirror(ctx, row, sb, cfg, source, mirror, points); err != nil {
			return err
		}
	}

	if state == nil {
		state, err = e.store.CreateSBMessage(ctx, row.ID, sb.ID)
		if err != nil {
			return err
		}
	}

	state.SBMessageID = newMirrorID
	state.LastKnownVoteCount = points

	return e.store.UpdateSBMessage(ctx, state)
}

func currentMirrorID(state *types.SBMessage, mirror *discord.Message) *uint64 {
	if state == nil || mirror == nil {
		return nil
	}

	return state.SBMessageID
}

// addMirror posts a new mirror, preferring the starboard's managed
// webhook and falling back to a direct bot post, then best-effort
// autoreacts with the vote emojis.
func (e *Engine) addMirror(
	ctx context.Context,
	row *types.Message,
	sb *types.Starboard,
	cfg *settings.Resolved,
	source *discord.Message,
	points int,
) (snowflake.ID, error) {
	content := e.renderer.Render(source, row, cfg, points)

	mirrorID, err := e.post(ctx, sb, cfg, content)
	if err != nil {
		return 0, err
	}

	e.logger.Debug("Posted mirror",
		zap.Uint64("messageID", row.ID),
		zap.Uint64("starboardID", sb.ID),
		zap.Int("points", points))

	// Autoreact is best effort. The mirror is already live, so a react
	// failure must never unwind the reconcile and lose its id.
	if cfg.Autoreact() {
		for _, emoji := range cfg.UpvoteEmojis() {
			if err := e.poster.React(ctx, snowflake.ID(sb.ID), mirrorID, emoji); err != nil && !resterr.IsIgnorable(err) {
				e.logger.Warn("Failed to autoreact",
					zap.Uint64("starboardID", sb.ID),
					zap.String("emoji", emoji),
					zap.Error(err))
			}
		}
	}

	return mirrorID, nil
}

func (e *Engine) post(
	ctx context.Context, sb *types.Starboard, cfg *settings.Resolved, content render.Content,
) (snowflake.ID, error) {
	if cfg.UseWebhook() {
		if webhook := e.resolveWebhook(ctx, sb, cfg); webhook != nil {
			id, err := e.poster.SendWebhook(ctx, webhook, content)
			if err == nil {
				return id, nil
			}

			e.logger.Warn("Webhook post failed, falling back to direct post",
				zap.Uint64("starboardID", sb.ID),
				zap.Error(err))
		}
	}

	return e.poster.SendDirect(ctx, snowflake.ID(sb.ID), content)
}

// resolveWebhook returns a usable managed webhook for the starboard,
// creating one lazily and clearing stale ids. A nil result means the
// caller should post directly.
func (e *Engine) resolveWebhook(ctx context.Context, sb *types.Starboard, cfg *settings.Resolved) *cache.Webhook {
	if sb.WebhookID != nil {
		webhook, err := e.poster.ResolveWebhook(ctx, snowflake.ID(*sb.WebhookID))
		if err != nil {
			e.logger.Warn("Failed to resolve webhook",
				zap.Uint64("starboardID", sb.ID),
				zap.Error(err))

			return nil
		}

		if webhook != nil {
			return webhook
		}

		// The webhook was deleted out from under us.
		if err := e.store.SetWebhookID(ctx, sb.ID, nil); err != nil {
			e.logger.Warn("Failed to clear stale webhook id",
				zap.Uint64("starboardID", sb.ID),
				zap.Error(err))
		}

		sb.WebhookID = nil
	}

	webhook, err := e.poster.CreateWebhook(ctx, snowflake.ID(sb.ID), cfg.WebhookName(), cfg.WebhookAvatar())
	if err != nil {
		e.logger.Warn("Failed to create webhook",
			zap.Uint64("starboardID", sb.ID),
			zap.Error(err))

		return nil
	}

	id := uint64(webhook.ID)
	if err := e.store.SetWebhookID(ctx, sb.ID, &id); err != nil {
		e.logger.Warn("Failed to persist webhook id",
			zap.Uint64("starboardID", sb.ID),
			zap.Error(err))
	}

	sb.WebhookID = &id

	return webhook
}

// lookupWebhook resolves the starboard's stored webhook without ever
// creating one. Edit and remove paths must not mint webhooks for a
// starboard that lost its own.
func (e *Engine) lookupWebhook(ctx context.Context, sb *types.Starboard) *cache.Webhook {
	if sb.WebhookID == nil {
		return nil
	}

	webhook, err := e.poster.ResolveWebhook(ctx, snowflake.ID(*sb.WebhookID))
	if err != nil {
		e.logger.Warn("Failed to resolve webhook",
			zap.Uint64("starboardID", sb.ID),
			zap.Error(err))

		return nil
	}

	return webhook
}

// editMirror re-renders the mirror in place. Edits only proceed when
// the live mirror's apparent author matches the identity we would post
// with, so an unrelated message occupying the stored id is never
// overwritten.
func (e *Engine) editMirror(
	ctx context.Context,
	row *types.Message,
	sb *types.Starboard,
	cfg *settings.Resolved,
	source *discord.Message,
	mirror *discord.Message,
	points int,
) error {
	// A gone source renders header-only content, so the mirror's vote
	// count stays current even when link_deletes left it in place.
	content := e.renderer.Render(source, row, cfg, points)

	// With link_edits off the rich content stays frozen; only the
	// header line tracks the tally.
	if !cfg.LinkEdits() {
		content.Embeds = nil
	}

	if mirror.WebhookID != nil {
		webhook := e.lookupWebhook(ctx, sb)
		if webhook == nil || mirror.Author.ID != webhook.ID {
			return nil
		}

		return e.poster.EditWebhook(ctx, webhook, mirror.ID, content)
	}

	if mirror.Author.ID != e.poster.BotID() {
		return nil
	}

	return e.poster.EditDirect(ctx, snowflake.ID(sb.ID), mirror.ID, content)
}

// removeMirror deletes the mirror, through its owning webhook when it
// was webhook-authored and that webhook still resolves. Permission and
// not-found failures are tolerated; the stored id is cleared either
// way.
func (e *Engine) removeMirror(ctx context.Context, sb *types.Starboard, mirror *discord.Message) error {
	var err error

	if mirror.WebhookID != nil && sb.WebhookID != nil && uint64(*mirror.WebhookID) == *sb.WebhookID {
		webhook, werr := e.poster.ResolveWebhook(ctx, *mirror.WebhookID)
		if werr == nil && webhook != nil {
			err = e.poster.DeleteWebhook(ctx, webhook, mirror.ID)
		} else {
			err = e.poster.DeleteDirect(ctx, snowflake.ID(sb.ID), mirror.ID)
		}
	} else {
		err = e.poster.DeleteDirect(ctx, snowflake.ID(sb.ID), mirror.ID)
	}

	if err != nil && !resterr.IsIgnorable(err) {
		return fmt.Errorf("failed to delete mirror: %w", err)
	}

	return nil
}

func hasImage(msg *discord.Message) bool {
	for _, att := range msg.Attachments {
		if att.ContentType != nil && strings.HasPrefix(*att.ContentType, "image/") {
			return true
		}
	}

	return false
}
