// Package bot wires the Discord client to the vote and reconciliation
// machinery.
package bot

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo"
	disgobot "github.com/disgoorg/disgo/bot"
	dcache "github.com/disgoorg/disgo/cache"
	disgoevents "github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/veloras/starboard/internal/bot/events"
	"github.com/veloras/starboard/internal/cache"
	"github.com/veloras/starboard/internal/core/cooldown"
	"github.com/veloras/starboard/internal/core/refresh"
	"github.com/veloras/starboard/internal/core/render"
	"github.com/veloras/starboard/internal/core/votes"
	"github.com/veloras/starboard/internal/redis"
	"github.com/veloras/starboard/internal/setup"
	"go.uber.org/zap"
)

// Bot owns the Discord client and the event handler.
type Bot struct {
	client  disgobot.Client
	handler *events.Handler
	logger  *zap.Logger
}

// New builds the Discord client and assembles the cache, tally, and
// reconciliation engine around it.
func New(app *setup.App) (*Bot, error) {
	b := &Bot{logger: app.Logger}

	client, err := disgo.New(app.Config.Discord.Token,
		disgobot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentGuildMessageReactions,
			),
		),
		disgobot.WithCacheConfigOpts(
			dcache.WithCaches(dcache.FlagGuilds | dcache.FlagChannels),
		),
		disgobot.WithEventListeners(&disgoevents.ListenerAdapter{
			OnGuildMessageReactionAdd:    b.onReactionAdd,
			OnGuildMessageReactionRemove: b.onReactionRemove,
			OnGuildMessageUpdate:         b.onMessageUpdate,
			OnGuildMessageDelete:         b.onMessageDelete,
			OnReady:                      b.onReady,
			OnResumed:                    b.onResumed,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client

	repo := app.DB.Model()

	entityCache := cache.New(
		&app.Config.Cache,
		client.Rest(),
		client.Caches(),
		repo.Starboard(),
		app.Logger,
	)

	cooldownClient, err := app.RedisManager.GetClient(redis.CooldownDBIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get cooldown redis client: %w", err)
	}

	tally := votes.NewTally(repo.Vote(), cooldown.NewBucket(cooldownClient, app.Logger), app.Logger)

	engine := refresh.NewEngine(
		&engineStore{repo: repo},
		tally,
		repo.Override(),
		entityCache,
		newPoster(client.Rest(), entityCache, client.ApplicationID()),
		render.NewMessageRenderer(),
		app.Logger,
	)

	b.handler = events.NewHandler(app.DB, entityCache, tally, engine, client.Rest(), app.Logger)

	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")
	return b.client.OpenGateway(ctx)
}

// Close shuts down the gateway and drains in-flight event work.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Stopping bot")
	b.client.Close(ctx)
	b.handler.Close()
}

func (b *Bot) onReactionAdd(event *disgoevents.GuildMessageReactionAdd) {
	b.handler.OnReactionAdd(event)
}

func (b *Bot) onReactionRemove(event *disgoevents.GuildMessageReactionRemove) {
	b.handler.OnReactionRemove(event)
}

func (b *Bot) onMessageUpdate(event *disgoevents.GuildMessageUpdate) {
	b.handler.OnMessageUpdate(event)
}

func (b *Bot) onMessageDelete(event *disgoevents.GuildMessageDelete) {
	b.handler.OnMessageDelete(event)
}

func (b *Bot) onReady(event *disgoevents.Ready) {
	b.handler.OnReady(event)
}

func (b *Bot) onResumed(event *disgoevents.Resumed) {
	b.handler.OnResumed(event)
}
