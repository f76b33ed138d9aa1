package bot

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/veloras/starboard/internal/cache"
	"github.com/veloras/starboard/internal/core/render"
)

// poster adapts the Discord REST client and the entity cache to the
// surface the reconciliation engine works against. Posted mirrors are
// written into the cache so the next reconcile finds them without a
// fetch.
type poster struct {
	rest  rest.Rest
	cache *cache.Cache
	botID snowflake.ID
}

func newPoster(restClient rest.Rest, entityCache *cache.Cache, botID snowflake.ID) *poster {
	return &poster{
		rest:  restClient,
		cache: entityCache,
		botID: botID,
	}
}

func (p *poster) BotID() snowflake.ID { return p.botID }

func (p *poster) FetchMessage(ctx context.Context, channelID, messageID snowflake.ID) (*discord.Message, error) {
	return p.cache.GofMessage(ctx, channelID, messageID)
}

func (p *poster) ResolveWebhook(ctx context.Context, webhookID snowflake.ID) (*cache.Webhook, error) {
	return p.cache.GofWebhook(ctx, webhookID)
}

// CreateWebhook creates a managed webhook on the starboard channel.
// The avatar URL is not uploaded; Discord requires image data for
// webhook avatars and the rendered mirror carries the author avatar
// anyway.
func (p *poster) CreateWebhook(
	ctx context.Context, channelID snowflake.ID, name string, _ *string,
) (*cache.Webhook, error) {
	created, err := p.rest.CreateWebhook(channelID, discord.WebhookCreate{Name: name}, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}

	webhook := &cache.Webhook{
		ID:        created.ID(),
		ChannelID: channelID,
		Token:     created.Token,
	}

	p.cache.SetWebhook(webhook)

	return webhook, nil
}

func (p *poster) SendWebhook(
	ctx context.Context, webhook *cache.Webhook, content render.Content,
) (snowflake.ID, error) {
	msg, err := p.rest.CreateWebhookMessage(
		webhook.ID,
		webhook.Token,
		discord.WebhookMessageCreate{Content: content.Body, Embeds: content.Embeds},
		true,
		0,
		rest.WithCtx(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to send webhook message: %w", err)
	}

	p.cache.SetMessage(*msg)

	return msg.ID, nil
}

func (p *poster) SendDirect(
	ctx context.Context, channelID snowflake.ID, content render.Content,
) (snowflake.ID, error) {
	msg, err := p.rest.CreateMessage(
		channelID,
		discord.MessageCreate{Content: content.Body, Embeds: content.Embeds},
		rest.WithCtx(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	p.cache.SetMessage(*msg)

	return msg.ID, nil
}

func (p *poster) EditWebhook(
	ctx context.Context, webhook *cache.Webhook, messageID snowflake.ID, content render.Content,
) error {
	update := discord.WebhookMessageUpdate{Content: &content.Body}
	if content.Embeds != nil {
		update.Embeds = &content.Embeds
	}

	msg, err := p.rest.UpdateWebhookMessage(webhook.ID, webhook.Token, messageID, update, 0, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit webhook message: %w", err)
	}

	p.cache.SetMessage(*msg)

	return nil
}

func (p *poster) EditDirect(
	ctx context.Context, channelID, messageID snowflake.ID, content render.Content,
) error {
	update := discord.MessageUpdate{Content: &content.Body}
	if content.Embeds != nil {
		update.Embeds = &content.Embeds
	}

	msg, err := p.rest.UpdateMessage(channelID, messageID, update, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}

	p.cache.SetMessage(*msg)

	return nil
}

func (p *poster) DeleteWebhook(ctx context.Context, webhook *cache.Webhook, messageID snowflake.ID) error {
	if err := p.rest.DeleteWebhookMessage(webhook.ID, webhook.Token, messageID, 0, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to delete webhook message: %w", err)
	}

	p.cache.DeleteMessage(messageID)

	return nil
}

func (p *poster) DeleteDirect(ctx context.Context, channelID, messageID snowflake.ID) error {
	if err := p.rest.DeleteMessage(channelID, messageID, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	p.cache.DeleteMessage(messageID)

	return nil
}

func (p *poster) React(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error {
	return p.rest.AddReaction(channelID, messageID, emoji, rest.WithCtx(ctx))
}
