package render_test

import (
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloras/starboard/internal/core/render"
	"github.com/veloras/starboard/internal/core/settings"
	"github.com/veloras/starboard/internal/database/types"
)

func sourceMessage() *discord.Message {
	guildID := snowflake.ID(10)

	return &discord.Message{
		ID:        1,
		ChannelID: 20,
		GuildID:   &guildID,
		Content:   "hello there",
		Author:    discord.User{ID: 30, Username: "author"},
	}
}

func TestRenderHeader(t *testing.T) {
	t.Parallel()

	r := render.NewMessageRenderer()
	row := &types.Message{ID: 1, GuildID: 10, ChannelID: 20, AuthorID: 30}

	t.Run("points and channel", func(t *testing.T) {
		t.Parallel()

		cfg := settings.Resolve(types.NewStarboard(100, 10), nil)
		content := r.Render(sourceMessage(), row, cfg, 3)
		assert.Equal(t, "⭐ **3** | <#20>", content.Body)
	})

	t.Run("custom emoji and author ping", func(t *testing.T) {
		t.Parallel()

		sb := types.NewStarboard(100, 10)
		emoji := "🌟"
		sb.DisplayEmoji = &emoji
		sb.PingAuthor = true

		content := r.Render(sourceMessage(), row, settings.Resolve(sb, nil), 5)
		assert.Equal(t, "🌟 **5** | <#20>\n<@30>", content.Body)
	})

	t.Run("state markers", func(t *testing.T) {
		t.Parallel()

		marked := &types.Message{
			ID: 1, GuildID: 10, ChannelID: 20, AuthorID: 30,
			Frozen: true, Trashed: true, ForcedTo: []uint64{100},
		}

		cfg := settings.Resolve(types.NewStarboard(100, 10), nil)
		content := r.Render(sourceMessage(), marked, cfg, 3)
		assert.Equal(t, "⭐ **3** | <#20> ❄️ 🔒 🗑️", content.Body)
	})
}

func TestRenderDeletedSource(t *testing.T) {
	t.Parallel()

	r := render.NewMessageRenderer()
	row := &types.Message{ID: 1, GuildID: 10, ChannelID: 20, AuthorID: 30}
	cfg := settings.Resolve(types.NewStarboard(100, 10), nil)

	content := r.Render(nil, row, cfg, 4)

	assert.Equal(t, "⭐ **4** | <#20>", content.Body)
	assert.Nil(t, content.Embeds)
}

func TestRenderEmbeds(t *testing.T) {
	t.Parallel()

	r := render.NewMessageRenderer()
	row := &types.Message{ID: 1, GuildID: 10, ChannelID: 20, AuthorID: 30}

	t.Run("quote embed carries content and jump link", func(t *testing.T) {
		t.Parallel()

		cfg := settings.Resolve(types.NewStarboard(100, 10), nil)
		content := r.Render(sourceMessage(), row, cfg, 3)

		require.Len(t, content.Embeds, 1)
		embed := content.Embeds[0]
		assert.Equal(t, "hello there", embed.Description)
		require.NotEmpty(t, embed.Fields)
		assert.Equal(t, "Original", embed.Fields[0].Name)
		assert.Contains(t, embed.Fields[0].Value, "Jump!")
	})

	t.Run("first image becomes the embed image", func(t *testing.T) {
		t.Parallel()

		imageType := "image/png"
		textType := "text/plain"

		msg := sourceMessage()
		msg.Attachments = []discord.Attachment{
			{Filename: "notes.txt", URL: "https://cdn.example/notes.txt", ContentType: &textType},
			{Filename: "cat.png", URL: "https://cdn.example/cat.png", ContentType: &imageType},
			{Filename: "dog.png", URL: "https://cdn.example/dog.png", ContentType: &imageType},
		}

		cfg := settings.Resolve(types.NewStarboard(100, 10), nil)
		content := r.Render(msg, row, cfg, 3)

		require.Len(t, content.Embeds, 1)
		embed := content.Embeds[0]
		require.NotNil(t, embed.Image)
		assert.Equal(t, "https://cdn.example/cat.png", embed.Image.URL)

		attachments := embed.Fields[len(embed.Fields)-1]
		assert.Equal(t, "Attachments", attachments.Name)
		assert.Contains(t, attachments.Value, "notes.txt")
		assert.Contains(t, attachments.Value, "dog.png")
	})

	t.Run("extra embeds passed through when enabled", func(t *testing.T) {
		t.Parallel()

		msg := sourceMessage()
		msg.Embeds = []discord.Embed{{Description: "from source"}}

		sb := types.NewStarboard(100, 10)
		sb.ExtraEmbeds = true

		content := r.Render(msg, row, settings.Resolve(sb, nil), 3)
		require.Len(t, content.Embeds, 2)
		assert.Equal(t, "from source", content.Embeds[1].Description)
	})
}
