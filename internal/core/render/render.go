// Package render turns a source message into the content posted to a
// starboard channel.
package render

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/veloras/starboard/internal/core/settings"
	"github.com/veloras/starboard/internal/database/types"
)

// Content is a rendered mirror message.
type Content struct {
	Body   string
	Embeds []discord.Embed
}

// Renderer builds mirror content from a source message. The engine
// only depends on this interface. A nil msg yields header-only content
// for mirrors whose source is no longer fetchable.
type Renderer interface {
	Render(msg *discord.Message, row *types.Message, cfg *settings.Resolved, points int) Content
}

// MessageRenderer is the default Renderer.
type MessageRenderer struct{}

// NewMessageRenderer creates the default renderer.
func NewMessageRenderer() *MessageRenderer {
	return &MessageRenderer{}
}

// Render builds the header line and the quote embed for a source
// message. Extra embeds from the source are passed through when the
// starboard asks for them. The header needs only the tracked row, so a
// deleted source still renders a current vote count.
func (r *MessageRenderer) Render(
	msg *discord.Message, row *types.Message, cfg *settings.Resolved, points int,
) Content {
	content := Content{Body: r.header(row, cfg, points)}

	if msg != nil {
		content.Embeds = r.embeds(msg, cfg)
	}

	return content
}

func (r *MessageRenderer) header(row *types.Message, cfg *settings.Resolved, points int) string {
	emoji := "⭐"
	if e := cfg.DisplayEmoji(); e != nil {
		emoji = *e
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s **%d** | <#%d>", emoji, points, row.ChannelID)

	if row.Frozen {
		b.WriteString(" ❄️")
	}

	if row.IsForcedTo(cfg.Starboard.ID) {
		b.WriteString(" 🔒")
	}

	if row.Trashed {
		b.WriteString(" 🗑️")
	}

	if cfg.PingAuthor() {
		fmt.Fprintf(&b, "\n<@%d>", row.AuthorID)
	}

	return b.String()
}

func (r *MessageRenderer) embeds(msg *discord.Message, cfg *settings.Resolved) []discord.Embed {
	name, avatarURL := r.authorIdentity(msg, cfg)

	builder := discord.NewEmbedBuilder().
		SetAuthor(name, "", avatarURL).
		SetColor(cfg.Color()).
		SetTimestamp(msg.ID.Time())

	description := msg.Content
	if description == "" && len(msg.Attachments) > 0 {
		description = "*Message only contains attachments.*"
	}

	builder.SetDescription(description)
	builder.AddField("Original", fmt.Sprintf("[Jump!](%s)", msg.JumpURL()), true)

	var (
		extraFiles []string
		imageSet   bool
	)

	for _, att := range msg.Attachments {
		if isImage(att) && !imageSet {
			builder.SetImage(att.URL)

			imageSet = true

			continue
		}

		extraFiles = append(extraFiles, fmt.Sprintf("[%s](%s)", att.Filename, att.URL))
	}

	if len(extraFiles) > 0 {
		builder.AddField("Attachments", strings.Join(extraFiles, "\n"), true)
	}

	embeds := []discord.Embed{builder.Build()}

	if cfg.ExtraEmbeds() {
		for _, e := range msg.Embeds {
			if len(embeds) == 10 {
				break
			}

			embeds = append(embeds, e)
		}
	}

	return embeds
}

// authorIdentity picks the display name and avatar, preferring the
// guild profile when configured and the member data is on the message.
func (r *MessageRenderer) authorIdentity(msg *discord.Message, cfg *settings.Resolved) (string, string) {
	name := msg.Author.EffectiveName()
	avatarURL := msg.Author.EffectiveAvatarURL()

	if cfg.UseServerProfile() && msg.Member != nil {
		if msg.Member.Nick != nil && *msg.Member.Nick != "" {
			name = *msg.Member.Nick
		}

		if url := msg.Member.EffectiveAvatarURL(); url != "" {
			avatarURL = url
		}
	}

	return name, avatarURL
}

func isImage(att discord.Attachment) bool {
	return att.ContentType != nil && strings.HasPrefix(*att.ContentType, "image/")
}
