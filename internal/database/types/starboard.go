package types

// Starboard is one announcement channel configured to mirror
// qualifying messages. The row id doubles as the Discord channel id.
type Starboard struct {
	ID        uint64  `bun:"id,pk"      json:"id"`
	GuildID   uint64  `bun:",notnull"   json:"guildId"`
	WebhookID *uint64 `bun:"webhook_id" json:"webhookId"`

	// Appearance
	Color            int     `bun:",notnull"           json:"color"`
	DisplayEmoji     *string `bun:"display_emoji"      json:"displayEmoji"`
	PingAuthor       bool    `bun:",notnull"           json:"pingAuthor"`
	UseServerProfile bool    `bun:",notnull"           json:"useServerProfile"`
	ExtraEmbeds      bool    `bun:",notnull"           json:"extraEmbeds"`
	UseWebhook       bool    `bun:",notnull"           json:"useWebhook"`
	WebhookName      string  `bun:",notnull"           json:"webhookName"`
	WebhookAvatar    *string `bun:"webhook_avatar"     json:"webhookAvatar"`

	// Requirements
	Required       int      `bun:",notnull"              json:"required"`
	RequiredRemove int      `bun:",notnull"              json:"requiredRemove"`
	UpvoteEmojis   []string `bun:"upvote_emojis,array"   json:"upvoteEmojis"`
	SelfVote       bool     `bun:",notnull"              json:"selfVote"`
	AllowBots      bool     `bun:",notnull"              json:"allowBots"`
	RequireImage   bool     `bun:",notnull"              json:"requireImage"`

	// Behavior
	Enabled         bool `bun:",notnull" json:"enabled"`
	Autoreact       bool `bun:",notnull" json:"autoreact"`
	RemoveInvalid   bool `bun:",notnull" json:"removeInvalid"`
	LinkDeletes     bool `bun:",notnull" json:"linkDeletes"`
	LinkEdits       bool `bun:",notnull" json:"linkEdits"`
	Private         bool `bun:",notnull" json:"private"`
	CooldownEnabled bool `bun:",notnull" json:"cooldownEnabled"`
	CooldownCount   int  `bun:",notnull" json:"cooldownCount"`
	CooldownPeriod  int  `bun:",notnull" json:"cooldownPeriod"`

	PremiumLocked bool `bun:",notnull" json:"premiumLocked"`
}

// NewStarboard returns a starboard row with the stock defaults applied.
func NewStarboard(id, guildID uint64) *Starboard {
	emoji := "⭐"

	return &Starboard{
		ID:               id,
		GuildID:          guildID,
		Color:            0xFFE19C,
		DisplayEmoji:     &emoji,
		UseServerProfile: true,
		ExtraEmbeds:      true,
		WebhookName:      "Starboard",
		Required:         3,
		RequiredRemove:   0,
		UpvoteEmojis:     []string{"⭐"},
		AllowBots:        true,
		Enabled:          true,
		Autoreact:        true,
		RemoveInvalid:    true,
		LinkEdits:        true,
		CooldownCount:    5,
		CooldownPeriod:   5,
	}
}
