package types

// Message is a source message being tracked for starring.
// Rows are created lazily on the first vote or command touching the
// message and are never deleted outside of administrative purges.
type Message struct {
	ID        uint64 `bun:"id,pk"      json:"id"`
	GuildID   uint64 `bun:",notnull"   json:"guildId"`
	ChannelID uint64 `bun:",notnull"   json:"channelId"`
	AuthorID  uint64 `bun:",notnull"   json:"authorId"`

	AuthorIsBot bool `bun:",notnull" json:"authorIsBot"`
	IsNSFW      bool `bun:"is_nsfw,notnull" json:"isNsfw"`

	// ForcedTo lists starboard ids the message must appear on
	// regardless of its vote count.
	ForcedTo    []uint64 `bun:"forced_to,array" json:"forcedTo"`
	Trashed     bool     `bun:",notnull"        json:"trashed"`
	TrashReason *string  `bun:"trash_reason"    json:"trashReason"`
	Frozen      bool     `bun:",notnull"        json:"frozen"`
}

// IsForcedTo reports whether the message is forced onto the given starboard.
func (m *Message) IsForcedTo(starboardID uint64) bool {
	for _, id := range m.ForcedTo {
		if id == starboardID {
			return true
		}
	}

	return false
}
