package types

// Override is a named, guild-scoped bundle of setting deltas applied
// on top of one starboard's base settings for a specific set of
// channels. Settings keys are restricted to the starboard settings
// registry; that invariant is enforced when edits are validated, not
// here.
type Override struct {
	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	GuildID uint64 `bun:",notnull"            json:"guildId"`
	Name    string `bun:",notnull"            json:"name"`

	StarboardID uint64 `bun:",notnull" json:"starboardId"`

	// ChannelIDs is the set of channels (or parent categories) the
	// override applies to.
	ChannelIDs []uint64 `bun:"channel_ids,array" json:"channelIds"`

	// Settings is the sparse delta map, stored as JSONB.
	Settings map[string]any `bun:"settings,type:jsonb,notnull" json:"settings"`
}
