package types

// SBMessage tracks the mirror of a source message on one starboard:
// the posted copy's id (nil while not currently mirrored) and the vote
// count observed at the last reconciliation. Rows are created on the
// first reconciliation attempt for the pair and never deleted; stale
// rows simply re-evaluate to a remove or a no-op.
type SBMessage struct {
	MessageID   uint64 `bun:",pk" json:"messageId"`
	StarboardID uint64 `bun:",pk" json:"starboardId"`

	SBMessageID *uint64 `bun:"sb_message_id" json:"sbMessageId"`

	LastKnownVoteCount int `bun:",notnull" json:"lastKnownVoteCount"`
}
