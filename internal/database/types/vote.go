package types

// Vote is one vote record per (voter, message, starboard). Its
// existence implies a counted vote; the tally is a plain count over
// these rows.
type Vote struct {
	MessageID   uint64 `bun:",pk"      json:"messageId"`
	StarboardID uint64 `bun:",pk"      json:"starboardId"`
	UserID      uint64 `bun:",pk"      json:"userId"`

	TargetAuthorID uint64 `bun:",notnull" json:"targetAuthorId"`
}
