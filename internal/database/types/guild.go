package types

import (
	"time"
)

// Guild represents a Discord guild known to the starboard.
// A row is created lazily the first time a starboard or tracked
// message is created for the guild.
type Guild struct {
	ID        uint64    `bun:"id,pk"        json:"id"`
	CreatedAt time.Time `bun:",notnull"     json:"createdAt"`
}
