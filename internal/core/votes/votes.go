// Package votes records and tallies member votes and decides whether a
// given vote attempt counts at all.
package votes

import (
	"context"
	"fmt"

	"github.com/veloras/starboard/internal/core/cooldown"
	"github.com/veloras/starboard/internal/core/settings"
	"github.com/veloras/starboard/internal/database/types"
	"go.uber.org/zap"
)

// Store is the persistence surface the tally needs.
type Store interface {
	CountVotes(ctx context.Context, messageID, starboardID uint64) (int, error)
	AddVotes(ctx context.Context, messageID, userID uint64, starboardIDs []uint64, targetAuthorID uint64) error
	RemoveVotes(ctx context.Context, messageID, userID uint64, starboardIDs []uint64) error
}

// Verdict is the outcome of a validity check. Reason is set only when
// the vote is rejected.
type Verdict struct {
	Valid  bool
	Reason string
}

// Tally fronts vote storage with validity checks and the cooldown
// bucket.
type Tally struct {
	store    Store
	cooldown *cooldown.Bucket
	logger   *zap.Logger
}

// NewTally creates a Tally. The cooldown bucket may be nil, in which
// case cooldown-enabled starboards accept every vote.
func NewTally(store Store, bucket *cooldown.Bucket, logger *zap.Logger) *Tally {
	return &Tally{
		store:    store,
		cooldown: bucket,
		logger:   logger.Named("votes"),
	}
}

// Count returns the current number of votes on a message for one
// starboard. Counts are always read fresh from storage.
func (t *Tally) Count(ctx context.Context, messageID, starboardID uint64) (int, error) {
	return t.store.CountVotes(ctx, messageID, starboardID)
}

// Add records voterID's vote on messageID for each starboard.
// Re-voting is a no-op.
func (t *Tally) Add(ctx context.Context, messageID, voterID uint64, starboardIDs []uint64, targetAuthorID uint64) error {
	return t.store.AddVotes(ctx, messageID, voterID, starboardIDs, targetAuthorID)
}

// Remove deletes voterID's vote on messageID for each starboard.
func (t *Tally) Remove(ctx context.Context, messageID, voterID uint64, starboardIDs []uint64) error {
	return t.store.RemoveVotes(ctx, messageID, voterID, starboardIDs)
}

// Validate decides whether a vote attempt by voterID on msg counts for
// the starboard described by cfg. The cooldown check runs last because
// it consumes a slot from the voter's window.
func (t *Tally) Validate(
	ctx context.Context, cfg *settings.Resolved, msg *types.Message, voterID uint64,
) (Verdict, error) {
	if msg.Trashed {
		return Verdict{Reason: "message is trashed"}, nil
	}

	if msg.Frozen {
		return Verdict{Reason: "message is frozen"}, nil
	}

	if voterID == msg.AuthorID && !cfg.SelfVote() {
		return Verdict{Reason: "self votes are not allowed"}, nil
	}

	if msg.AuthorIsBot && !cfg.AllowBots() {
		return Verdict{Reason: "bot messages cannot be voted on"}, nil
	}

	if cfg.CooldownEnabled() && t.cooldown != nil {
		allowed, err := t.cooldown.Try(ctx, cfg.Starboard.ID, voterID, cfg.CooldownCount(), cfg.CooldownPeriod())
		if err != nil {
			return Verdict{}, fmt.Errorf("failed to check vote cooldown: %w", err)
		}

		if !allowed {
			t.logger.Debug("Vote rejected by cooldown",
				zap.Uint64("starboardID", cfg.Starboard.ID),
				zap.Uint64("voterID", voterID))

			return Verdict{Reason: "you are voting too fast"}, nil
		}
	}

	return Verdict{Valid: true}, nil
}
