package models

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/veloras/starboard/internal/database/dbretry"
	"github.com/veloras/starboard/internal/database/types"
	"go.uber.org/zap"
)

// VoteModel handles database operations for vote rows.
type VoteModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewVote creates a new vote model instance.
func NewVote(db *bun.DB, logger *zap.Logger) *VoteModel {
	return &VoteModel{
		db:     db,
		logger: logger.Named("db_vote"),
	}
}

// CountVotes returns the number of distinct votes for one (message,
// starboard) pair. This read is never cached; it feeds threshold
// comparisons directly.
func (m *VoteModel) CountVotes(ctx context.Context, messageID, starboardID uint64) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.Vote)(nil)).
			Where("message_id = ?", messageID).
			Where("starboard_id = ?", starboardID).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count votes: %w", err)
		}

		return count, nil
	})
}

// AddVotes records one voter's vote on a message for each of the given
// starboards. Re-votes are absorbed by the primary key conflict clause.
func (m *VoteModel) AddVotes(
	ctx context.Context, messageID, userID uint64, starboardIDs []uint64, targetAuthorID uint64,
) error {
	if len(starboardIDs) == 0 {
		return nil
	}

	votes := make([]*types.Vote, 0, len(starboardIDs))
	for _, sbID := range starboardIDs {
		votes = append(votes, &types.Vote{
			MessageID:      messageID,
			StarboardID:    sbID,
			UserID:         userID,
			TargetAuthorID: targetAuthorID,
		})
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(&votes).
			On("CONFLICT (message_id, starboard_id, user_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert votes: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Added votes",
		zap.Uint64("messageID", messageID),
		zap.Uint64("userID", userID),
		zap.Int("starboards", len(starboardIDs)))

	return nil
}

// RemoveVotes deletes one voter's votes on a message for the given
// starboards.
func (m *VoteModel) RemoveVotes(ctx context.Context, messageID, userID uint64, starboardIDs []uint64) error {
	if len(starboardIDs) == 0 {
		return nil
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewDelete().
			Model((*types.Vote)(nil)).
			Where("message_id = ?", messageID).
			Where("user_id = ?", userID).
			Where("starboard_id IN (?)", bun.In(starboardIDs)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}

		return nil
	})
}
