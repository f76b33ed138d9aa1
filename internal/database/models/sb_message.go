package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/veloras/starboard/internal/database/dbretry"
	"github.com/veloras/starboard/internal/database/types"
	"go.uber.org/zap"
)

// SBMessageModel handles database operations for mirror-state rows.
type SBMessageModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSBMessage creates a new mirror-state model instance.
func NewSBMessage(db *bun.DB, logger *zap.Logger) *SBMessageModel {
	return &SBMessageModel{
		db:     db,
		logger: logger.Named("db_sb_message"),
	}
}

// GetSBMessage fetches the mirror-state row for a (message, starboard)
// pair. Returns nil without an error when the pair has never been
// reconciled.
func (m *SBMessageModel) GetSBMessage(ctx context.Context, messageID, starboardID uint64) (*types.SBMessage, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.SBMessage, error) {
		row := new(types.SBMessage)

		err := m.db.NewSelect().
			Model(row).
			Where("message_id = ?", messageID).
			Where("starboard_id = ?", starboardID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}

			return nil, fmt.Errorf("failed to get mirror row: %w", err)
		}

		return row, nil
	})
}

// CreateSBMessage inserts a fresh mirror-state row for the pair.
// Racing creations converge on the stored row.
func (m *SBMessageModel) CreateSBMessage(ctx context.Context, messageID, starboardID uint64) (*types.SBMessage, error) {
	row := &types.SBMessage{
		MessageID:   messageID,
		StarboardID: starboardID,
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(row).
			On("CONFLICT (message_id, starboard_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert mirror row: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return m.GetSBMessage(ctx, messageID, starboardID)
}

// UpdateSBMessage persists the mirror message id (or nil) and the vote
// count observed during reconciliation.
func (m *SBMessageModel) UpdateSBMessage(ctx context.Context, row *types.SBMessage) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model(row).
			Column("sb_message_id", "last_known_vote_count").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update mirror row: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Updated mirror row",
		zap.Uint64("messageID", row.MessageID),
		zap.Uint64("starboardID", row.StarboardID),
		zap.Int("votes", row.LastKnownVoteCount))

	return nil
}
