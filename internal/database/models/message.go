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

// MessageModel handles database operations for tracked source messages.
type MessageModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMessage creates a new message model instance.
func NewMessage(db *bun.DB, logger *zap.Logger) *MessageModel {
	return &MessageModel{
		db:     db,
		logger: logger.Named("db_message"),
	}
}

// GetMessage fetches a tracked message by id. Returns nil without an
// error when the message is not tracked.
func (m *MessageModel) GetMessage(ctx context.Context, messageID uint64) (*types.Message, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Message, error) {
		msg := new(types.Message)

		err := m.db.NewSelect().
			Model(msg).
			Where("id = ?", messageID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}

			return nil, fmt.Errorf("failed to get message: %w", err)
		}

		return msg, nil
	})
}

// GetOrCreateMessage inserts the message row if it is not tracked yet
// and returns the stored row. Racing inserts converge on the existing
// row via the conflict clause.
func (m *MessageModel) GetOrCreateMessage(ctx context.Context, msg *types.Message) (*types.Message, error) {
	if existing, err := m.GetMessage(ctx, msg.ID); err != nil || existing != nil {
		return existing, err
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(msg).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return m.GetMessage(ctx, msg.ID)
}

// ResolveOriginal maps a message id that may belong to a mirror back to
// the tracked source message. Returns nil when the id matches neither a
// mirror nor a tracked message.
func (m *MessageModel) ResolveOriginal(ctx context.Context, messageID uint64) (*types.Message, error) {
	mirror, err := dbretry.Operation(ctx, func(ctx context.Context) (*types.SBMessage, error) {
		row := new(types.SBMessage)

		err := m.db.NewSelect().
			Model(row).
			Where("sb_message_id = ?", messageID).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}

			return nil, fmt.Errorf("failed to look up mirror row: %w", err)
		}

		return row, nil
	})
	if err != nil {
		return nil, err
	}

	if mirror != nil {
		return m.GetMessage(ctx, mirror.MessageID)
	}

	return m.GetMessage(ctx, messageID)
}

// UpdateFlags persists the externally mutable flags of a tracked
// message (forced_to, trashed, trash_reason, frozen).
func (m *MessageModel) UpdateFlags(ctx context.Context, msg *types.Message) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model(msg).
			Column("forced_to", "trashed", "trash_reason", "frozen").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update message flags: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Updated message flags",
		zap.Uint64("messageID", msg.ID),
		zap.Bool("trashed", msg.Trashed),
		zap.Bool("frozen", msg.Frozen),
		zap.Int("forcedTo", len(msg.ForcedTo)))

	return nil
}
