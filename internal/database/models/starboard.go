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

// ErrStarboardLimit is returned when a guild already has the maximum
// number of starboards allowed by configuration.
var ErrStarboardLimit = errors.New("starboard limit reached for this guild")

// StarboardModel handles database operations for starboard rows.
type StarboardModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewStarboard creates a new starboard model instance.
func NewStarboard(db *bun.DB, logger *zap.Logger) *StarboardModel {
	return &StarboardModel{
		db:     db,
		logger: logger.Named("db_starboard"),
	}
}

// GetStarboard fetches one starboard by id. Returns nil without an
// error when no starboard is configured for the channel.
func (m *StarboardModel) GetStarboard(ctx context.Context, starboardID uint64) (*types.Starboard, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Starboard, error) {
		sb := new(types.Starboard)

		err := m.db.NewSelect().
			Model(sb).
			Where("id = ?", starboardID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}

			return nil, fmt.Errorf("failed to get starboard: %w", err)
		}

		return sb, nil
	})
}

// GetStarboardsByGuild fetches all starboards of a guild.
func (m *StarboardModel) GetStarboardsByGuild(ctx context.Context, guildID uint64) ([]*types.Starboard, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Starboard, error) {
		var starboards []*types.Starboard

		err := m.db.NewSelect().
			Model(&starboards).
			Where("guild_id = ?", guildID).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get guild starboards: %w", err)
		}

		return starboards, nil
	})
}

// GetStarboardsByIDs fetches the given starboards, skipping ids that no
// longer exist.
func (m *StarboardModel) GetStarboardsByIDs(ctx context.Context, starboardIDs []uint64) ([]*types.Starboard, error) {
	if len(starboardIDs) == 0 {
		return nil, nil
	}

	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Starboard, error) {
		var starboards []*types.Starboard

		err := m.db.NewSelect().
			Model(&starboards).
			Where("id IN (?)", bun.In(starboardIDs)).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get starboards: %w", err)
		}

		return starboards, nil
	})
}

// CreateStarboard inserts a new starboard, enforcing the per-guild
// limit.
func (m *StarboardModel) CreateStarboard(ctx context.Context, sb *types.Starboard, maxPerGuild int) error {
	count, err := dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.Starboard)(nil)).
			Where("guild_id = ?", sb.GuildID).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count guild starboards: %w", err)
		}

		return count, nil
	})
	if err != nil {
		return err
	}

	if count >= maxPerGuild {
		return ErrStarboardLimit
	}

	err = dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(sb).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert starboard: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Created starboard",
		zap.Uint64("starboardID", sb.ID),
		zap.Uint64("guildID", sb.GuildID))

	return nil
}

// SetWebhookID persists the id of the managed webhook for a starboard.
// Pass nil to clear a stale id.
func (m *StarboardModel) SetWebhookID(ctx context.Context, starboardID uint64, webhookID *uint64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model((*types.Starboard)(nil)).
			Set("webhook_id = ?", webhookID).
			Where("id = ?", starboardID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set starboard webhook: %w", err)
		}

		return nil
	})
}

// UpdateSettings persists the full settings row of a starboard.
func (m *StarboardModel) UpdateSettings(ctx context.Context, sb *types.Starboard) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model(sb).
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update starboard settings: %w", err)
		}

		return nil
	})
}

// DeleteStarboard removes a starboard row.
func (m *StarboardModel) DeleteStarboard(ctx context.Context, starboardID uint64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewDelete().
			Model((*types.Starboard)(nil)).
			Where("id = ?", starboardID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete starboard: %w", err)
		}

		return nil
	})
}
