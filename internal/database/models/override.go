package models

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/veloras/starboard/internal/database/dbretry"
	"github.com/veloras/starboard/internal/database/types"
	"go.uber.org/zap"
)

// OverrideModel handles database operations for setting overrides.
type OverrideModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewOverride creates a new override model instance.
func NewOverride(db *bun.DB, logger *zap.Logger) *OverrideModel {
	return &OverrideModel{
		db:     db,
		logger: logger.Named("db_override"),
	}
}

// GetOverridesForChannels fetches the overrides of a starboard whose
// channel set intersects the qualified channel chain. Rows come back
// ordered by id, which is the load order used for first-match-wins
// precedence.
func (m *OverrideModel) GetOverridesForChannels(
	ctx context.Context, starboardID uint64, channelIDs []uint64,
) ([]*types.Override, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}

	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Override, error) {
		var overrides []*types.Override

		err := m.db.NewSelect().
			Model(&overrides).
			Where("starboard_id = ?", starboardID).
			Where("channel_ids && ?", pgdialect.Array(channelIDs)).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get channel overrides: %w", err)
		}

		return overrides, nil
	})
}

// GetOverridesByStarboard fetches all overrides configured for a
// starboard in load order.
func (m *OverrideModel) GetOverridesByStarboard(ctx context.Context, starboardID uint64) ([]*types.Override, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Override, error) {
		var overrides []*types.Override

		err := m.db.NewSelect().
			Model(&overrides).
			Where("starboard_id = ?", starboardID).
			Order("id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get starboard overrides: %w", err)
		}

		return overrides, nil
	})
}

// CreateOverride inserts a new override. The (guild, name) unique index
// rejects duplicate names.
func (m *OverrideModel) CreateOverride(ctx context.Context, override *types.Override) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(override).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert override: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Created override",
		zap.String("name", override.Name),
		zap.Uint64("starboardID", override.StarboardID),
		zap.Int("channels", len(override.ChannelIDs)))

	return nil
}

// UpdateOverride persists the channel set and settings delta of an
// override.
func (m *OverrideModel) UpdateOverride(ctx context.Context, override *types.Override) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewUpdate().
			Model(override).
			Column("channel_ids", "settings").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update override: %w", err)
		}

		return nil
	})
}

// DeleteOverride removes an override by guild and name.
func (m *OverrideModel) DeleteOverride(ctx context.Context, guildID uint64, name string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewDelete().
			Model((*types.Override)(nil)).
			Where("guild_id = ?", guildID).
			Where("name = ?", name).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete override: %w", err)
		}

		return nil
	})
}
