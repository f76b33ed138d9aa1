package models

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/veloras/starboard/internal/database/dbretry"
	"github.com/veloras/starboard/internal/database/types"
	"go.uber.org/zap"
)

// GuildModel handles database operations for guild rows.
type GuildModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGuild creates a new guild model instance.
func NewGuild(db *bun.DB, logger *zap.Logger) *GuildModel {
	return &GuildModel{
		db:     db,
		logger: logger.Named("db_guild"),
	}
}

// GetOrCreate ensures a guild row exists and returns it.
func (m *GuildModel) GetOrCreate(ctx context.Context, guildID uint64) (*types.Guild, error) {
	guild := &types.Guild{
		ID:        guildID,
		CreatedAt: time.Now(),
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(guild).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert guild: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return guild, nil
}
