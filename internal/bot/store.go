package bot

import (
	"context"

	"github.com/veloras/starboard/internal/database"
	"github.com/veloras/starboard/internal/database/types"
)

// engineStore narrows the repository to the persistence surface the
// reconciliation engine needs.
type engineStore struct {
	repo *database.Repository
}

func (s *engineStore) GetStarboardsByGuild(ctx context.Context, guildID uint64) ([]*types.Starboard, error) {
	return s.repo.Starboard().GetStarboardsByGuild(ctx, guildID)
}

func (s *engineStore) GetStarboardsByIDs(ctx context.Context, starboardIDs []uint64) ([]*types.Starboard, error) {
	return s.repo.Starboard().GetStarboardsByIDs(ctx, starboardIDs)
}

func (s *engineStore) SetWebhookID(ctx context.Context, starboardID uint64, webhookID *uint64) error {
	return s.repo.Starboard().SetWebhookID(ctx, starboardID, webhookID)
}

func (s *engineStore) GetSBMessage(ctx context.Context, messageID, starboardID uint64) (*types.SBMessage, error) {
	return s.repo.SBMessage().GetSBMessage(ctx, messageID, starboardID)
}

func (s *engineStore) CreateSBMessage(ctx context.Context, messageID, starboardID uint64) (*types.SBMessage, error) {
	return s.repo.SBMessage().CreateSBMessage(ctx, messageID, starboardID)
}

func (s *engineStore) UpdateSBMessage(ctx context.Context, row *types.SBMessage) error {
	return s.repo.SBMessage().UpdateSBMessage(ctx, row)
}
