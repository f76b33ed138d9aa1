package database

import (
	"github.com/uptrace/bun"
	"github.com/veloras/starboard/internal/database/models"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	guild     *models.GuildModel
	message   *models.MessageModel
	starboard *models.StarboardModel
	override  *models.OverrideModel
	vote      *models.VoteModel
	sbMessage *models.SBMessageModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		guild:     models.NewGuild(db, logger),
		message:   models.NewMessage(db, logger),
		starboard: models.NewStarboard(db, logger),
		override:  models.NewOverride(db, logger),
		vote:      models.NewVote(db, logger),
		sbMessage: models.NewSBMessage(db, logger),
	}
}

// Guild returns the guild model repository.
func (r *Repository) Guild() *models.GuildModel {
	return r.guild
}

// Message returns the tracked message model repository.
func (r *Repository) Message() *models.MessageModel {
	return r.message
}

// Starboard returns the starboard model repository.
func (r *Repository) Starboard() *models.StarboardModel {
	return r.starboard
}

// Override returns the override model repository.
func (r *Repository) Override() *models.OverrideModel {
	return r.override
}

// Vote returns the vote model repository.
func (r *Repository) Vote() *models.VoteModel {
	return r.vote
}

// SBMessage returns the mirror-state model repository.
func (r *Repository) SBMessage() *models.SBMessageModel {
	return r.sbMessage
}
