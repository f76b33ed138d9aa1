package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/veloras/starboard/internal/database/types"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Order matters for the foreign keys below
		models := []any{
			(*types.Guild)(nil),
			(*types.Message)(nil),
			(*types.Starboard)(nil),
			(*types.Override)(nil),
			(*types.Vote)(nil),
			(*types.SBMessage)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		_, err := db.NewRaw(`
			-- Override names are unique per guild
			CREATE UNIQUE INDEX IF NOT EXISTS idx_overrides_guild_name
			ON overrides (guild_id, name);

			-- Override applicability lookups filter by starboard and
			-- overlap against the qualified channel chain
			CREATE INDEX IF NOT EXISTS idx_overrides_starboard
			ON overrides (starboard_id);

			CREATE INDEX IF NOT EXISTS idx_overrides_channel_ids
			ON overrides USING GIN (channel_ids);

			-- Vote tallies group by (message, starboard)
			CREATE INDEX IF NOT EXISTS idx_votes_message_starboard
			ON votes (message_id, starboard_id);

			CREATE INDEX IF NOT EXISTS idx_starboards_guild
			ON starboards (guild_id);

			CREATE INDEX IF NOT EXISTS idx_messages_guild
			ON messages (guild_id);

			-- Mirror rows are also looked up by their posted copy's id
			CREATE INDEX IF NOT EXISTS idx_sb_messages_sb_message_id
			ON sb_messages (sb_message_id)
			WHERE sb_message_id IS NOT NULL;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.SBMessage)(nil),
			(*types.Vote)(nil),
			(*types.Override)(nil),
			(*types.Starboard)(nil),
			(*types.Message)(nil),
			(*types.Guild)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
