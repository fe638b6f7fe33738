package storage

import (
	"context"
	"database/sql"
)

type PanelRepo struct{ db *sql.DB }

func NewPanelRepo(db *sql.DB) *PanelRepo { return &PanelRepo{db: db} }

func (r *PanelRepo) Get(ctx context.Context, guildID, kind string) (Panel, error) {
	var p Panel
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, kind, channel_id, message_id, created_at, updated_at
  FROM guild_panels
 WHERE guild_id = $1 AND kind = $2
`, guildID, kind).Scan(&p.GuildID, &p.Kind, &p.ChannelID, &p.MessageID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return Panel{}, ErrNotFound
	}
	return p, err
}

func (r *PanelRepo) Upsert(ctx context.Context, guildID, kind, channelID, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_panels (guild_id, kind, channel_id, message_id)
VALUES ($1,$2,$3,$4)
ON CONFLICT (guild_id, kind) DO UPDATE SET
  channel_id = EXCLUDED.channel_id,
  message_id = EXCLUDED.message_id,
  updated_at = now()
`, guildID, kind, channelID, messageID)
	return err
}
