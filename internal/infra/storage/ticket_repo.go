package storage

import (
	"context"
	"database/sql"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

type TicketRepo struct{ db *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

func (r *TicketRepo) Create(ctx context.Context, t domain.OpenTicket) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO open_tickets (channel_id, guild_id, user_id, kind)
VALUES ($1,$2,$3,$4)
`, t.ChannelID, t.GuildID, t.UserID, t.Kind)
	return err
}

func (r *TicketRepo) ByChannel(ctx context.Context, channelID string) (domain.OpenTicket, error) {
	var t domain.OpenTicket
	err := r.db.QueryRowContext(ctx, `
SELECT channel_id, guild_id, user_id, kind, created_at
  FROM open_tickets
 WHERE channel_id = $1
`, channelID).Scan(&t.ChannelID, &t.GuildID, &t.UserID, &t.Kind, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.OpenTicket{}, ErrNotFound
	}
	return t, err
}

// ByUser devuelve los tickets abiertos de un usuario en el guild.
func (r *TicketRepo) ByUser(ctx context.Context, guildID, userID string) ([]domain.OpenTicket, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT channel_id, guild_id, user_id, kind, created_at
  FROM open_tickets
 WHERE guild_id = $1 AND user_id = $2
 ORDER BY created_at ASC
`, guildID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OpenTicket
	for rows.Next() {
		var t domain.OpenTicket
		if err := rows.Scan(&t.ChannelID, &t.GuildID, &t.UserID, &t.Kind, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TicketRepo) Delete(ctx context.Context, channelID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM open_tickets WHERE channel_id = $1`, channelID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
