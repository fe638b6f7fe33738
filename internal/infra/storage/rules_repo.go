package storage

import (
	"context"
	"database/sql"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

type RulesRepo struct{ db *sql.DB }

func NewRulesRepo(db *sql.DB) *RulesRepo { return &RulesRepo{db: db} }

// CreateGate devuelve false si el canal ya tenía gate.
func (r *RulesRepo) CreateGate(ctx context.Context, g domain.RuleGate) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO rule_channels (channel_id, guild_id, created_by)
VALUES ($1,$2,$3)
ON CONFLICT (channel_id) DO NOTHING
`, g.ChannelID, g.GuildID, g.CreatedBy)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *RulesRepo) Gate(ctx context.Context, channelID string) (domain.RuleGate, error) {
	var g domain.RuleGate
	err := r.db.QueryRowContext(ctx, `
SELECT channel_id, guild_id, created_by, created_at
  FROM rule_channels
 WHERE channel_id = $1
`, channelID).Scan(&g.ChannelID, &g.GuildID, &g.CreatedBy, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.RuleGate{}, ErrNotFound
	}
	return g, err
}

// DeleteGate borra el gate y sus aceptaciones en una transacción.
func (r *RulesRepo) DeleteGate(ctx context.Context, channelID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rules_accepted WHERE channel_id = $1`, channelID); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM rule_channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, tx.Commit()
}

func (r *RulesRepo) HasAccepted(ctx context.Context, channelID, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM rules_accepted WHERE channel_id = $1 AND user_id = $2)
`, channelID, userID).Scan(&ok)
	return ok, err
}

func (r *RulesRepo) Accept(ctx context.Context, channelID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO rules_accepted (channel_id, user_id)
VALUES ($1,$2)
ON CONFLICT (channel_id, user_id) DO NOTHING
`, channelID, userID)
	return err
}
