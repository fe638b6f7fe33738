package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

type GuildRepo struct{ db *sql.DB }

func NewGuildRepo(db *sql.DB) *GuildRepo { return &GuildRepo{db: db} }

const guildCols = `guild_id, owner_id, keeper_role_id, guardian_role_id, oracle_role_id, luminary_role_id,
       assistant_role_id, support_category_id, general_category_id, music_voice_id, bot_channel_id,
       music_channel_id, ticket_channel_id, ticket_log_channel_id, bypass_user_ids, created_at, updated_at`

type scanner interface{ Scan(dest ...any) error }

func scanGuild(row scanner) (domain.GuildSettings, error) {
	var g domain.GuildSettings
	err := row.Scan(
		&g.GuildID, &g.OwnerID, &g.KeeperRoleID, &g.GuardianRoleID, &g.OracleRoleID, &g.LuminaryRoleID,
		&g.AssistantRoleID, &g.SupportCategoryID, &g.GeneralCategoryID, &g.MusicVoiceID, &g.BotChannelID,
		&g.MusicChannelID, &g.TicketChannelID, &g.TicketLogChannelID, pq.Array(&g.BypassUserIDs), &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

func (r *GuildRepo) Get(ctx context.Context, guildID string) (domain.GuildSettings, error) {
	g, err := scanGuild(r.db.QueryRowContext(ctx, `
SELECT `+guildCols+`
  FROM guild_settings
 WHERE guild_id = $1
`, guildID))
	if err == sql.ErrNoRows {
		return domain.GuildSettings{}, ErrNotFound
	}
	return g, err
}

func (r *GuildRepo) List(ctx context.Context) ([]domain.GuildSettings, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+guildCols+` FROM guild_settings ORDER BY guild_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GuildSettings
	for rows.Next() {
		g, err := scanGuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GuildRepo) Upsert(ctx context.Context, g domain.GuildSettings) error {
	bypass := g.BypassUserIDs
	if bypass == nil {
		bypass = []string{}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_settings
  (guild_id, owner_id, keeper_role_id, guardian_role_id, oracle_role_id, luminary_role_id, assistant_role_id,
   support_category_id, general_category_id, music_voice_id, bot_channel_id, music_channel_id,
   ticket_channel_id, ticket_log_channel_id, bypass_user_ids)
VALUES
  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (guild_id) DO UPDATE SET
  owner_id              = EXCLUDED.owner_id,
  keeper_role_id        = EXCLUDED.keeper_role_id,
  guardian_role_id      = EXCLUDED.guardian_role_id,
  oracle_role_id        = EXCLUDED.oracle_role_id,
  luminary_role_id      = EXCLUDED.luminary_role_id,
  assistant_role_id     = EXCLUDED.assistant_role_id,
  support_category_id   = EXCLUDED.support_category_id,
  general_category_id   = EXCLUDED.general_category_id,
  music_voice_id        = EXCLUDED.music_voice_id,
  bot_channel_id        = EXCLUDED.bot_channel_id,
  music_channel_id      = EXCLUDED.music_channel_id,
  ticket_channel_id     = EXCLUDED.ticket_channel_id,
  ticket_log_channel_id = EXCLUDED.ticket_log_channel_id,
  bypass_user_ids       = EXCLUDED.bypass_user_ids,
  updated_at            = NOW()
`, g.GuildID, g.OwnerID, g.KeeperRoleID, g.GuardianRoleID, g.OracleRoleID, g.LuminaryRoleID, g.AssistantRoleID,
		g.SupportCategoryID, g.GeneralCategoryID, g.MusicVoiceID, g.BotChannelID, g.MusicChannelID,
		g.TicketChannelID, g.TicketLogChannelID, pq.Array(bypass))
	return err
}

// Update aplica sólo los campos presentes en el patch; crea la fila si no existe.
func (r *GuildRepo) Update(ctx context.Context, guildID string, p domain.GuildSettingsPatch) (domain.GuildSettings, error) {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO guild_settings (guild_id) VALUES ($1) ON CONFLICT (guild_id) DO NOTHING
`, guildID); err != nil {
		return domain.GuildSettings{}, err
	}

	cols := []struct {
		name string
		v    *string
	}{
		{"owner_id", p.OwnerID},
		{"keeper_role_id", p.KeeperRoleID},
		{"guardian_role_id", p.GuardianRoleID},
		{"oracle_role_id", p.OracleRoleID},
		{"luminary_role_id", p.LuminaryRoleID},
		{"assistant_role_id", p.AssistantRoleID},
		{"support_category_id", p.SupportCategoryID},
		{"general_category_id", p.GeneralCategoryID},
		{"music_voice_id", p.MusicVoiceID},
		{"bot_channel_id", p.BotChannelID},
		{"music_channel_id", p.MusicChannelID},
		{"ticket_channel_id", p.TicketChannelID},
		{"ticket_log_channel_id", p.TicketLogChannelID},
	}

	sets := make([]string, 0, len(cols)+2)
	args := make([]any, 0, len(cols)+2)
	i := 1
	for _, c := range cols {
		if c.v == nil {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, i))
		args = append(args, *c.v)
		i++
	}
	if p.BypassUserIDs != nil {
		sets = append(sets, fmt.Sprintf("bypass_user_ids = $%d", i))
		args = append(args, pq.Array(*p.BypassUserIDs))
		i++
	}
	if len(sets) == 0 {
		// nada que cambiar
		return r.Get(ctx, guildID)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, guildID)

	_, err := r.db.ExecContext(ctx, `
UPDATE guild_settings
   SET `+strings.Join(sets, ", ")+`
 WHERE guild_id = $`+fmt.Sprint(i), args...)
	if err != nil {
		return domain.GuildSettings{}, err
	}
	return r.Get(ctx, guildID)
}
