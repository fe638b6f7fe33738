package domain

import (
	"time"

	"github.com/jose-valero/dreamy-assistant-bot/internal/app/rolegate"
)

// GuildSettings son los ids configurados para un servidor.
type GuildSettings struct {
	GuildID string `yaml:"guild_id"`
	OwnerID string `yaml:"owner_id"`

	KeeperRoleID    string `yaml:"keeper_role_id"`    // dueños / staff principal
	GuardianRoleID  string `yaml:"guardian_role_id"`  // moderación
	OracleRoleID    string `yaml:"oracle_role_id"`    // soporte técnico
	LuminaryRoleID  string `yaml:"luminary_role_id"`  // eventos
	AssistantRoleID string `yaml:"assistant_role_id"` // bots asistentes

	SupportCategoryID  string `yaml:"support_category_id"`
	GeneralCategoryID  string `yaml:"general_category_id"`
	MusicVoiceID       string `yaml:"music_voice_id"`
	BotChannelID       string `yaml:"bot_channel_id"`
	MusicChannelID     string `yaml:"music_channel_id"`
	TicketChannelID    string `yaml:"ticket_channel_id"`
	TicketLogChannelID string `yaml:"ticket_log_channel_id"`

	BypassUserIDs []string `yaml:"bypass_user_ids,omitempty"`

	CreatedAt time.Time `yaml:"-"`
	UpdatedAt time.Time `yaml:"-"`
}

// AllowList devuelve los roles que habilitan cada acción.
func (g GuildSettings) AllowList(p rolegate.Policy) []string {
	switch p {
	case rolegate.Runners:
		return []string{g.KeeperRoleID, g.GuardianRoleID, g.OracleRoleID}
	case rolegate.Teams, rolegate.RuleGates:
		return []string{g.KeeperRoleID, g.LuminaryRoleID, g.GuardianRoleID, g.OracleRoleID}
	case rolegate.TicketMenu:
		return []string{g.KeeperRoleID, g.GuardianRoleID, g.OracleRoleID}
	case rolegate.TicketForceClose:
		return []string{g.GuardianRoleID, g.OracleRoleID}
	}
	return nil
}

// Bypass sólo aplica a los runs.
func (g GuildSettings) Bypass(p rolegate.Policy) []string {
	if p == rolegate.Runners {
		return g.BypassUserIDs
	}
	return nil
}

// PrivilegedRoles son los que ya tienen acceso total a canales con reglas.
func (g GuildSettings) PrivilegedRoles() []string {
	return []string{g.KeeperRoleID, g.LuminaryRoleID, g.GuardianRoleID, g.OracleRoleID}
}

// GuildSettingsPatch: nil = no cambia (igual que los updates parciales de /policy).
type GuildSettingsPatch struct {
	OwnerID *string

	KeeperRoleID    *string
	GuardianRoleID  *string
	OracleRoleID    *string
	LuminaryRoleID  *string
	AssistantRoleID *string

	SupportCategoryID  *string
	GeneralCategoryID  *string
	MusicVoiceID       *string
	BotChannelID       *string
	MusicChannelID     *string
	TicketChannelID    *string
	TicketLogChannelID *string

	BypassUserIDs *[]string
}

func (p GuildSettingsPatch) Empty() bool {
	return p == (GuildSettingsPatch{})
}

// Apply devuelve una copia de g con el patch aplicado.
func (p GuildSettingsPatch) Apply(g GuildSettings) GuildSettings {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&g.OwnerID, p.OwnerID)
	set(&g.KeeperRoleID, p.KeeperRoleID)
	set(&g.GuardianRoleID, p.GuardianRoleID)
	set(&g.OracleRoleID, p.OracleRoleID)
	set(&g.LuminaryRoleID, p.LuminaryRoleID)
	set(&g.AssistantRoleID, p.AssistantRoleID)
	set(&g.SupportCategoryID, p.SupportCategoryID)
	set(&g.GeneralCategoryID, p.GeneralCategoryID)
	set(&g.MusicVoiceID, p.MusicVoiceID)
	set(&g.BotChannelID, p.BotChannelID)
	set(&g.MusicChannelID, p.MusicChannelID)
	set(&g.TicketChannelID, p.TicketChannelID)
	set(&g.TicketLogChannelID, p.TicketLogChannelID)
	if p.BypassUserIDs != nil {
		g.BypassUserIDs = append([]string(nil), (*p.BypassUserIDs)...)
	}
	return g
}
