package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

type SettingsService struct {
	repo GuildStore
	dir  *Directory
}

func NewSettingsService(r GuildStore, dir *Directory) *SettingsService {
	return &SettingsService{repo: r, dir: dir}
}

func (s *SettingsService) Show(ctx context.Context, guildID string) (string, error) {
	g, ok := s.dir.Get(guildID)
	if !ok {
		return "ℹ️ This server has no settings yet. The owner can run `/setup_roles` and `/setup_channels`.", nil
	}
	return FormatSettings(g), nil
}

// Update persiste el patch y refresca el Directory.
func (s *SettingsService) Update(ctx context.Context, guildID string, patch domain.GuildSettingsPatch) (string, error) {
	if patch.Empty() {
		return "ℹ️ Nothing to update.", nil
	}
	g, err := s.repo.Update(ctx, guildID, patch)
	if err != nil {
		return "", err
	}
	s.dir.Put(g)
	return "✅ Settings updated.\n" + FormatSettings(g), nil
}

// EnsureGuild crea la fila al entrar a un guild y mantiene el owner al día.
func (s *SettingsService) EnsureGuild(ctx context.Context, guildID, ownerID string) error {
	if g, ok := s.dir.Get(guildID); ok && g.OwnerID == ownerID {
		return nil
	}
	g, err := s.repo.Update(ctx, guildID, domain.GuildSettingsPatch{OwnerID: &ownerID})
	if err != nil {
		return err
	}
	s.dir.Put(g)
	return nil
}

func FormatSettings(g domain.GuildSettings) string {
	role := func(id string) string {
		if id == "" {
			return "_unset_"
		}
		return "<@&" + id + ">"
	}
	ch := func(id string) string {
		if id == "" {
			return "_unset_"
		}
		return "<#" + id + ">"
	}
	bypass := "_none_"
	if len(g.BypassUserIDs) > 0 {
		ms := make([]string, len(g.BypassUserIDs))
		for i, id := range g.BypassUserIDs {
			ms[i] = "<@" + id + ">"
		}
		bypass = strings.Join(ms, " ")
	}
	return fmt.Sprintf(
		"**Settings**\n"+
			"• keeper: %s\n• guardian: %s\n• oracle: %s\n• luminary: %s\n• assistant: %s\n"+
			"• support category: %s\n• general category: %s\n• music voice: %s\n• bot channel: %s\n"+
			"• music channel: %s\n• ticket channel: %s\n• ticket log: %s\n• bypass users: %s",
		role(g.KeeperRoleID), role(g.GuardianRoleID), role(g.OracleRoleID), role(g.LuminaryRoleID), role(g.AssistantRoleID),
		ch(g.SupportCategoryID), ch(g.GeneralCategoryID), ch(g.MusicVoiceID), ch(g.BotChannelID),
		ch(g.MusicChannelID), ch(g.TicketChannelID), ch(g.TicketLogChannelID), bypass,
	)
}
