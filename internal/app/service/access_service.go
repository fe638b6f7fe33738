package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/storage"
)

const (
	permReader = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory
	permWriter = permReader | discordgo.PermissionSendMessages | discordgo.PermissionAddReactions
)

// AccessService maneja los canales donde hay que aceptar las reglas para escribir.
type AccessService struct {
	dir   *Directory
	rules RulesStore
	d     GateDiscord
	log   *slog.Logger
	now   func() time.Time
}

func NewAccessService(dir *Directory, rules RulesStore, d GateDiscord, log *slog.Logger) *AccessService {
	return &AccessService{dir: dir, rules: rules, d: d, log: log.With("component", "access"), now: time.Now}
}

func (s *AccessService) CreateGate(ctx context.Context, guildID, channelID, actorID string) (string, error) {
	ch, err := s.d.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("get channel: %w", err)
	}
	if ch.Type == discordgo.ChannelTypeGuildVoice || ch.Type == discordgo.ChannelTypeGuildStageVoice {
		return "⚠️ Voice channels can't be rule-gated.", nil
	}
	gs, _ := s.dir.Get(guildID)

	created, err := s.rules.CreateGate(ctx, domain.RuleGate{
		ChannelID: channelID, GuildID: guildID, CreatedBy: actorID, CreatedAt: s.now(),
	})
	if err != nil {
		return "", err
	}
	if !created {
		return fmt.Sprintf("ℹ️ <#%s> is already rule-gated.", channelID), nil
	}

	if err := s.applyOverwrites(ctx, guildID, channelID, gs); err != nil {
		if _, derr := s.rules.DeleteGate(ctx, channelID); derr != nil {
			s.log.Error("rollback gate", "channel", channelID, "err", derr)
		}
		return "", fmt.Errorf("set overwrites: %w", err)
	}

	_, err = s.d.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: "Please read the rules above and press the button to unlock this channel.",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "I have read the rules",
					Emoji:    &discordgo.ComponentEmoji{Name: "📜"},
					Style:    discordgo.SuccessButton,
					CustomID: AcceptRulesPrefix + channelID,
				},
			}},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		s.log.Warn("post accept button", "channel", channelID, "err", err)
	}
	s.log.Info("gate created", "guild", guildID, "channel", channelID, "by", actorID)
	return fmt.Sprintf("✅ <#%s> is now rule-gated.", channelID), nil
}

func (s *AccessService) applyOverwrites(ctx context.Context, guildID, channelID string, gs domain.GuildSettings) error {
	type ow struct {
		id          string
		allow, deny int64
	}
	list := []ow{{id: guildID, allow: permReader, deny: discordgo.PermissionSendMessages}}
	for _, id := range []string{gs.LuminaryRoleID, gs.GuardianRoleID} {
		list = append(list, ow{id: id, allow: permWriter})
	}
	for _, id := range []string{gs.OracleRoleID, gs.KeeperRoleID} {
		list = append(list, ow{id: id, allow: discordgo.PermissionAllText})
	}
	for _, o := range list {
		if o.id == "" {
			continue
		}
		err := s.d.ChannelPermissionSet(channelID, o.id, discordgo.PermissionOverwriteTypeRole, o.allow, o.deny, discordgo.WithContext(ctx))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *AccessService) RemoveGate(ctx context.Context, guildID, channelID string) (string, error) {
	deleted, err := s.rules.DeleteGate(ctx, channelID)
	if err != nil {
		return "", err
	}
	if !deleted {
		return fmt.Sprintf("ℹ️ <#%s> isn't rule-gated.", channelID), nil
	}
	if err := s.d.ChannelPermissionSet(channelID, guildID, discordgo.PermissionOverwriteTypeRole, 0, 0, discordgo.WithContext(ctx)); err != nil {
		s.log.Warn("reset everyone overwrite", "channel", channelID, "err", err)
	}
	s.log.Info("gate removed", "guild", guildID, "channel", channelID)
	return fmt.Sprintf("✅ <#%s> is no longer rule-gated.", channelID), nil
}

// Accept corre cuando alguien toca el botón de reglas.
func (s *AccessService) Accept(ctx context.Context, guildID, channelID, userID string, roles []string) (string, error) {
	if _, err := s.rules.Gate(ctx, channelID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "ℹ️ This channel is no longer rule-gated.", nil
		}
		return "", err
	}
	if gs, ok := s.dir.Get(guildID); ok {
		for _, id := range gs.PrivilegedRoles() {
			if id != "" && slices.Contains(roles, id) {
				return "✅ You already have access to this channel.", nil
			}
		}
	}

	done, err := s.rules.HasAccepted(ctx, channelID, userID)
	if err != nil {
		return "", err
	}
	if done {
		return "ℹ️ You already accepted the rules.", nil
	}
	if err := s.d.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember, permWriter, 0, discordgo.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("grant access: %w", err)
	}
	if err := s.rules.Accept(ctx, channelID, userID); err != nil {
		return "", err
	}
	s.log.Info("rules accepted", "guild", guildID, "channel", channelID, "user", userID)
	return fmt.Sprintf("✅ Thanks! You can now write in <#%s>.", channelID), nil
}
