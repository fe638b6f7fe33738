package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/storage"
)

const (
	permTicket  = permWriter | discordgo.PermissionAttachFiles | discordgo.PermissionEmbedLinks
	pageSize    = 100
	ticketNonce = 6
)

type TicketService struct {
	dir   *Directory
	store TicketStore
	d     TicketDiscord
	log   *slog.Logger
	now   func() time.Time
}

func NewTicketService(dir *Directory, store TicketStore, d TicketDiscord, log *slog.Logger) *TicketService {
	return &TicketService{dir: dir, store: store, d: d, log: log.With("component", "tickets"), now: time.Now}
}

// TicketChannelName: <prefix>-<user>-<últimos 6 dígitos de unix nanos>.
func TicketChannelName(prefix, user string, at time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(user)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.':
			b.WriteRune('-')
		}
	}
	name := b.String()
	if name == "" {
		name = "user"
	}
	n := strconv.FormatInt(at.UnixNano(), 10)
	if len(n) > ticketNonce {
		n = n[len(n)-ticketNonce:]
	}
	return prefix + "-" + name + "-" + n
}

// Menu publica el botón de creación de tickets.
func (s *TicketService) Menu(ctx context.Context, channelID string) (*discordgo.Message, error) {
	return s.d.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📬 Need help?",
			Description: "Press the button below and pick the kind of ticket you want to open. Staff will answer in a private channel.",
			Color:       0x9b59b6,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Create a Ticket",
					Emoji:    &discordgo.ComponentEmoji{Name: "📬"},
					Style:    discordgo.PrimaryButton,
					CustomID: TicketCreateID,
				},
			}},
		},
	}, discordgo.WithContext(ctx))
}

// KindPicker es el select efímero de tipos de ticket.
func KindPicker() []discordgo.MessageComponent {
	opts := make([]discordgo.SelectMenuOption, 0, len(domain.TicketKinds))
	for _, k := range domain.TicketKinds {
		opts = append(opts, discordgo.SelectMenuOption{
			Label: k.Label,
			Value: k.Code,
			Emoji: &discordgo.ComponentEmoji{Name: k.Emoji},
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    TicketKindID,
				Placeholder: "What is your ticket about?",
				Options:     opts,
			},
		}},
	}
}

func ConfirmPicker() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    TicketConfirmID,
				Placeholder: "Close this ticket?",
				Options: []discordgo.SelectMenuOption{
					{Label: "Yes, close it", Value: "yes", Emoji: &discordgo.ComponentEmoji{Name: "✅"}},
					{Label: "No, keep it open", Value: "no", Emoji: &discordgo.ComponentEmoji{Name: "❌"}},
				},
			},
		}},
	}
}

// staff devuelve los roles que ven el ticket según el tipo.
func staff(k domain.TicketKind, gs domain.GuildSettings) []string {
	var ids []string
	switch k.Audience {
	case domain.AudienceOracle:
		ids = []string{gs.OracleRoleID}
	case domain.AudienceOwner:
		ids = []string{gs.KeeperRoleID}
	default:
		ids = []string{gs.GuardianRoleID}
	}
	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (s *TicketService) Open(ctx context.Context, guildID, userID, userName, code string) (string, error) {
	kind, ok := domain.TicketKindByCode(code)
	if !ok {
		return "⚠️ Unknown ticket kind.", nil
	}
	gs, ok := s.dir.Get(guildID)
	if !ok || gs.SupportCategoryID == "" {
		return "⚠️ Tickets aren't configured on this server yet.", nil
	}
	open, err := s.store.ByUser(ctx, guildID, userID)
	if err != nil {
		return "", err
	}
	if len(open) > 0 {
		return fmt.Sprintf("⚠️ You already have an open ticket: <#%s>", open[0].ChannelID), nil
	}

	var ownerID string
	if g, err := s.d.Guild(guildID, discordgo.WithContext(ctx)); err == nil {
		ownerID = g.OwnerID
	} else {
		s.log.Warn("fetch guild owner", "guild", guildID, "err", err)
	}

	roles := staff(kind, gs)
	ows := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: userID, Type: discordgo.PermissionOverwriteTypeMember, Allow: permTicket},
	}
	for _, id := range roles {
		ows = append(ows, &discordgo.PermissionOverwrite{ID: id, Type: discordgo.PermissionOverwriteTypeRole, Allow: permTicket})
	}
	if kind.Audience == domain.AudienceOwner && ownerID != "" && ownerID != userID {
		ows = append(ows, &discordgo.PermissionOverwrite{ID: ownerID, Type: discordgo.PermissionOverwriteTypeMember, Allow: permTicket})
	}

	at := s.now()
	ch, err := s.d.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 TicketChannelName(kind.Prefix, userName, at),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             gs.SupportCategoryID,
		Topic:                fmt.Sprintf("%s ticket opened by %s", kind.Label, userName),
		PermissionOverwrites: ows,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create ticket channel: %w", err)
	}

	err = s.store.Create(ctx, domain.OpenTicket{
		ChannelID: ch.ID, GuildID: guildID, UserID: userID, Kind: kind.Code, CreatedAt: at,
	})
	if err != nil {
		if _, derr := s.d.ChannelDelete(ch.ID); derr != nil {
			s.log.Error("rollback ticket channel", "channel", ch.ID, "err", derr)
		}
		return "", err
	}

	ping := ""
	for _, id := range roles {
		ping += "<@&" + id + "> "
	}
	_, err = s.d.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content: fmt.Sprintf("%s<@%s> opened a **%s %s** ticket. Describe the issue and staff will be with you shortly.",
			ping, userID, kind.Emoji, kind.Label),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Close Ticket",
					Emoji:    &discordgo.ComponentEmoji{Name: "🔒"},
					Style:    discordgo.DangerButton,
					CustomID: TicketCloseID,
				},
			}},
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers, discordgo.AllowedMentionTypeRoles},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		s.log.Warn("ticket intro", "channel", ch.ID, "err", err)
	}

	s.dm(userID, fmt.Sprintf("🎫 Your ticket is open: <#%s>", ch.ID))
	if ownerID != "" && ownerID != userID {
		s.dm(ownerID, fmt.Sprintf("🎫 New %s ticket <#%s> opened by <@%s>.", kind.Label, ch.ID, userID))
	}
	s.log.Info("ticket opened", "guild", guildID, "channel", ch.ID, "user", userID, "kind", kind.Code)
	return fmt.Sprintf("✅ Your ticket was created: <#%s>", ch.ID), nil
}

// Close guarda el transcript, avisa al usuario y borra canal y fila. Con force
// sigue aunque no haya fila.
func (s *TicketService) Close(ctx context.Context, guildID, channelID string, force bool) (string, error) {
	t, err := s.store.ByChannel(ctx, channelID)
	switch {
	case errors.Is(err, storage.ErrNotFound) && !force:
		return "⚠️ This isn't an open ticket channel.", nil
	case errors.Is(err, storage.ErrNotFound):
		t = domain.OpenTicket{ChannelID: channelID, GuildID: guildID}
	case err != nil:
		return "", err
	}

	name := channelID
	if ch, err := s.d.Channel(channelID, discordgo.WithContext(ctx)); err == nil {
		name = ch.Name
	}
	msgs, err := s.history(ctx, channelID)
	if err != nil {
		s.log.Warn("ticket history", "channel", channelID, "err", err)
	}
	text := FormatTranscript(name, transcriptLines(msgs))

	if gs, ok := s.dir.Get(guildID); ok && gs.TicketLogChannelID != "" {
		content := fmt.Sprintf("📄 Transcript of **#%s**", name)
		if t.UserID != "" {
			content += fmt.Sprintf(" (opened by <@%s>)", t.UserID)
		}
		if err := s.sendFile(gs.TicketLogChannelID, content, name, text); err != nil {
			s.log.Warn("post transcript", "channel", gs.TicketLogChannelID, "err", err)
		}
	}
	if t.UserID != "" {
		if dm, err := s.d.UserChannelCreate(t.UserID); err == nil {
			if err := s.sendFile(dm.ID, "📄 Your ticket was closed. Here is the transcript.", name, text); err != nil {
				s.log.Info("dm transcript", "user", t.UserID, "err", err)
			}
		}
	}

	if _, err := s.d.ChannelDelete(channelID); err != nil && !isNotFound(err) {
		return "", fmt.Errorf("delete ticket channel: %w", err)
	}
	if _, err := s.store.Delete(ctx, channelID); err != nil {
		return "", err
	}
	s.log.Info("ticket closed", "guild", guildID, "channel", channelID, "force", force, "messages", len(msgs))
	return "✅ Ticket closed.", nil
}

// history trae hasta transcriptLimit mensajes, nuevo -> viejo.
func (s *TicketService) history(ctx context.Context, channelID string) ([]*discordgo.Message, error) {
	var (
		all    []*discordgo.Message
		before string
	)
	for len(all) < transcriptLimit {
		limit := min(pageSize, transcriptLimit-len(all))
		page, err := s.d.ChannelMessages(channelID, limit, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return all, err
		}
		all = append(all, page...)
		if len(page) < limit {
			break
		}
		before = page[len(page)-1].ID
	}
	return all, nil
}

func (s *TicketService) sendFile(channelID, content, name, text string) error {
	_, err := s.d.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files: []*discordgo.File{{
			Name:        name + ".txt",
			ContentType: "text/plain",
			Reader:      strings.NewReader(text),
		}},
	})
	return err
}

func (s *TicketService) dm(userID, text string) {
	ch, err := s.d.UserChannelCreate(userID)
	if err != nil {
		s.log.Info("open dm", "user", userID, "err", err)
		return
	}
	if _, err := s.d.ChannelMessageSend(ch.ID, text); err != nil {
		s.log.Info("send dm", "user", userID, "err", err)
	}
}
