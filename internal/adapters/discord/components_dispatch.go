package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/app/service"
)

func (r *Router) handleMessageComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()
	uid := ic.Member.User.ID
	log := r.log.With("component_id", data.CustomID, "user", uid, "guild", ic.GuildID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in component", "panic", rec)
			ReplyEphemeral(s, ic, "❌ Something went wrong, please try again.")
		}
	}()
	defer step("component." + data.CustomID)()

	if data.ComponentType == discordgo.ButtonComponent && !r.clickLimiter.Allow(uid) {
		_ = SendEphemeral(s, ic, "⏳ Wait a second…")
		return
	}

	// el modal tiene que ser la primera respuesta
	if data.CustomID == musicQueue {
		_ = ShowModal(s, ic, queueModal())
		return
	}

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	respond := func(msg string, err error) {
		if err != nil {
			log.Error("component failed", "err", err)
			ReplyEphemeral(s, ic, "⚠️ Something went wrong, please try again.")
			return
		}
		ReplyEphemeral(s, ic, msg)
	}

	switch {
	case strings.HasPrefix(data.CustomID, service.AcceptRulesPrefix):
		channelID := strings.TrimPrefix(data.CustomID, service.AcceptRulesPrefix)
		if channelID == "" {
			channelID = ic.ChannelID
		}
		respond(r.access.Accept(ctx, ic.GuildID, channelID, uid, ic.Member.Roles))

	case data.CustomID == service.TicketCreateID:
		ReplyEphemeralComplex(s, ic, &discordgo.WebhookParams{
			Content:    "What kind of ticket do you want to open?",
			Components: service.KindPicker(),
		})

	case data.CustomID == service.TicketKindID:
		if len(data.Values) == 0 {
			ReplyEphemeral(s, ic, "⚠️ Pick a ticket kind.")
			return
		}
		respond(r.tickets.Open(ctx, ic.GuildID, uid, ic.Member.User.Username, data.Values[0]))

	case data.CustomID == service.TicketCloseID:
		ReplyEphemeralComplex(s, ic, &discordgo.WebhookParams{
			Content:    "Are you sure you want to close this ticket?",
			Components: service.ConfirmPicker(),
		})

	case data.CustomID == service.TicketConfirmID:
		if len(data.Values) == 0 || data.Values[0] != "yes" {
			ReplyEphemeral(s, ic, "👍 The ticket stays open.")
			return
		}
		ReplyEphemeral(s, ic, "🔒 Closing this ticket…")
		msg, err := r.tickets.Close(ctx, ic.GuildID, ic.ChannelID, false)
		if err != nil {
			log.Error("close ticket", "channel", ic.ChannelID, "err", err)
			return
		}
		log.Info("ticket closed", "channel", ic.ChannelID, "result", msg)

	case strings.HasPrefix(data.CustomID, musicPrefix):
		respond(r.musicAction(ctx, ic.GuildID, ic.ChannelID, data.CustomID))
		r.refreshMusicPanel(ic.GuildID)

	default:
		log.Warn("unknown component")
		ReplyEphemeral(s, ic, "🤔 This button is no longer supported.")
	}
}

func (r *Router) handleModalSubmit(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.ModalSubmitData()
	log := r.log.With("modal", data.CustomID, "user", ic.Member.User.ID, "guild", ic.GuildID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in modal", "panic", rec)
			ReplyEphemeral(s, ic, "❌ Something went wrong, please try again.")
		}
	}()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	if data.CustomID != queueModalID {
		ReplyEphemeral(s, ic, "🤔 Unknown form.")
		return
	}
	url := modalValue(data, queueURLField)
	msg, err := r.music.Play(ctx, ic.GuildID, ic.ChannelID, url)
	if err != nil {
		log.Error("queue from panel", "err", err)
		ReplyEphemeral(s, ic, "⚠️ Something went wrong, please try again.")
		return
	}
	ReplyEphemeral(s, ic, msg)
	r.refreshMusicPanel(ic.GuildID)
}

func modalValue(data discordgo.ModalSubmitInteractionData, field string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok && ti.CustomID == field {
				return strings.TrimSpace(ti.Value)
			}
		}
	}
	return ""
}
