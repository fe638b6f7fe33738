package discord

import (
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// sólo menciones de usuarios; nunca @everyone ni roles desde respuestas
var usersOnly = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}}

func SendEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate, msg string) error {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         msg,
			Flags:           discordgo.MessageFlagsEphemeral,
			AllowedMentions: usersOnly,
		},
	})
	if err != nil {
		slog.Warn("send ephemeral", "err", err)
	}
	return err
}

// Defer efímero (para trabajos >3s)
func DeferEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		slog.Warn("defer ephemeral", "err", err)
	}
	return err
}

func ReplyEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate, content string, embeds ...*discordgo.MessageEmbed) {
	ReplyEphemeralComplex(s, ic, &discordgo.WebhookParams{Content: content, Embeds: embeds})
}

// ReplyEphemeralComplex permite componentes (selects del ticket).
func ReplyEphemeralComplex(s *discordgo.Session, ic *discordgo.InteractionCreate, params *discordgo.WebhookParams) {
	params.Flags |= discordgo.MessageFlagsEphemeral
	if params.AllowedMentions == nil {
		params.AllowedMentions = usersOnly
	}
	_, err := s.FollowupMessageCreate(ic.Interaction, true, params)
	if err == nil {
		return
	}
	// Fallback sólo si todavía no hay respuesta (webhook desconocido)
	var reqErr *discordgo.RESTError
	if errors.As(err, &reqErr) && reqErr.Message != nil && reqErr.Message.Code == discordgo.ErrCodeUnknownWebhook {
		_ = s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:         params.Content,
				Flags:           discordgo.MessageFlagsEphemeral,
				Embeds:          params.Embeds,
				Components:      params.Components,
				AllowedMentions: params.AllowedMentions,
			},
		})
		return
	}
	slog.Warn("reply ephemeral", "err", err)
}

// ShowModal tiene que ser la primera respuesta: no se puede diferir antes.
func ShowModal(s *discordgo.Session, ic *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) error {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	})
	if err != nil {
		slog.Warn("show modal", "err", err)
	}
	return err
}
