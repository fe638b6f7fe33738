package service

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

// Lo implementa internal/infra/storage.GuildRepo
type GuildStore interface {
	Get(ctx context.Context, guildID string) (domain.GuildSettings, error)
	List(ctx context.Context) ([]domain.GuildSettings, error)
	Update(ctx context.Context, guildID string, p domain.GuildSettingsPatch) (domain.GuildSettings, error)
}

// Lo implementa internal/infra/storage.RulesRepo
type RulesStore interface {
	CreateGate(ctx context.Context, g domain.RuleGate) (bool, error)
	Gate(ctx context.Context, channelID string) (domain.RuleGate, error)
	DeleteGate(ctx context.Context, channelID string) (bool, error)
	HasAccepted(ctx context.Context, channelID, userID string) (bool, error)
	Accept(ctx context.Context, channelID, userID string) error
}

// Lo implementa internal/infra/storage.TicketRepo
type TicketStore interface {
	Create(ctx context.Context, t domain.OpenTicket) error
	ByChannel(ctx context.Context, channelID string) (domain.OpenTicket, error)
	ByUser(ctx context.Context, guildID, userID string) ([]domain.OpenTicket, error)
	Delete(ctx context.Context, channelID string) (bool, error)
}

// Los puertos hacia Discord copian las firmas de *discordgo.Session, así la
// sesión los cumple directo y los tests usan fakes.

type RoleLister interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
}

// Messenger: mensajes de estado de los rosters.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// Poster: anuncios simples (música).
type Poster interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// GateDiscord: canales con reglas.
type GateDiscord interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// TicketDiscord: canales de tickets, DMs y transcript.
type TicketDiscord interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// TitleLookup resuelve títulos para listar la cola (youtube.Client).
type TitleLookup interface {
	Title(ctx context.Context, videoURL string) (string, error)
}
