package domain

import "time"

// TicketAudience decide qué staff ve el canal del ticket.
type TicketAudience int

const (
	AudienceGuardians TicketAudience = iota
	AudienceOracle
	AudienceOwner
)

type TicketKind struct {
	Code     string
	Label    string
	Prefix   string
	Emoji    string
	Audience TicketAudience
}

var TicketKinds = []TicketKind{
	{Code: "01", Label: "Inappropriate Behavior", Prefix: "User-Report", Emoji: "🚨", Audience: AudienceGuardians},
	{Code: "02", Label: "Server Issue", Prefix: "Server-Issue", Emoji: "🛠️", Audience: AudienceGuardians},
	{Code: "03", Label: "Bot Issue", Prefix: "Bot-Issue", Emoji: "🤖", Audience: AudienceOracle},
	{Code: "04", Label: "Removal of a Post", Prefix: "Post-Removal", Emoji: "🗑️", Audience: AudienceGuardians},
	{Code: "05", Label: "Other", Prefix: "Other", Emoji: "❓", Audience: AudienceGuardians},
	{Code: "06", Label: "Custom Role", Prefix: "Custom-Role", Emoji: "🎨", Audience: AudienceOwner},
}

func TicketKindByCode(code string) (TicketKind, bool) {
	for _, k := range TicketKinds {
		if k.Code == code {
			return k, true
		}
	}
	return TicketKind{}, false
}

// OpenTicket es la fila persistida de un ticket abierto.
type OpenTicket struct {
	ChannelID string
	GuildID   string
	UserID    string
	Kind      string
	CreatedAt time.Time
}

// RuleGate es un canal donde hay que aceptar las reglas para escribir.
type RuleGate struct {
	ChannelID string
	GuildID   string
	CreatedBy string
	CreatedAt time.Time
}
