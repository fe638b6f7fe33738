package service

// Custom IDs de componentes que publica el bot.
const (
	AcceptRulesPrefix = "accept_rules:"
	TicketCreateID    = "ticket_create"
	TicketKindID      = "ticket_kind"
	TicketCloseID     = "ticket_close"
	TicketConfirmID   = "ticket_confirm"
)
