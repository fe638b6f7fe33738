package storage

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Panel es un mensaje fijo publicado por el bot (menú de tickets, panel de música).
type Panel struct {
	GuildID   string
	Kind      string
	ChannelID string
	MessageID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	PanelMusic   = "music"
	PanelTickets = "tickets"
)
