package service

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrDenied               = errors.New("permission denied")
	ErrRoleNotConfigured    = errors.New("role not configured")
	ErrGuildNotConfigured   = errors.New("server not configured")
	ErrChannelNotConfigured = errors.New("channel not configured")
)

// isNotFound reconoce los 404 de la API (mensaje/canal ya borrado).
func isNotFound(err error) bool {
	var re *discordgo.RESTError
	if !errors.As(err, &re) {
		return false
	}
	if re.Response != nil && re.Response.StatusCode == http.StatusNotFound {
		return true
	}
	if re.Message != nil {
		switch re.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return false
}
