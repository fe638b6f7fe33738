package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/app/rolegate"
	"github.com/jose-valero/dreamy-assistant-bot/internal/app/service"
)

func (r *Router) actor(ic *discordgo.InteractionCreate) service.Actor {
	uid := ic.Member.User.ID
	return service.Actor{
		GuildID: ic.GuildID,
		UserID:  uid,
		Roles:   ic.Member.Roles,
		IsOwner: uid != "" && uid == r.guildOwner(ic.GuildID),
	}
}

// allowed responde al actor si no puede; el caller sólo corta.
func (r *Router) allowed(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, p rolegate.Policy) bool {
	err := r.gate.Check(ctx, r.actor(ic), p)
	switch {
	case err == nil:
		return true
	case errors.Is(err, service.ErrDenied):
		ReplyEphemeral(s, ic, "🔒 You don't have permission for this action.")
	case errors.Is(err, service.ErrRoleNotConfigured), errors.Is(err, service.ErrGuildNotConfigured):
		ReplyEphemeral(s, ic, "⚠️ Role not configured correctly; ask an admin to run /setup_roles.")
	default:
		r.log.Error("permission check", "guild", ic.GuildID, "user", ic.Member.User.ID, "policy", p.String(), "err", err)
		ReplyEphemeral(s, ic, "⚠️ Couldn't check your permissions right now, try again.")
	}
	return false
}
