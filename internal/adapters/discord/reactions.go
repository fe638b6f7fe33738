package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

const reactionTimeout = 8 * time.Second

func (r *Router) onReactionAdd(s *discordgo.Session, ev *discordgo.MessageReactionAdd) {
	if ev.MessageReaction == nil || ev.GuildID == "" || ev.UserID == r.botID() {
		return
	}
	if ev.Member != nil && ev.Member.User != nil && ev.Member.User.Bot {
		return
	}
	defer r.guard("reaction_add")

	ctx, cancel := context.WithTimeout(context.Background(), reactionTimeout)
	defer cancel()
	r.rosters.OnReactionAdd(ctx, ev.GuildID, ev.MessageID, ev.UserID, ev.Emoji.APIName(), time.Now())
}

func (r *Router) onReactionRemove(s *discordgo.Session, ev *discordgo.MessageReactionRemove) {
	if ev.MessageReaction == nil || ev.GuildID == "" || ev.UserID == r.botID() {
		return
	}
	defer r.guard("reaction_remove")

	ctx, cancel := context.WithTimeout(context.Background(), reactionTimeout)
	defer cancel()
	r.rosters.OnReactionRemove(ctx, ev.GuildID, ev.MessageID, ev.UserID, ev.Emoji.APIName())
}

// guard va con defer directo: recover sólo funciona ahí.
func (r *Router) guard(event string) {
	if rec := recover(); rec != nil {
		r.log.Error("panic in event handler", "event", event, "panic", rec)
	}
}
