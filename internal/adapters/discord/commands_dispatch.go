// esta es la logica de InteractionApplicationCommand de discordgo
// aqui solo vamos a manejar logica de la interaccion del usuario y despachar a los servicios correspondientes
package discord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/app/rolegate"
	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/storage"
	"github.com/jose-valero/dreamy-assistant-bot/internal/roster"
)

func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	uid := ic.Member.User.ID
	log := r.log.With("cmd", cmd.Name, "user", uid, "guild", ic.GuildID)
	log.Info("slash command")

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in slash command", "panic", rec)
			ReplyEphemeral(s, ic, "❌ Something went wrong running that command. Please tell an admin.")
		}
	}()
	defer step("cmd." + cmd.Name)()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	// respond centraliza el patrón msg/err de los servicios
	respond := func(msg string, err error) {
		if err != nil {
			log.Error("command failed", "err", err)
			ReplyEphemeral(s, ic, "⚠️ Something went wrong, please try again.")
			return
		}
		ReplyEphemeral(s, ic, msg)
	}

	switch cmd.Name {

	//--> misc
	case "ping":
		ReplyEphemeral(s, ic, fmt.Sprintf("🏓 Pong! that took me %dms to respond", s.HeartbeatLatency().Milliseconds()))

	case "help":
		ReplyEphemeral(s, ic, "", helpEmbed())

	//--> settings
	case "settings":
		respond(r.settings.Show(ctx, ic.GuildID))

	case "setup_roles":
		if !r.allowed(ctx, s, ic, rolegate.Setup) {
			return
		}
		patch := domain.GuildSettingsPatch{
			KeeperRoleID:    idPtr(optRole(ic, "keeper")),
			GuardianRoleID:  idPtr(optRole(ic, "guardian")),
			OracleRoleID:    idPtr(optRole(ic, "oracle")),
			LuminaryRoleID:  idPtr(optRole(ic, "luminary")),
			AssistantRoleID: idPtr(optRole(ic, "assistant")),
		}
		msg, err := r.settings.Update(ctx, ic.GuildID, patch)
		r.gate.Forget(ic.GuildID)
		respond(msg, err)

	case "setup_channels":
		if !r.allowed(ctx, s, ic, rolegate.Setup) {
			return
		}
		patch := domain.GuildSettingsPatch{
			SupportCategoryID:  idPtr(optChannel(ic, "support_category")),
			GeneralCategoryID:  idPtr(optChannel(ic, "general_category")),
			MusicVoiceID:       idPtr(optChannel(ic, "music_voice")),
			BotChannelID:       idPtr(optChannel(ic, "bot_channel")),
			MusicChannelID:     idPtr(optChannel(ic, "music_channel")),
			TicketChannelID:    idPtr(optChannel(ic, "ticket_channel")),
			TicketLogChannelID: idPtr(optChannel(ic, "ticket_log_channel")),
		}
		respond(r.settings.Update(ctx, ic.GuildID, patch))

	case "setup_bypass":
		if !r.allowed(ctx, s, ic, rolegate.Setup) {
			return
		}
		raw, _ := optStr(ic, "users")
		ids := parseIDs(raw)
		respond(r.settings.Update(ctx, ic.GuildID, domain.GuildSettingsPatch{BypassUserIDs: &ids}))

	//--> teams
	case "createteam":
		if !r.allowed(ctx, s, ic, rolegate.Teams) {
			return
		}
		leader, _ := optUser(ic, "member")
		emoji, _ := optStr(ic, "emoji")
		raw, _ := optStr(ic, "members")
		respond(r.rosters.CreateTeam(ctx, ic.GuildID, ic.ChannelID, leader, emoji, parseIDs(raw)))

	case "closeteam":
		if !r.allowed(ctx, s, ic, rolegate.Teams) {
			return
		}
		leader, _ := optUser(ic, "member")
		respond(r.rosters.Close(ctx, ic.GuildID, roster.KindTeam, leader))

	case "lockteam":
		if !r.allowed(ctx, s, ic, rolegate.Teams) {
			return
		}
		leader, _ := optUser(ic, "member")
		respond(r.rosters.Lock(ctx, ic.GuildID, roster.KindTeam, leader))

	case "unlockteam":
		if !r.allowed(ctx, s, ic, rolegate.Teams) {
			return
		}
		leader, _ := optUser(ic, "member")
		respond(r.rosters.Unlock(ctx, ic.GuildID, roster.KindTeam, leader))

	case "teams":
		ReplyEphemeral(s, ic, r.rosters.List(ic.GuildID))

	case "forceclose":
		if !r.allowed(ctx, s, ic, rolegate.Teams) {
			return
		}
		leader, _ := optUser(ic, "member")
		ReplyEphemeral(s, ic, r.rosters.ForceClose(ctx, ic.GuildID, leader))

	//--> runs
	case "createrun":
		if !r.allowed(ctx, s, ic, rolegate.Runners) {
			return
		}
		raw, _ := optStr(ic, "members")
		respond(r.rosters.CreateRun(ctx, ic.GuildID, ic.ChannelID, leaderOr(ic, "guide"), parseIDs(raw)))

	case "addrunners":
		if !r.allowed(ctx, s, ic, rolegate.Runners) {
			return
		}
		raw, _ := optStr(ic, "members")
		respond(r.rosters.AddMembers(ctx, ic.GuildID, roster.KindRun, leaderOr(ic, "guide"), parseIDs(raw)))

	case "removerunners":
		if !r.allowed(ctx, s, ic, rolegate.Runners) {
			return
		}
		raw, _ := optStr(ic, "members")
		respond(r.rosters.RemoveMembers(ctx, ic.GuildID, roster.KindRun, leaderOr(ic, "guide"), parseIDs(raw)))

	case "splitrun":
		if !r.allowed(ctx, s, ic, rolegate.Runners) {
			return
		}
		next, _ := optUser(ic, "new_guide")
		raw, _ := optStr(ic, "members")
		respond(r.rosters.Split(ctx, ic.GuildID, roster.KindRun, leaderOr(ic, "current_guide"), next, parseIDs(raw)))

	case "lockrun":
		if !r.allowed(ctx, s, ic, rolegate.Runners) {
			return
		}
		respond(r.rosters.Lock(ctx, ic.GuildID, roster.KindRun, leaderOr(ic, "guide")))

	case "unlockrun":
		if !r.allowed(ctx, s, ic, rolegate.Runners) {
			return
		}
		respond(r.rosters.Unlock(ctx, ic.GuildID, roster.KindRun, leaderOr(ic, "guide")))

	case "closerun":
		if !r.allowed(ctx, s, ic, rolegate.Runners) {
			return
		}
		respond(r.rosters.Close(ctx, ic.GuildID, roster.KindRun, leaderOr(ic, "guide")))

	//--> rule gates
	case "createrulegate":
		if !r.allowed(ctx, s, ic, rolegate.RuleGates) {
			return
		}
		ch, _ := optChannel(ic, "channel")
		respond(r.access.CreateGate(ctx, ic.GuildID, ch, uid))

	case "removerulegate":
		if !r.allowed(ctx, s, ic, rolegate.RuleGates) {
			return
		}
		ch, _ := optChannel(ic, "channel")
		respond(r.access.RemoveGate(ctx, ic.GuildID, ch))

	//--> tickets
	case "ticket_menu":
		if !r.allowed(ctx, s, ic, rolegate.TicketMenu) {
			return
		}
		msg, err := r.tickets.Menu(ctx, ic.ChannelID)
		if err != nil {
			respond("", err)
			return
		}
		if err := r.panels.Upsert(ctx, ic.GuildID, storage.PanelTickets, ic.ChannelID, msg.ID); err != nil {
			log.Warn("save ticket panel", "err", err)
		}
		ReplyEphemeral(s, ic, "✅ Ticket menu posted.")

	case "force_close_ticket":
		if !r.allowed(ctx, s, ic, rolegate.TicketForceClose) {
			return
		}
		// el canal desaparece: la respuesta va antes
		ReplyEphemeral(s, ic, "🔒 Closing this channel…")
		msg, err := r.tickets.Close(ctx, ic.GuildID, ic.ChannelID, true)
		if err != nil {
			log.Error("force close ticket", "channel", ic.ChannelID, "err", err)
			return
		}
		log.Info("ticket force closed", "channel", ic.ChannelID, "result", msg)

	//--> music
	case "play":
		url, _ := optStr(ic, "url")
		respond(r.music.PlayNow(ctx, ic.GuildID, ic.ChannelID, url))
		r.refreshMusicPanel(ic.GuildID)

	case "queue":
		url, _ := optStr(ic, "url")
		respond(r.music.Play(ctx, ic.GuildID, ic.ChannelID, url))
		r.refreshMusicPanel(ic.GuildID)

	case "queue_list":
		respond(r.music.List(ctx, ic.GuildID))

	case "skip":
		respond(r.music.Skip(ctx, ic.GuildID, ic.ChannelID))
		r.refreshMusicPanel(ic.GuildID)

	case "back":
		respond(r.music.Back(ctx, ic.GuildID, ic.ChannelID))
		r.refreshMusicPanel(ic.GuildID)

	case "pause":
		respond(r.music.Pause(ctx, ic.GuildID, ic.ChannelID))
		r.refreshMusicPanel(ic.GuildID)

	case "resume":
		respond(r.music.Resume(ctx, ic.GuildID, ic.ChannelID))
		r.refreshMusicPanel(ic.GuildID)

	case "clear_queue":
		respond(r.music.Clear(ctx, ic.GuildID, ic.ChannelID))
		r.refreshMusicPanel(ic.GuildID)

	case "stop":
		respond(r.music.Stop(ctx, ic.GuildID, ic.ChannelID))
		r.refreshMusicPanel(ic.GuildID)

	case "music_panel":
		if err := r.publishMusicPanel(ctx, ic.GuildID, ic.ChannelID); err != nil {
			respond("", err)
			return
		}
		ReplyEphemeral(s, ic, "✅ Music panel posted.")

	default:
		ReplyEphemeral(s, ic, "🤔 Unknown command.")
	}
}

func helpEmbed() *discordgo.MessageEmbed {
	cmds := make([]*discordgo.ApplicationCommand, len(Commands))
	copy(cmds, Commands)
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

	var b strings.Builder
	for _, c := range cmds {
		fmt.Fprintf(&b, "`/%s` %s\n", c.Name, c.Description)
	}
	return &discordgo.MessageEmbed{
		Title:       "Dreamy Commands 🍃",
		Description: "Here is everything I can do for you!\n\n" + b.String(),
		Color:       0x2ecc71,
	}
}
