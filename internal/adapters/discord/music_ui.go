package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/storage"
	"github.com/jose-valero/dreamy-assistant-bot/internal/music"
)

// atajos de tunning del panel
const (
	uiDebounce   = 400 * time.Millisecond
	ctxRenderMax = 3 * time.Second
	panelUpNext  = 5
)

const (
	musicPrefix   = "music:"
	musicPause    = musicPrefix + "pause"
	musicResume   = musicPrefix + "resume"
	musicBack     = musicPrefix + "back"
	musicSkip     = musicPrefix + "skip"
	musicQueue    = musicPrefix + "queue"
	musicClear    = musicPrefix + "clear"
	musicStop     = musicPrefix + "stop"
	queueModalID  = "queue_modal"
	queueURLField = "url"
)

// Publica el panel en ESTE canal y lo recuerda para los refrescos.
func (r *Router) publishMusicPanel(ctx context.Context, guildID, channelID string) error {
	embed, comps := renderMusicPanel(r.music.State(ctx, guildID))
	msg, err := r.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: comps,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	return r.panels.Upsert(ctx, guildID, storage.PanelMusic, channelID, msg.ID)
}

// Debounce + re-render + edit del panel publicado (si hay).
func (r *Router) refreshMusicPanel(guildID string) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	if t, ok := r.refreshTimer[guildID]; ok {
		t.Stop()
	}
	r.refreshTimer[guildID] = time.AfterFunc(uiDebounce, func() {
		r.goBackground(func(bg context.Context) {
			ctx, cancel := context.WithTimeout(bg, ctxRenderMax)
			defer cancel()
			r.editMusicPanel(ctx, guildID)
		})
	})
}

func (r *Router) editMusicPanel(ctx context.Context, guildID string) {
	defer step("ui.music.refresh")()
	p, err := r.panels.Get(ctx, guildID, storage.PanelMusic)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		r.log.Warn("music panel lookup", "guild", guildID, "err", err)
		return
	}
	embed, comps := renderMusicPanel(r.music.State(ctx, guildID))
	em := []*discordgo.MessageEmbed{embed}
	if _, err := r.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    p.ChannelID,
		ID:         p.MessageID,
		Embeds:     &em,
		Components: &comps,
	}, discordgo.WithContext(ctx)); err != nil {
		var re *discordgo.RESTError
		if errors.As(err, &re) && re.Response != nil {
			r.log.Warn("music panel edit", "guild", guildID, "status", re.Response.StatusCode,
				"retry_after", re.Response.Header.Get("Retry-After"), "err", err)
			return
		}
		r.log.Warn("music panel edit", "guild", guildID, "err", err)
	}
}

// renderMusicPanel es puro: estado -> embed + botones.
func renderMusicPanel(st music.State) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	var b strings.Builder
	switch {
	case st.Current == nil:
		b.WriteString("Nothing is playing.")
	case st.Status == music.StatusPaused:
		fmt.Fprintf(&b, "⏸️ **Paused:** %s", st.Current.Label())
	default:
		fmt.Fprintf(&b, "🎶 **Now playing:** %s", st.Current.Label())
	}
	if len(st.Queue) > 0 {
		b.WriteString("\n\n**Up next:**\n")
		for i, t := range st.Queue {
			if i == panelUpNext {
				fmt.Fprintf(&b, "…and %d more", len(st.Queue)-panelUpNext)
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, t.Label())
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎧 Music",
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       0x1abc9c,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	playing := st.Current != nil
	paused := st.Status == music.StatusPaused
	btn := func(id, emoji string, style discordgo.ButtonStyle, disabled bool) discordgo.Button {
		return discordgo.Button{
			CustomID: id,
			Emoji:    &discordgo.ComponentEmoji{Name: emoji},
			Style:    style,
			Disabled: disabled,
		}
	}
	comps := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			btn(musicBack, "⏮️", discordgo.SecondaryButton, false),
			btn(musicPause, "⏸️", discordgo.SecondaryButton, !playing || paused),
			btn(musicResume, "▶️", discordgo.SecondaryButton, !paused),
			btn(musicSkip, "⏭️", discordgo.SecondaryButton, !playing && len(st.Queue) == 0),
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{CustomID: musicQueue, Label: "Queue", Emoji: &discordgo.ComponentEmoji{Name: "➕"}, Style: discordgo.PrimaryButton},
			btn(musicClear, "🧹", discordgo.SecondaryButton, len(st.Queue) == 0 && !playing),
			btn(musicStop, "⏹️", discordgo.DangerButton, !playing && !st.Connected),
		}},
	}
	return embed, comps
}

func queueModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: queueModalID,
		Title:    "Queue a song",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    queueURLField,
					Label:       "YouTube URL",
					Style:       discordgo.TextInputShort,
					Placeholder: "https://www.youtube.com/watch?v=…",
					Required:    true,
					MaxLength:   300,
				},
			}},
		},
	}
}

// musicAction despacha un botón del panel.
func (r *Router) musicAction(ctx context.Context, guildID, channelID, id string) (string, error) {
	switch id {
	case musicPause:
		return r.music.Pause(ctx, guildID, channelID)
	case musicResume:
		return r.music.Resume(ctx, guildID, channelID)
	case musicBack:
		return r.music.Back(ctx, guildID, channelID)
	case musicSkip:
		return r.music.Skip(ctx, guildID, channelID)
	case musicClear:
		return r.music.Clear(ctx, guildID, channelID)
	case musicStop:
		return r.music.Stop(ctx, guildID, channelID)
	}
	return "🤔 Unknown button.", nil
}
