package discord

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/app/service"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/storage"
)

// PanelStore lo implementa storage.PanelRepo.
type PanelStore interface {
	Get(ctx context.Context, guildID, kind string) (storage.Panel, error)
	Upsert(ctx context.Context, guildID, kind, channelID, messageID string) error
}

// Deps agrupa todo lo que el router despacha.
type Deps struct {
	GuildID string // vacío = comandos globales
	Log     *slog.Logger

	Gate     *service.GateService
	Rosters  *service.RosterService
	Music    *service.MusicService
	Access   *service.AccessService
	Tickets  *service.TicketService
	Settings *service.SettingsService
	Panels   PanelStore
}

type Router struct {
	s       *discordgo.Session
	guildID string
	log     *slog.Logger

	gate     *service.GateService
	rosters  *service.RosterService
	music    *service.MusicService
	access   *service.AccessService
	tickets  *service.TicketService
	settings *service.SettingsService
	panels   PanelStore

	clickLimiter *userLimiter

	refreshMu    sync.Mutex
	refreshTimer map[string]*time.Timer

	// refrescos del panel corren fuera del handler
	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRouter(s *discordgo.Session, d Deps) *Router {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	bg, cancel := context.WithCancel(context.Background())
	return &Router{
		s:            s,
		guildID:      d.GuildID,
		log:          log.With("component", "discord"),
		gate:         d.Gate,
		rosters:      d.Rosters,
		music:        d.Music,
		access:       d.Access,
		tickets:      d.Tickets,
		settings:     d.Settings,
		panels:       d.Panels,
		clickLimiter: newUserLimiter(1500 * time.Millisecond),
		refreshTimer: make(map[string]*time.Timer),
		bg:           bg,
		cancel:       cancel,
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.GuildID == "" || ic.Member == nil || ic.Member.User == nil {
			return // sin DMs
		}
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		case discordgo.InteractionModalSubmit:
			r.handleModalSubmit(s, ic)
		}
	})

	// cada guild (al arrancar o al entrar) queda con su fila y owner
	r.s.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if g.Guild == nil || g.Unavailable {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.settings.EnsureGuild(ctx, g.ID, g.OwnerID); err != nil {
			r.log.Error("register guild", "guild", g.ID, "err", err)
		}
	})

	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.MessageReactionAdd) {
		r.onReactionAdd(s, ev)
	})
	r.s.AddHandler(func(s *discordgo.Session, ev *discordgo.MessageReactionRemove) {
		r.onReactionRemove(s, ev)
	})
}

// Shutdown cancela los trabajos de fondo y espera a que terminen.
func (r *Router) Shutdown(ctx context.Context) {
	r.cancel()
	done := make(chan struct{})
	go func() { r.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (r *Router) goBackground(fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("panic in background job", "panic", rec)
			}
		}()
		fn(r.bg)
	}()
}

// ---------- helpers ----------

func (r *Router) guildOwner(guildID string) string {
	if g, err := r.s.State.Guild(guildID); err == nil && g != nil {
		return g.OwnerID
	}
	if g, err := r.s.Guild(guildID); err == nil && g != nil {
		return g.OwnerID
	}
	return ""
}

func (r *Router) botID() string {
	if r.s.State != nil && r.s.State.User != nil {
		return r.s.State.User.ID
	}
	return ""
}
