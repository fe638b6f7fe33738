package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordrouter "github.com/jose-valero/dreamy-assistant-bot/internal/adapters/discord"
	"github.com/jose-valero/dreamy-assistant-bot/internal/adapters/httpstatus"
	"github.com/jose-valero/dreamy-assistant-bot/internal/adapters/voice"
	"github.com/jose-valero/dreamy-assistant-bot/internal/adapters/youtube"
	"github.com/jose-valero/dreamy-assistant-bot/internal/adapters/ytdlp"
	"github.com/jose-valero/dreamy-assistant-bot/internal/app/service"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/config"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/logging"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/storage"
	"github.com/jose-valero/dreamy-assistant-bot/internal/music"
	"github.com/jose-valero/dreamy-assistant-bot/internal/roster"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()
	lg := logging.New(cfg.LogLevel, cfg.LogFormat)
	lg.Info("starting", "config", cfg.Redacted())

	// DB
	db, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	lg.Info("✅ DB lista y migrada")

	// Repos
	guildRepo := storage.NewGuildRepo(db)
	rulesRepo := storage.NewRulesRepo(db)
	ticketRepo := storage.NewTicketRepo(db)
	panelRepo := storage.NewPanelRepo(db)

	dir := service.NewDirectory()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		n, err := dir.LoadAll(ctx, guildRepo)
		cancel()
		if err != nil {
			log.Fatal("load guild settings:", err)
		}
		lg.Info("guild settings loaded", "guilds", n)
	}

	// Discord session
	s, err := discordgo.New(cfg.BotToken())
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates

	// Services
	rosters := roster.NewStore(cfg.MaxTeamsPerGuild)
	rosterSvc := service.NewRosterService(rosters, s, service.RosterLimits{
		TeamMaxMembers: cfg.TeamMaxMembers,
		RunMaxMembers:  cfg.RunMaxMembers,
		UnlockSettle:   cfg.UnlockSettle,
		FullCooldown:   cfg.TeamFullCooldown,
	}, lg)

	yt := ytdlp.New(cfg.YTDLPPath)
	voices := voice.NewConnector(s, voice.Options{
		FFmpegPath: cfg.FFmpegPath,
		Volume:     cfg.MusicVolume,
		ChannelFor: func(guildID string) string {
			g, _ := dir.Get(guildID)
			return g.MusicVoiceID
		},
		Log: lg,
	})
	musicSvc := service.NewMusicService(dir, s, youtube.New(), music.Deps{
		Resolver:  yt,
		Extractor: yt,
		Connector: voices,
		Log:       lg,
	}, lg)

	gateSvc := service.NewGateService(dir, s, lg)
	accessSvc := service.NewAccessService(dir, rulesRepo, s, lg)
	ticketSvc := service.NewTicketService(dir, ticketRepo, s, lg)
	settingsSvc := service.NewSettingsService(guildRepo, dir)

	// Router
	r := discordrouter.NewRouter(s, discordrouter.Deps{
		GuildID:  cfg.DiscordGuild,
		Log:      lg,
		Gate:     gateSvc,
		Rosters:  rosterSvc,
		Music:    musicSvc,
		Access:   accessSvc,
		Tickets:  ticketSvc,
		Settings: settingsSvc,
		Panels:   panelRepo,
	})
	r.Handlers()

	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	lg.Info("✅ conectado", "user", s.State.User.Username, "id", s.State.User.ID)

	if err := r.Register(); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}
	lg.Info("✅ comandos registrados", "guild", cfg.DiscordGuild)

	// Status HTTP
	web := httpstatus.New(httpstatus.Sources{
		Guilds: dir.Len,
		Rosters: func() int {
			n, _ := rosters.Count()
			return n
		},
		Players: musicSvc.Snapshots,
	}, lg)
	go func() {
		if err := web.Start(cfg.HTTPAddr); err != nil {
			lg.Error("status server", "err", err)
		}
	}()

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	lg.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	musicSvc.Close()
	r.Shutdown(ctx)
	if err := web.Shutdown(ctx); err != nil {
		lg.Warn("status server shutdown", "err", err)
	}
	if err := s.Close(); err != nil {
		lg.Warn("session close", "err", err)
	}
}
