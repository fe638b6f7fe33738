package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL  string
	DiscordToken string
	DiscordGuild string // opcional: vacío = comandos globales
	HTTPAddr     string // default :8080

	LogLevel  string
	LogFormat string // text | json

	// rosters
	UnlockSettle     time.Duration
	TeamFullCooldown time.Duration
	MaxTeamsPerGuild int
	TeamMaxMembers   int
	RunMaxMembers    int

	// música
	FFmpegPath  string
	YTDLPPath   string
	MusicVolume float64

	TicketRetentionDays int
}

// Load lee el entorno; si falta algo requerido corta el proceso.
func Load() Config {
	get := func(k string, req bool) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" && req {
			log.Fatalf("missing env %s", k)
		}
		return v
	}
	cfg := Config{
		DatabaseURL:  get("DATABASE_URL", true),
		DiscordToken: get("DISCORD_BOT_TOKEN", true),
		DiscordGuild: get("DISCORD_GUILD_ID", false),
	}
	cfg.applyOptional(get)
	return cfg
}

// LoadDB es para herramientas que sólo necesitan la base (botctl).
func LoadDB() Config {
	get := func(k string, req bool) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" && req {
			log.Fatalf("missing env %s", k)
		}
		return v
	}
	cfg := Config{DatabaseURL: get("DATABASE_URL", true)}
	cfg.applyOptional(get)
	return cfg
}

func (c *Config) applyOptional(get func(string, bool) string) {
	c.HTTPAddr = or(get("HTTP_ADDR", false), ":8080")
	c.LogLevel = or(get("LOG_LEVEL", false), "info")
	c.LogFormat = or(get("LOG_FORMAT", false), "text")

	c.UnlockSettle = durationOr(get("UNLOCK_SETTLE", false), 2*time.Second)
	c.TeamFullCooldown = durationOr(get("TEAM_FULL_COOLDOWN", false), 60*time.Second)
	c.MaxTeamsPerGuild = intOr(get("MAX_TEAMS_PER_GUILD", false), 4)
	c.TeamMaxMembers = intOr(get("TEAM_MAX_MEMBERS", false), 8)
	c.RunMaxMembers = intOr(get("RUN_MAX_MEMBERS", false), 8)

	c.FFmpegPath = or(get("FFMPEG_PATH", false), "ffmpeg")
	c.YTDLPPath = or(get("YTDLP_PATH", false), "yt-dlp")
	c.MusicVolume = floatOr(get("MUSIC_VOLUME", false), 0.25)

	c.TicketRetentionDays = intOr(get("TICKET_RETENTION_DAYS", false), 60)
}

// BotToken agrega el prefijo "Bot " si no viene.
func (c Config) BotToken() string {
	auth := strings.TrimSpace(c.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	return auth
}

// Redacted es seguro para loguear.
func (c Config) Redacted() Config {
	out := c
	if out.DiscordToken != "" {
		out.DiscordToken = "****"
	}
	if u, err := url.Parse(out.DatabaseURL); err == nil && u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "****")
			out.DatabaseURL = u.String()
		}
	}
	return out
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOr(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	return def
}

func intOr(v string, def int) int {
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return def
}

func floatOr(v string, def float64) float64 {
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		return f
	}
	return def
}
