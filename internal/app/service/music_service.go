package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jose-valero/dreamy-assistant-bot/internal/music"
)

const (
	listLimit        = 10
	titleConcurrency = 4
)

// MusicService es la fachada de comandos sobre music.Manager; además hace de
// Announcer publicando en el canal de música del guild.
type MusicService struct {
	mgr    *music.Manager
	dir    *Directory
	post   Poster
	titles TitleLookup
	log    *slog.Logger

	mu   sync.Mutex
	last map[string]string // guild -> último canal que invocó
}

func NewMusicService(dir *Directory, post Poster, titles TitleLookup, deps music.Deps, log *slog.Logger) *MusicService {
	s := &MusicService{
		dir:    dir,
		post:   post,
		titles: titles,
		log:    log.With("component", "music-service"),
		last:   make(map[string]string),
	}
	deps.Announcer = s
	if deps.Log == nil {
		deps.Log = log
	}
	s.mgr = music.NewManager(deps)
	return s
}

// Announce implementa music.Announcer.
func (s *MusicService) Announce(guildID, text string) {
	ch := ""
	if g, ok := s.dir.Get(guildID); ok {
		ch = g.MusicChannelID
	}
	if ch == "" {
		s.mu.Lock()
		ch = s.last[guildID]
		s.mu.Unlock()
	}
	if ch == "" {
		s.log.Warn("no channel to announce", "guild", guildID, "text", text)
		return
	}
	if _, err := s.post.ChannelMessageSend(ch, text); err != nil {
		s.log.Warn("announce", "guild", guildID, "channel", ch, "err", err)
	}
}

func (s *MusicService) touch(guildID, channelID string) {
	if channelID == "" {
		return
	}
	s.mu.Lock()
	s.last[guildID] = channelID
	s.mu.Unlock()
}

func musicMsg(err error) (string, bool) {
	switch {
	case errors.Is(err, music.ErrRadio):
		return "⚠️ Radio and mix links aren't supported. Send a video or a regular playlist.", true
	case errors.Is(err, music.ErrInvalidURL):
		return "⚠️ That isn't a valid YouTube video or playlist link.", true
	case errors.Is(err, music.ErrEmptyPlaylist):
		return "⚠️ That playlist has no playable songs.", true
	case errors.Is(err, music.ErrNoPrevious):
		return "ℹ️ There is no previous song.", true
	case errors.Is(err, music.ErrNothingPlaying):
		return "ℹ️ Nothing is playing right now.", true
	case errors.Is(err, music.ErrAlreadyPaused):
		return "ℹ️ Playback is already paused.", true
	case errors.Is(err, music.ErrNotPaused):
		return "ℹ️ Playback isn't paused.", true
	case errors.Is(err, music.ErrNoVoice):
		return "⚠️ I couldn't join the music voice channel.", true
	case errors.Is(err, ErrChannelNotConfigured):
		return "⚠️ The music voice channel isn't configured. Ask the owner to run `/setup_channels`.", true
	}
	return "", false
}

// reply convierte el error del player en un mensaje o lo propaga.
func reply(ok string, err error) (string, error) {
	if err == nil {
		return ok, nil
	}
	if msg, known := musicMsg(err); known {
		return msg, nil
	}
	return "", err
}

func (s *MusicService) ready(guildID string) error {
	g, ok := s.dir.Get(guildID)
	if !ok || g.MusicVoiceID == "" {
		return ErrChannelNotConfigured
	}
	return nil
}

func (s *MusicService) Play(ctx context.Context, guildID, channelID, url string) (string, error) {
	s.touch(guildID, channelID)
	if err := s.ready(guildID); err != nil {
		return reply("", err)
	}
	n, err := s.mgr.Get(guildID).Enqueue(ctx, strings.TrimSpace(url))
	return reply(added(n), err)
}

func (s *MusicService) PlayNow(ctx context.Context, guildID, channelID, url string) (string, error) {
	s.touch(guildID, channelID)
	if err := s.ready(guildID); err != nil {
		return reply("", err)
	}
	n, err := s.mgr.Get(guildID).PlayNow(ctx, strings.TrimSpace(url))
	return reply(fmt.Sprintf("▶️ Playing now (%d song(s) pushed to the front).", n), err)
}

func added(n int) string {
	if n == 1 {
		return "🎶 Added 1 song to the queue."
	}
	return fmt.Sprintf("🎶 Added %d songs to the queue.", n)
}

// idle: sin player no hay nada que controlar.
func (s *MusicService) player(guildID, channelID string) (*music.Player, bool) {
	s.touch(guildID, channelID)
	return s.mgr.Lookup(guildID)
}

func (s *MusicService) Skip(ctx context.Context, guildID, channelID string) (string, error) {
	p, ok := s.player(guildID, channelID)
	if !ok {
		return reply("", music.ErrNothingPlaying)
	}
	return reply("⏭️ Skipped.", p.Skip(ctx))
}

func (s *MusicService) Back(ctx context.Context, guildID, channelID string) (string, error) {
	p, ok := s.player(guildID, channelID)
	if !ok {
		return reply("", music.ErrNoPrevious)
	}
	return reply("⏮️ Back to the previous song.", p.Back(ctx))
}

func (s *MusicService) Pause(ctx context.Context, guildID, channelID string) (string, error) {
	p, ok := s.player(guildID, channelID)
	if !ok {
		return reply("", music.ErrNothingPlaying)
	}
	return reply("⏸️ Paused.", p.Pause(ctx))
}

func (s *MusicService) Resume(ctx context.Context, guildID, channelID string) (string, error) {
	p, ok := s.player(guildID, channelID)
	if !ok {
		return reply("", music.ErrNothingPlaying)
	}
	return reply("▶️ Resumed.", p.Resume(ctx))
}

func (s *MusicService) Clear(ctx context.Context, guildID, channelID string) (string, error) {
	p, ok := s.player(guildID, channelID)
	if !ok {
		return "🧹 The queue is already empty.", nil
	}
	return reply("🧹 Queue cleared.", p.ClearQueue(ctx))
}

func (s *MusicService) Stop(ctx context.Context, guildID, channelID string) (string, error) {
	p, ok := s.player(guildID, channelID)
	if !ok {
		return "⏹️ Nothing to stop.", nil
	}
	return reply("⏹️ Stopped and left the voice channel.", p.Stop(ctx))
}

// List muestra el actual y los próximos; busca títulos faltantes en paralelo.
func (s *MusicService) List(ctx context.Context, guildID string) (string, error) {
	p, ok := s.mgr.Lookup(guildID)
	if !ok {
		return "📭 The queue is empty.", nil
	}
	st, err := p.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if st.Current == nil && len(st.Queue) == 0 {
		return "📭 The queue is empty.", nil
	}

	upcoming := st.Queue
	if len(upcoming) > listLimit {
		upcoming = upcoming[:listLimit]
	}
	labels := make([]string, len(upcoming))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(titleConcurrency)
	for i, t := range upcoming {
		if t.Title != "" || s.titles == nil {
			labels[i] = t.Label()
			continue
		}
		g.Go(func() error {
			title, err := s.titles.Title(gctx, t.URL)
			if err != nil || title == "" {
				s.log.Debug("title lookup", "url", t.URL, "err", err)
				labels[i] = t.URL
				return nil
			}
			labels[i] = title
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	if st.Current != nil {
		state := "Now playing"
		if st.Status == music.StatusPaused {
			state = "Paused"
		}
		fmt.Fprintf(&b, "**%s:** %s\n", state, st.Current.Label())
	}
	if len(labels) > 0 {
		b.WriteString("**Up next:**\n")
		for i, l := range labels {
			fmt.Fprintf(&b, "%d. %s\n", i+1, l)
		}
		if rest := len(st.Queue) - len(labels); rest > 0 {
			fmt.Fprintf(&b, "…and %d more\n", rest)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// State es la foto de un guild; sin player devuelve Idle.
func (s *MusicService) State(ctx context.Context, guildID string) music.State {
	p, ok := s.mgr.Lookup(guildID)
	if !ok {
		return music.State{GuildID: guildID, Status: music.StatusIdle}
	}
	st, err := p.Snapshot(ctx)
	if err != nil {
		return music.State{GuildID: guildID, Status: music.StatusIdle}
	}
	return st
}

func (s *MusicService) Snapshots(ctx context.Context) []music.State { return s.mgr.Snapshots(ctx) }

func (s *MusicService) Close() { s.mgr.Close() }
