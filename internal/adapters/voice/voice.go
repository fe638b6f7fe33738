// Package voice conecta el player de música con las conexiones de voz de
// Discord: ffmpeg transcodifica a ogg/opus y las páginas van a OpusSend.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"

	"github.com/jose-valero/dreamy-assistant-bot/internal/music"
)

var ErrNoChannel = errors.New("no voice channel configured")

// Joiner es el recorte de *discordgo.Session que usamos.
type Joiner interface {
	ChannelVoiceJoin(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

type Options struct {
	FFmpegPath string
	Volume     float64
	// ChannelFor devuelve el canal de voz de música del guild.
	ChannelFor func(guildID string) string
	Log        *slog.Logger
}

type Connector struct {
	s    Joiner
	opts Options
	log  *slog.Logger
}

func NewConnector(s Joiner, opts Options) *Connector {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.Volume <= 0 {
		opts.Volume = 0.5
	}
	lg := opts.Log
	if lg == nil {
		lg = slog.Default()
	}
	return &Connector{s: s, opts: opts, log: lg.With("component", "voice")}
}

// Join implementa music.Connector.
func (c *Connector) Join(_ context.Context, guildID string) (music.Voice, error) {
	ch := ""
	if c.opts.ChannelFor != nil {
		ch = c.opts.ChannelFor(guildID)
	}
	if ch == "" {
		return nil, ErrNoChannel
	}
	vc, err := c.s.ChannelVoiceJoin(guildID, ch, false, true)
	if err != nil {
		return nil, fmt.Errorf("join voice %s: %w", ch, err)
	}
	c.log.Info("voice connected", "guild", guildID, "channel", ch)
	return &Voice{vc: vc, ffmpeg: c.opts.FFmpegPath, volume: c.opts.Volume, log: c.log.With("guild", guildID)}, nil
}

type Voice struct {
	vc     *discordgo.VoiceConnection
	ffmpeg string
	volume float64
	log    *slog.Logger
}

func (v *Voice) Disconnect() error {
	return v.vc.Disconnect()
}

// FFmpegArgs arma la línea de ffmpeg: reconexión, sin video, opus 48k en ogg
// con páginas de 20ms.
func FFmpegArgs(streamURL string, volume float64) []string {
	return []string{
		"-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5",
		"-loglevel", "error",
		"-i", streamURL,
		"-vn",
		"-af", "volume=" + strconv.FormatFloat(volume, 'f', -1, 64),
		"-c:a", "libopus", "-b:a", "96k", "-ar", "48000", "-ac", "2",
		"-frame_duration", "20", "-page_duration", "20000",
		"-f", "ogg", "pipe:1",
	}
}

// Play implementa music.Voice.
func (v *Voice) Play(ctx context.Context, streamURL string) (music.Playback, error) {
	pctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(pctx, v.ffmpeg, FFmpegArgs(streamURL, v.volume)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	pb := newPlayback(cancel)
	go func() {
		_ = v.vc.Speaking(true)
		err := pump(pctx, out, v.vc.OpusSend, pb)
		_ = v.vc.Speaking(false)
		stopped := pctx.Err() != nil
		if err != nil {
			// ffmpeg puede quedar bloqueado escribiendo al pipe
			cancel()
		}
		werr := cmd.Wait()
		switch {
		case stopped:
			err = nil
		case err == nil && werr != nil:
			err = fmt.Errorf("ffmpeg: %w: %s", werr, bytes.TrimSpace(stderr.Bytes()))
		}
		if err != nil {
			v.log.Warn("stream ended with error", "err", err)
		}
		pb.finish(err)
	}()
	return pb, nil
}

// pump lee páginas ogg y manda cada payload opus; OpusTags se saltea.
func pump(ctx context.Context, r io.Reader, send chan<- []byte, pb *playback) error {
	ogg, _, err := oggreader.NewWith(r)
	if err != nil {
		return fmt.Errorf("read ogg header: %w", err)
	}
	for {
		payload, _, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if bytes.HasPrefix(payload, []byte("OpusTags")) || len(payload) == 0 {
			continue
		}
		if !pb.wait(ctx) {
			return nil
		}
		select {
		case send <- payload:
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
			// conexión de voz trabada; se descarta la página
		}
	}
}

type playback struct {
	cancel context.CancelFunc
	done   chan error

	mu     sync.Mutex
	resume chan struct{} // != nil mientras está en pausa
	once   sync.Once
}

func newPlayback(cancel context.CancelFunc) *playback {
	return &playback{cancel: cancel, done: make(chan error, 1)}
}

func (p *playback) Done() <-chan error { return p.done }

func (p *playback) Pause() {
	p.mu.Lock()
	if p.resume == nil {
		p.resume = make(chan struct{})
	}
	p.mu.Unlock()
}

func (p *playback) Resume() {
	p.mu.Lock()
	if p.resume != nil {
		close(p.resume)
		p.resume = nil
	}
	p.mu.Unlock()
}

func (p *playback) Stop() { p.cancel() }

// wait bloquea mientras está en pausa; false si hay que cortar.
func (p *playback) wait(ctx context.Context) bool {
	p.mu.Lock()
	ch := p.resume
	p.mu.Unlock()
	if ch == nil {
		return ctx.Err() == nil
	}
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *playback) finish(err error) {
	p.once.Do(func() {
		p.done <- err
		close(p.done)
		p.cancel()
	})
}
