package music

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
)

// State es una foto del estado de un guild.
type State struct {
	GuildID   string
	Status    Status
	Current   *Track
	Queue     []Track
	Played    []Track
	Connected bool
}

type Deps struct {
	Resolver       Resolver
	Extractor      Extractor
	Connector      Connector
	Announcer      Announcer
	Log            *slog.Logger
	ExtractTimeout time.Duration
}

const defaultExtractTimeout = 45 * time.Second

type request struct {
	fn    func() error
	reply chan error
}

type finished struct {
	gen uint64
	err error
}

// Player es la máquina de estados de reproducción de un guild. Todo el estado
// lo muta la goroutine de loop; comandos y fin de track llegan por canal.
type Player struct {
	guildID string
	deps    Deps
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	reqs   chan request
	ended  chan finished
	done   chan struct{}

	// sólo el loop toca lo de abajo
	status  Status
	queue   []Track
	current *Track
	played  []Track
	voice   Voice
	pb      Playback
	gen     uint64
}

func NewPlayer(guildID string, deps Deps) *Player {
	if deps.ExtractTimeout <= 0 {
		deps.ExtractTimeout = defaultExtractTimeout
	}
	lg := deps.Log
	if lg == nil {
		lg = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		guildID: guildID,
		deps:    deps,
		log:     lg.With("component", "music", "guild", guildID),
		ctx:     ctx,
		cancel:  cancel,
		reqs:    make(chan request),
		ended:   make(chan finished, 1),
		done:    make(chan struct{}),
		status:  StatusIdle,
	}
	go p.loop()
	return p
}

func (p *Player) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.ctx.Done():
			p.teardown()
			return
		case r := <-p.reqs:
			r.reply <- p.safe(r.fn)
		case f := <-p.ended:
			if f.gen != p.gen || p.pb == nil {
				// stop/skip ya avanzó, o es un stream viejo
				continue
			}
			if f.err != nil {
				p.log.Warn("stream ended with error", "track", p.current.URL, "err", f.err)
			}
			p.pb = nil
			_ = p.safe(p.playNext)
		}
	}
}

func (p *Player) safe(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("panic in player", "panic", rec)
			err = fmt.Errorf("player panic: %v", rec)
		}
	}()
	return fn()
}

// exec corre fn dentro del loop y espera su resultado.
func (p *Player) exec(ctx context.Context, fn func() error) error {
	r := request{fn: fn, reply: make(chan error, 1)}
	select {
	case p.reqs <- r:
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-r.reply:
		return err
	case <-p.done:
		return ErrClosed
	}
}

func (p *Player) announce(text string) {
	if p.deps.Announcer != nil {
		p.deps.Announcer.Announce(p.guildID, text)
	}
}

// resolve clasifica y expande fuera del loop.
func (p *Player) resolve(ctx context.Context, url string) ([]Track, error) {
	var refs []string
	switch Classify(url) {
	case KindRadio:
		return nil, ErrRadio
	case KindInvalid:
		return nil, ErrInvalidURL
	case KindVideo:
		refs = []string{url}
	case KindPlaylist:
		if p.deps.Resolver == nil {
			return nil, ErrEmptyPlaylist
		}
		urls, err := p.deps.Resolver.Expand(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("expand playlist: %w", err)
		}
		refs = urls
	}
	tracks := make([]Track, 0, len(refs))
	for _, r := range refs {
		if r != "" {
			tracks = append(tracks, Track{URL: r})
		}
	}
	if len(tracks) == 0 {
		return nil, ErrEmptyPlaylist
	}
	return tracks, nil
}

// Enqueue agrega al final y arranca si no hay nada sonando.
func (p *Player) Enqueue(ctx context.Context, url string) (int, error) {
	tracks, err := p.resolve(ctx, url)
	if err != nil {
		return 0, err
	}
	err = p.exec(ctx, func() error {
		p.queue = append(p.queue, tracks...)
		if p.status == StatusIdle {
			return p.playNext()
		}
		return nil
	})
	return len(tracks), err
}

// PlayNow pone los tracks al frente y corta lo que esté sonando.
func (p *Player) PlayNow(ctx context.Context, url string) (int, error) {
	tracks, err := p.resolve(ctx, url)
	if err != nil {
		return 0, err
	}
	err = p.exec(ctx, func() error {
		p.queue = append(tracks, p.queue...)
		p.stopStream()
		return p.playNext()
	})
	return len(tracks), err
}

func (p *Player) PlayNext(ctx context.Context) error {
	return p.exec(ctx, func() error {
		p.stopStream()
		return p.playNext()
	})
}

func (p *Player) Skip(ctx context.Context) error {
	return p.exec(ctx, func() error {
		switch {
		case p.pb != nil:
			p.stopStream()
			return p.playNext()
		case len(p.queue) > 0:
			return p.playNext()
		}
		return ErrNothingPlaying
	})
}

// Back vuelve al track anterior. Con algo sonando, encola [anterior, actual].
func (p *Player) Back(ctx context.Context) error {
	return p.exec(ctx, func() error {
		switch {
		case len(p.played) > 0:
			prev := p.played[len(p.played)-1]
			p.played = p.played[:len(p.played)-1]
			front := []Track{prev}
			if p.current != nil {
				front = append(front, *p.current)
			}
			p.queue = append(front, p.queue...)
		case p.current != nil:
			// sin historial: reinicia el actual
			p.queue = append([]Track{*p.current}, p.queue...)
		default:
			return ErrNoPrevious
		}
		p.current = nil
		p.stopStream()
		return p.playNext()
	})
}

func (p *Player) Pause(ctx context.Context) error {
	return p.exec(ctx, func() error {
		switch {
		case p.pb == nil:
			return ErrNothingPlaying
		case p.status == StatusPaused:
			return ErrAlreadyPaused
		}
		p.pb.Pause()
		p.status = StatusPaused
		return nil
	})
}

func (p *Player) Resume(ctx context.Context) error {
	return p.exec(ctx, func() error {
		switch {
		case p.pb == nil:
			return ErrNothingPlaying
		case p.status != StatusPaused:
			return ErrNotPaused
		}
		p.pb.Resume()
		p.status = StatusPlaying
		return nil
	})
}

// ClearQueue descarta cola, historial y actual. La conexión de voz queda.
func (p *Player) ClearQueue(ctx context.Context) error {
	return p.exec(ctx, func() error {
		p.clear()
		return nil
	})
}

// Stop es ClearQueue más soltar la voz.
func (p *Player) Stop(ctx context.Context) error {
	return p.exec(ctx, func() error {
		p.clear()
		return p.disconnect()
	})
}

func (p *Player) Snapshot(ctx context.Context) (State, error) {
	var st State
	err := p.exec(ctx, func() error {
		st = State{
			GuildID:   p.guildID,
			Status:    p.status,
			Queue:     append([]Track(nil), p.queue...),
			Played:    append([]Track(nil), p.played...),
			Connected: p.voice != nil,
		}
		if p.current != nil {
			cur := *p.current
			st.Current = &cur
		}
		return nil
	})
	return st, err
}

// Close detiene el loop, corta el stream y suelta la voz.
func (p *Player) Close() {
	p.cancel()
	<-p.done
}

// ---------- dentro del loop ----------

func (p *Player) playNext() error {
	for {
		if len(p.queue) == 0 {
			if p.current != nil {
				p.played = append(p.played, *p.current)
				p.current = nil
			}
			p.status = StatusIdle
			p.announce("The queue is empty, no more songs to play.")
			return nil
		}

		next := p.queue[0]
		p.queue = p.queue[1:]
		if p.current != nil {
			p.played = append(p.played, *p.current)
			p.current = nil
		}

		ctx, cancel := context.WithTimeout(p.ctx, p.deps.ExtractTimeout)
		stream, err := p.deps.Extractor.Extract(ctx, next.URL)
		cancel()
		if err != nil {
			p.log.Warn("extract failed, skipping", "track", next.URL, "err", err)
			p.announce(fmt.Sprintf("Could not play <%s>, skipping to the next song.", next.URL))
			continue
		}
		next.Title = stream.Title

		if err := p.ensureVoice(); err != nil {
			p.log.Error("voice connect failed", "err", err)
			p.queue = append([]Track{next}, p.queue...)
			p.status = StatusIdle
			return ErrNoVoice
		}

		pb, err := p.voice.Play(p.ctx, stream.URL)
		if err != nil {
			p.log.Warn("playback failed, skipping", "track", next.URL, "err", err)
			p.announce(fmt.Sprintf("Could not play **%s**, skipping to the next song.", next.Label()))
			continue
		}

		p.gen++
		p.current = &next
		p.pb = pb
		p.status = StatusPlaying
		go p.watch(p.gen, pb)
		p.log.Info("now playing", "track", next.URL, "title", next.Title)
		p.announce(fmt.Sprintf("Now playing: **%s**", next.Label()))
		return nil
	}
}

// watch pasa el fin del stream al loop; nunca toca estado.
func (p *Player) watch(gen uint64, pb Playback) {
	var err error
	select {
	case err = <-pb.Done():
	case <-p.ctx.Done():
		return
	}
	select {
	case p.ended <- finished{gen: gen, err: err}:
	case <-p.ctx.Done():
	}
}

func (p *Player) ensureVoice() error {
	if p.voice != nil {
		return nil
	}
	if p.deps.Connector == nil {
		return ErrNoVoice
	}
	ctx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
	defer cancel()
	v, err := p.deps.Connector.Join(ctx, p.guildID)
	if err != nil {
		return err
	}
	p.voice = v
	return nil
}

func (p *Player) stopStream() {
	if p.pb == nil {
		return
	}
	p.gen++
	p.pb.Stop()
	p.pb = nil
}

func (p *Player) clear() {
	p.stopStream()
	p.queue = nil
	p.played = nil
	p.current = nil
	p.status = StatusIdle
}

func (p *Player) disconnect() error {
	if p.voice == nil {
		return nil
	}
	err := p.voice.Disconnect()
	p.voice = nil
	return err
}

func (p *Player) teardown() {
	p.clear()
	if err := p.disconnect(); err != nil {
		p.log.Warn("disconnect on close", "err", err)
	}
}
