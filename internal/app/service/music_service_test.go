package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
	"github.com/jose-valero/dreamy-assistant-bot/internal/music"
)

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, ref string) (music.Stream, error) {
	return music.Stream{URL: "stream:" + ref, Title: "Song " + ref[len(ref)-4:]}, nil
}

type stubResolver struct{}

func (stubResolver) Expand(context.Context, string) ([]string, error) {
	return []string{"https://www.youtube.com/watch?v=p001", "https://www.youtube.com/watch?v=p002"}, nil
}

type endlessPlayback struct{ done chan error }

func (p endlessPlayback) Done() <-chan error { return p.done }
func (endlessPlayback) Pause()               {}
func (endlessPlayback) Resume()              {}
func (p endlessPlayback) Stop() {
	select {
	case p.done <- nil:
	default:
	}
}

type stubVoice struct{}

func (stubVoice) Play(context.Context, string) (music.Playback, error) {
	return endlessPlayback{done: make(chan error, 1)}, nil
}
func (stubVoice) Disconnect() error { return nil }

type stubConnector struct{}

func (stubConnector) Join(context.Context, string) (music.Voice, error) { return stubVoice{}, nil }

type stubTitles struct {
	mu    sync.Mutex
	calls int
}

func (s *stubTitles) Title(_ context.Context, u string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return "Title of " + u[len(u)-4:], nil
}

func musicRig(t *testing.T, gs domain.GuildSettings) (*MusicService, *fakeDiscord, *stubTitles) {
	t.Helper()
	d := newFakeDiscord()
	titles := &stubTitles{}
	s := NewMusicService(dirWith(gs), d, titles, music.Deps{
		Resolver: stubResolver{}, Extractor: stubExtractor{}, Connector: stubConnector{},
	}, quietLog())
	t.Cleanup(s.Close)
	return s, d, titles
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func TestPlayNeedsVoiceChannel(t *testing.T) {
	s, _, _ := musicRig(t, domain.GuildSettings{GuildID: "g1"})
	msg, err := s.Play(context.Background(), "g1", "c1", "https://www.youtube.com/watch?v=abcd")
	if err != nil || !strings.Contains(msg, "isn't configured") {
		t.Fatalf("got %q %v", msg, err)
	}
}

func TestPlayAnnouncesInInvokingChannel(t *testing.T) {
	s, d, _ := musicRig(t, domain.GuildSettings{GuildID: "g1", MusicVoiceID: "v1"})
	ctx := context.Background()

	msg, err := s.Play(ctx, "g1", "c1", "https://www.youtube.com/watch?v=abcd")
	if err != nil || !strings.Contains(msg, "Added 1 song") {
		t.Fatalf("play: %q %v", msg, err)
	}
	waitFor(t, func() bool { return len(d.sentTo("c1")) > 0 })
	if got := d.sentTo("c1")[0].content; !strings.Contains(got, "Now playing") {
		t.Fatalf("announce: %q", got)
	}
}

func TestAnnouncePrefersMusicChannel(t *testing.T) {
	s, d, _ := musicRig(t, domain.GuildSettings{GuildID: "g1", MusicVoiceID: "v1", MusicChannelID: "music"})
	s.touch("g1", "c1")
	s.Announce("g1", "hello")
	if len(d.sentTo("music")) != 1 || len(d.sentTo("c1")) != 0 {
		t.Fatal("announcement not in music channel")
	}
}

func TestListFetchesMissingTitles(t *testing.T) {
	s, _, titles := musicRig(t, domain.GuildSettings{GuildID: "g1", MusicVoiceID: "v1"})
	ctx := context.Background()
	if msg, _ := s.List(ctx, "g1"); !strings.Contains(msg, "empty") {
		t.Fatalf("empty list: %q", msg)
	}
	if _, err := s.Play(ctx, "g1", "c1", "https://www.youtube.com/watch?v=abcd"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Play(ctx, "g1", "c1", "https://www.youtube.com/playlist?list=PLxyz"); err != nil {
		t.Fatal(err)
	}
	msg, err := s.List(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Now playing:** Song abcd", "1. Title of p001", "2. Title of p002"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("list missing %q:\n%s", want, msg)
		}
	}
	if titles.calls != 2 {
		t.Fatalf("title lookups = %d", titles.calls)
	}
}

func TestControlsWithoutPlayer(t *testing.T) {
	s, _, _ := musicRig(t, domain.GuildSettings{GuildID: "g1", MusicVoiceID: "v1"})
	ctx := context.Background()
	if msg, _ := s.Skip(ctx, "g1", "c1"); !strings.Contains(msg, "Nothing is playing") {
		t.Fatalf("skip: %q", msg)
	}
	if msg, _ := s.Back(ctx, "g1", "c1"); !strings.Contains(msg, "no previous") {
		t.Fatalf("back: %q", msg)
	}
	if msg, _ := s.Play(ctx, "g1", "c1", "https://www.youtube.com/watch?v=abcd&list=RDabcd"); !strings.Contains(msg, "Radio") {
		t.Fatalf("radio: %q", msg)
	}
}

func TestStateWithoutPlayerIsIdle(t *testing.T) {
	s, _, _ := musicRig(t, domain.GuildSettings{GuildID: "g1", MusicVoiceID: "v1"})
	st := s.State(context.Background(), "g1")
	if st.Status != music.StatusIdle || st.Current != nil || len(st.Queue) != 0 {
		t.Fatalf("state: %+v", st)
	}
}
