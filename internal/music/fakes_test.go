package music

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeResolver struct{ lists map[string][]string }

func (f fakeResolver) Expand(_ context.Context, u string) ([]string, error) {
	l, ok := f.lists[u]
	if !ok {
		return nil, errors.New("unknown playlist")
	}
	return l, nil
}

type fakeExtractor struct{ fail map[string]bool }

func (f fakeExtractor) Extract(_ context.Context, ref string) (Stream, error) {
	if f.fail[ref] {
		return Stream{}, errors.New("extractor down")
	}
	return Stream{URL: "stream:" + ref, Title: "T-" + ref}, nil
}

type fakePlayback struct {
	once   sync.Once
	done   chan error
	mu     sync.Mutex
	paused bool
}

func newFakePlayback() *fakePlayback { return &fakePlayback{done: make(chan error, 1)} }

func (f *fakePlayback) Done() <-chan error { return f.done }
func (f *fakePlayback) Pause()            { f.mu.Lock(); f.paused = true; f.mu.Unlock() }
func (f *fakePlayback) Resume()           { f.mu.Lock(); f.paused = false; f.mu.Unlock() }
func (f *fakePlayback) Stop()             { f.finish(nil) }
func (f *fakePlayback) finish(err error) {
	f.once.Do(func() { f.done <- err; close(f.done) })
}

type fakeVoice struct {
	mu           sync.Mutex
	plays        []string
	playbacks    []*fakePlayback
	disconnected int
}

func (v *fakeVoice) Play(_ context.Context, u string) (Playback, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	pb := newFakePlayback()
	v.plays = append(v.plays, u)
	v.playbacks = append(v.playbacks, pb)
	return pb, nil
}

func (v *fakeVoice) Disconnect() error {
	v.mu.Lock()
	v.disconnected++
	v.mu.Unlock()
	return nil
}

func (v *fakeVoice) last() *fakePlayback {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playbacks[len(v.playbacks)-1]
}

func (v *fakeVoice) playCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.plays)
}

type fakeConnector struct {
	voice *fakeVoice
	err   error
	joins int
}

func (c *fakeConnector) Join(context.Context, string) (Voice, error) {
	c.joins++
	if c.err != nil {
		return nil, c.err
	}
	return c.voice, nil
}

type fakeAnnouncer struct {
	mu   sync.Mutex
	msgs []string
}

func (a *fakeAnnouncer) Announce(_, text string) {
	a.mu.Lock()
	a.msgs = append(a.msgs, text)
	a.mu.Unlock()
}

func (a *fakeAnnouncer) count(substr string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, m := range a.msgs {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

type rig struct {
	p     *Player
	voice *fakeVoice
	conn  *fakeConnector
	ann   *fakeAnnouncer
}

const (
	videoA   = "https://www.youtube.com/watch?v=aaaa"
	playlist = "https://www.youtube.com/playlist?list=PL123"
	radio    = "https://www.youtube.com/watch?v=aaaa&list=RDaaaa"
)

func newRig(t *testing.T, fail ...string) *rig {
	t.Helper()
	failing := map[string]bool{}
	for _, f := range fail {
		failing[f] = true
	}
	v := &fakeVoice{}
	r := &rig{voice: v, conn: &fakeConnector{voice: v}, ann: &fakeAnnouncer{}}
	r.p = NewPlayer("g1", Deps{
		Resolver: fakeResolver{lists: map[string][]string{
			playlist: {"trackA", "trackB"},
		}},
		Extractor: fakeExtractor{fail: failing},
		Connector: r.conn,
		Announcer: r.ann,
	})
	t.Cleanup(r.p.Close)
	return r
}

func (r *rig) state(t *testing.T) State {
	t.Helper()
	st, err := r.p.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func eventually(t *testing.T, cond func() bool) {
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

func urls(ts []Track) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.URL
	}
	return out
}
