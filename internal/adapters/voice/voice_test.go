package voice

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestFFmpegArgs(t *testing.T) {
	args := FFmpegArgs("https://cdn/a", 0.25)
	for _, want := range []string{"-vn", "volume=0.25", "libopus", "48000", "pipe:1"} {
		if !slices.Contains(args, want) {
			t.Fatalf("missing %q in %v", want, args)
		}
	}
	i := slices.Index(args, "-i")
	if i < 0 || args[i+1] != "https://cdn/a" {
		t.Fatalf("input not set: %v", args)
	}
}

func TestPauseBlocksUntilResume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pb := newPlayback(cancel)
	pb.Pause()
	pb.Pause()

	got := make(chan bool, 1)
	go func() { got <- pb.wait(ctx) }()
	select {
	case <-got:
		t.Fatal("wait returned while paused")
	case <-time.After(30 * time.Millisecond):
	}
	pb.Resume()
	if ok := <-got; !ok {
		t.Fatal("wait after resume = false")
	}
}

func TestStopReleasesPausedWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pb := newPlayback(cancel)
	pb.Pause()
	go pb.Stop()
	if pb.wait(ctx) {
		t.Fatal("wait after stop = true")
	}
}

func TestFinishOnce(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	pb := newPlayback(cancel)
	boom := errors.New("boom")
	pb.finish(boom)
	pb.finish(nil)
	if err := <-pb.Done(); !errors.Is(err, boom) {
		t.Fatalf("done = %v", err)
	}
}

type fakeJoiner struct{ gid, cid string }

func (f *fakeJoiner) ChannelVoiceJoin(gID, cID string, _, _ bool) (*discordgo.VoiceConnection, error) {
	f.gid, f.cid = gID, cID
	return &discordgo.VoiceConnection{}, nil
}

func TestJoinNeedsChannel(t *testing.T) {
	j := &fakeJoiner{}
	c := NewConnector(j, Options{ChannelFor: func(string) string { return "" }})
	if _, err := c.Join(context.Background(), "g1"); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("err = %v", err)
	}

	c = NewConnector(j, Options{ChannelFor: func(g string) string { return "v-" + g }})
	if _, err := c.Join(context.Background(), "g1"); err != nil {
		t.Fatal(err)
	}
	if j.gid != "g1" || j.cid != "v-g1" {
		t.Fatalf("joined %s/%s", j.gid, j.cid)
	}
}
