package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript("ticket-1", []TranscriptLine{
		{At: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Author: "alice", Content: "hi"},
		{At: time.Date(2024, 5, 1, 10, 1, 30, 0, time.UTC), Author: "bob", Content: "look", Attachments: []string{"https://cdn/x.png"}},
	})
	want := "Transcript of #ticket-1\nMessages: 2\n\n" +
		"[2024-05-01 10:00:00] alice: hi\n" +
		"[2024-05-01 10:01:30] bob: look [attachment: https://cdn/x.png]\n"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTranscriptLinesOldestFirst(t *testing.T) {
	lines := transcriptLines([]*discordgo.Message{
		{Content: "new", Author: &discordgo.User{Username: "b"}},
		{Content: "old"},
	})
	if lines[0].Content != "old" || lines[0].Author != "unknown" || lines[1].Author != "b" {
		t.Fatalf("lines = %+v", lines)
	}
}
