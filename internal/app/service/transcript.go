package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const transcriptLimit = 500

type TranscriptLine struct {
	At          time.Time
	Author      string
	Content     string
	Attachments []string
}

// FormatTranscript arma el .txt del ticket; las líneas vienen viejo -> nuevo.
func FormatTranscript(channelName string, lines []TranscriptLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transcript of #%s\n", channelName)
	fmt.Fprintf(&b, "Messages: %d\n\n", len(lines))
	for _, l := range lines {
		fmt.Fprintf(&b, "[%s] %s: %s", l.At.UTC().Format("2006-01-02 15:04:05"), l.Author, l.Content)
		for _, a := range l.Attachments {
			fmt.Fprintf(&b, " [attachment: %s]", a)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func transcriptLines(msgs []*discordgo.Message) []TranscriptLine {
	out := make([]TranscriptLine, 0, len(msgs))
	// la API devuelve nuevo -> viejo
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		l := TranscriptLine{At: m.Timestamp, Content: m.Content, Author: "unknown"}
		if m.Author != nil {
			l.Author = m.Author.Username
		}
		for _, a := range m.Attachments {
			l.Attachments = append(l.Attachments, a.URL)
		}
		out = append(out, l)
	}
	return out
}
