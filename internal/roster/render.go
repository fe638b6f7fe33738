package roster

import (
	"fmt"
	"strings"
)

const (
	Placeholder      = "<> The bot is currently resetting the player list. Please wait. <>"
	lockedAnnotation = "\n\n__**Team Full**__ - This team has been locked ^^"
)

func mention(id string) string { return "<@" + id + ">" }

// Render arma el texto del mensaje de estado a partir del roster.
func Render(rec Record) string {
	var b strings.Builder
	switch rec.Kind {
	case KindRun:
		b.WriteString("__**Run Guide**__\n")
		b.WriteString(mention(rec.LeaderID))
		b.WriteString("\n\n__**Runners**__\n")
		for _, m := range rec.Members {
			b.WriteString(mention(m))
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "-# %d/%d", rec.Headcount(), rec.MaxMembers)
	default:
		b.WriteString("__**Group Leader**__\n")
		b.WriteString(mention(rec.LeaderID))
		if rec.Emoji != "" {
			b.WriteString(" " + rec.Emoji)
		}
		b.WriteString("\n\n__**Members**__\n")
		b.WriteString(strings.Join(mapMentions(rec.Members), "\n"))
	}
	if rec.Locked {
		b.WriteString(lockedAnnotation)
	}
	return b.String()
}

func mapMentions(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = mention(id)
	}
	return out
}
