package roster

import (
	"regexp"
	"strings"
)

var reCustomEmoji = regexp.MustCompile(`^<a?:(\w+):(\d+)>$`)

// EmojiAPIName lleva un emoji a la forma que usa la API de reacciones:
// "name:id" para custom, el propio caracter para unicode.
func EmojiAPIName(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := reCustomEmoji.FindStringSubmatch(raw); len(m) == 3 {
		return m[1] + ":" + m[2]
	}
	return strings.ReplaceAll(raw, "\ufe0f", "")
}

// SameEmoji compara ignorando formato de mención y variation selectors.
func SameEmoji(a, b string) bool {
	return EmojiAPIName(a) == EmojiAPIName(b)
}

// ValidEmoji acepta un custom emoji o un texto corto sin espacios.
func ValidEmoji(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return false
	}
	if reCustomEmoji.MatchString(raw) {
		return true
	}
	return !strings.HasPrefix(raw, "<") && len([]rune(raw)) <= 8
}
