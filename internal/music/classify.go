package music

import (
	"regexp"
	"strings"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindVideo
	KindPlaylist
	KindRadio
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindPlaylist:
		return "playlist"
	case KindRadio:
		return "radio"
	default:
		return "invalid"
	}
}

var (
	reRadio    = regexp.MustCompile(`^https?://(www\.)?youtube\.com/.*[?&]list=(RD|RDEM)[^&]+`)
	rePlaylist = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?youtube\.com/playlist\?list=[\w-]+`)
	reVideo    = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/watch\?v=|youtu\.be/)[\w-]+`)
)

// Classify decide qué hacer con un link. Los mixes (list=RD...) se revisan
// primero porque también matchean como video.
func Classify(raw string) Kind {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return KindInvalid
	case reRadio.MatchString(u):
		return KindRadio
	case rePlaylist.MatchString(u):
		return KindPlaylist
	case reVideo.MatchString(u):
		return KindVideo
	}
	return KindInvalid
}
