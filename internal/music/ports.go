package music

import "context"

// Track es una referencia en cola. Title se completa al extraer.
type Track struct {
	URL   string
	Title string
}

func (t Track) Label() string {
	if t.Title != "" {
		return t.Title
	}
	return t.URL
}

// Stream es lo que devuelve el extractor para reproducir.
type Stream struct {
	URL   string
	Title string
}

// Resolver expande playlists en URLs de videos.
type Resolver interface {
	Expand(ctx context.Context, playlistURL string) ([]string, error)
}

type Extractor interface {
	Extract(ctx context.Context, ref string) (Stream, error)
}

type Connector interface {
	Join(ctx context.Context, guildID string) (Voice, error)
}

type Voice interface {
	Play(ctx context.Context, streamURL string) (Playback, error)
	Disconnect() error
}

// Playback es un stream en curso. Done entrega nil al terminar normal.
type Playback interface {
	Done() <-chan error
	Pause()
	Resume()
	Stop()
}

type Announcer interface {
	Announce(guildID, text string)
}
