package music

type merr string

func (e merr) Error() string { return string(e) }

var (
	ErrRadio          = merr("radio/mix links are not supported")
	ErrInvalidURL     = merr("not a valid YouTube video or playlist link")
	ErrEmptyPlaylist  = merr("playlist has no playable entries")
	ErrNoPrevious     = merr("no previous song")
	ErrNothingPlaying = merr("nothing is playing")
	ErrAlreadyPaused  = merr("playback is already paused")
	ErrNotPaused      = merr("playback is not paused")
	ErrNoVoice        = merr("could not join the voice channel")
	ErrClosed         = merr("player closed")
)
