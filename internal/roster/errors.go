package roster

// rerr es comparable, así errors.Is funciona con las constantes.
type rerr string

func (e rerr) Error() string { return string(e) }

var (
	ErrExists        = rerr("leader already owns a roster")
	ErrNoRecord      = rerr("no roster for that leader")
	ErrGuildFull     = rerr("too many rosters in this server")
	ErrNotLocked     = rerr("roster is not locked")
	ErrAlreadyLocked = rerr("roster is already locked")
	ErrLocked        = rerr("roster is locked")
	ErrResetting     = rerr("roster is resetting")
	ErrFull          = rerr("roster is full")
	ErrLeaderMember  = rerr("the leader cannot be a member")
)
