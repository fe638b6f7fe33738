package roster

import "time"

type Kind string

const (
	KindTeam Kind = "team"
	KindRun  Kind = "run"
)

// Record es un equipo o run vivo, keyed por (guild, leader).
type Record struct {
	GuildID    string
	LeaderID   string
	Kind       Kind
	ChannelID  string
	MessageID  string
	Emoji      string
	Members    []string
	MaxMembers int
	Locked     bool
	Resetting  bool
	// ReactionCount no decide nada; sólo se lleva la cuenta de reacciones vistas.
	ReactionCount int
	CreatedAt     time.Time
}

// Headcount cuenta al líder.
func (r Record) Headcount() int { return 1 + len(r.Members) }

func (r Record) HasMember(id string) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}

func (r Record) clone() Record {
	r.Members = append([]string(nil), r.Members...)
	return r
}

// Reaction es una entrada del tracker de orden de reacciones.
type Reaction struct {
	UserID string
	At     time.Time
}

// Spec describe un roster nuevo.
type Spec struct {
	Kind       Kind
	LeaderID   string
	Members    []string
	ChannelID  string
	Emoji      string
	MaxMembers int
}

// Outcome de procesar una reacción cruda.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeDuplicate
	OutcomeJoined
	OutcomeJoinedAndLocked
	OutcomeFull
	OutcomeLeft
	OutcomeUntracked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeJoined:
		return "joined"
	case OutcomeJoinedAndLocked:
		return "joined_locked"
	case OutcomeFull:
		return "full"
	case OutcomeLeft:
		return "left"
	case OutcomeUntracked:
		return "untracked"
	default:
		return "ignored"
	}
}

// Rerender indica si el mensaje de estado tiene que reconstruirse.
func (o Outcome) Rerender() bool {
	return o == OutcomeJoined || o == OutcomeJoinedAndLocked || o == OutcomeLeft
}
