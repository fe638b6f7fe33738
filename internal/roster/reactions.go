package roster

import "time"

// ReactionAdded aplica una reacción cruda sobre el mensaje de estado.
func (s *Store) ReactionAdded(guildID, messageID, userID, emoji string, at time.Time) (Outcome, Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, rec, ok := s.byMessageLocked(guildID, messageID)
	if !ok || !accepts(rec, emoji) {
		return OutcomeIgnored, Record{}
	}
	if rec.Locked || rec.Resetting || userID == rec.LeaderID {
		return OutcomeIgnored, rec.clone()
	}

	rec.ReactionCount++
	if rec.HasMember(userID) {
		rec.ReactionCount--
		return OutcomeDuplicate, rec.clone()
	}

	// un join rechazado no entra al tracker
	if rec.Headcount() >= rec.MaxMembers {
		return OutcomeFull, rec.clone()
	}
	g.track(rec.LeaderID, userID, at)
	rec.Members = append(rec.Members, userID)
	if rec.Headcount() >= rec.MaxMembers {
		rec.Locked = true
		return OutcomeJoinedAndLocked, rec.clone()
	}
	return OutcomeJoined, rec.clone()
}

// ReactionRemoved: un miembro que quita la reacción sale del roster; el
// tracker se conserva para un unlock posterior.
func (s *Store) ReactionRemoved(guildID, messageID, userID, emoji string) (Outcome, Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, rec, ok := s.byMessageLocked(guildID, messageID)
	if !ok || !accepts(rec, emoji) {
		return OutcomeIgnored, Record{}
	}
	if rec.Locked || rec.Resetting || userID == rec.LeaderID {
		return OutcomeIgnored, rec.clone()
	}

	if rec.ReactionCount > 0 {
		rec.ReactionCount--
	}
	if rec.HasMember(userID) {
		rec.Members = without(rec.Members, userID)
		return OutcomeLeft, rec.clone()
	}
	if g.untrack(rec.LeaderID, userID) {
		return OutcomeUntracked, rec.clone()
	}
	return OutcomeIgnored, rec.clone()
}

func (s *Store) byMessageLocked(guildID, messageID string) (*guildRosters, *Record, bool) {
	g := s.guild(guildID)
	leader, ok := g.byMsg[messageID]
	if !ok {
		return g, nil, false
	}
	rec, ok := g.records[leader]
	return g, rec, ok
}

// sólo los equipos con emoji se manejan por reacciones
func accepts(rec *Record, emoji string) bool {
	return rec.Emoji != "" && SameEmoji(rec.Emoji, emoji)
}

func (g *guildRosters) track(leader, userID string, at time.Time) {
	for _, e := range g.tracker[leader] {
		if e.UserID == userID {
			return
		}
	}
	g.tracker[leader] = append(g.tracker[leader], Reaction{UserID: userID, At: at})
}

func (g *guildRosters) untrack(leader, userID string) bool {
	entries := g.tracker[leader]
	for i, e := range entries {
		if e.UserID == userID {
			g.tracker[leader] = append(entries[:i], entries[i+1:]...)
			return true
		}
	}
	return false
}
