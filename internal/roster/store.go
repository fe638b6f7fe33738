package roster

import (
	"sort"
	"sync"
	"time"
)

const (
	DefaultMaxPerGuild = 4
	DefaultMaxMembers  = 8
)

type guildRosters struct {
	records map[string]*Record     // leader -> record
	byMsg   map[string]string      // message id -> leader
	tracker map[string][]Reaction // leader -> orden de reacciones
}

// Store guarda todos los rosters en memoria. Cada método es atómico y
// devuelve copias; el I/O contra Discord lo hace quien llama.
type Store struct {
	mu          sync.Mutex
	guilds      map[string]*guildRosters
	maxPerGuild int
	now         func() time.Time
}

func NewStore(maxPerGuild int) *Store {
	if maxPerGuild <= 0 {
		maxPerGuild = DefaultMaxPerGuild
	}
	return &Store{
		guilds:      make(map[string]*guildRosters),
		maxPerGuild: maxPerGuild,
		now:         time.Now,
	}
}

func (s *Store) guild(guildID string) *guildRosters {
	g, ok := s.guilds[guildID]
	if !ok {
		g = &guildRosters{
			records: make(map[string]*Record),
			byMsg:   make(map[string]string),
			tracker: make(map[string][]Reaction),
		}
		s.guilds[guildID] = g
	}
	return g
}

func (s *Store) lookup(guildID, leader string) (*guildRosters, *Record, error) {
	g := s.guild(guildID)
	rec, ok := g.records[leader]
	if !ok {
		return g, nil, ErrNoRecord
	}
	return g, rec, nil
}

// Create registra un roster nuevo. Los miembros se deduplican y el líder se descarta.
func (s *Store) Create(guildID string, sp Spec) (Record, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(guildID)
	if _, ok := g.records[sp.LeaderID]; ok {
		return Record{}, nil, ErrExists
	}
	if len(g.records) >= s.maxPerGuild {
		return Record{}, nil, ErrGuildFull
	}
	if sp.MaxMembers <= 0 {
		sp.MaxMembers = DefaultMaxMembers
	}
	if sp.Kind == "" {
		sp.Kind = KindTeam
	}

	rec := &Record{
		GuildID:    guildID,
		LeaderID:   sp.LeaderID,
		Kind:       sp.Kind,
		ChannelID:  sp.ChannelID,
		Emoji:      sp.Emoji,
		MaxMembers: sp.MaxMembers,
		Members:    []string{},
		CreatedAt:  s.now(),
	}
	if sp.Emoji != "" {
		// la reacción del propio bot
		rec.ReactionCount = 1
	}

	var skipped []string
	for _, m := range Dedupe(sp.Members) {
		if m == sp.LeaderID || rec.Headcount() >= rec.MaxMembers {
			skipped = append(skipped, m)
			continue
		}
		rec.Members = append(rec.Members, m)
	}
	// los miembros por comando entran al tracker para sobrevivir un unlock
	delete(g.tracker, sp.LeaderID)
	for _, m := range rec.Members {
		g.track(sp.LeaderID, m, rec.CreatedAt)
	}
	g.records[sp.LeaderID] = rec
	return rec.clone(), skipped, nil
}

// SetMessage asocia el mensaje de estado publicado al roster.
func (s *Store) SetMessage(guildID, leader, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, rec, err := s.lookup(guildID, leader)
	if err != nil {
		return err
	}
	if rec.MessageID != "" {
		delete(g.byMsg, rec.MessageID)
	}
	rec.MessageID = messageID
	if messageID != "" {
		g.byMsg[messageID] = leader
	}
	return nil
}

func (s *Store) Get(guildID, leader string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec, err := s.lookup(guildID, leader)
	if err != nil {
		return Record{}, err
	}
	return rec.clone(), nil
}

// ByMessage busca el roster dueño de un mensaje de estado.
func (s *Store) ByMessage(guildID, messageID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(guildID)
	leader, ok := g.byMsg[messageID]
	if !ok {
		return Record{}, false
	}
	return g.records[leader].clone(), true
}

// List devuelve los rosters del guild ordenados por creación.
func (s *Store) List(guildID string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(guildID)
	out := make([]Record, 0, len(g.records))
	for _, r := range g.records {
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Count devuelve el total de rosters vivos y la cantidad de guilds con alguno.
func (s *Store) Count() (rosters, guilds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.guilds {
		if len(g.records) > 0 {
			guilds++
			rosters += len(g.records)
		}
	}
	return rosters, guilds
}

func mutable(rec *Record) error {
	switch {
	case rec.Resetting:
		return ErrResetting
	case rec.Locked:
		return ErrLocked
	}
	return nil
}

// AddMembers agrega en orden; duplicados, el líder y lo que no entra van a skipped.
func (s *Store) AddMembers(guildID, leader string, members []string) (added, skipped []string, _ Record, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, rec, err := s.lookup(guildID, leader)
	if err != nil {
		return nil, nil, Record{}, err
	}
	if err := mutable(rec); err != nil {
		return nil, nil, rec.clone(), err
	}
	now := s.now()
	for _, m := range Dedupe(members) {
		if m == leader || rec.HasMember(m) || rec.Headcount() >= rec.MaxMembers {
			skipped = append(skipped, m)
			continue
		}
		rec.Members = append(rec.Members, m)
		g.track(leader, m, now)
		added = append(added, m)
	}
	return added, skipped, rec.clone(), nil
}

// RemoveMembers quita los que estén; los ausentes se reportan en missing.
// A diferencia de una reacción quitada, también los saca del tracker.
func (s *Store) RemoveMembers(guildID, leader string, members []string) (removed, missing []string, _ Record, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, rec, err := s.lookup(guildID, leader)
	if err != nil {
		return nil, nil, Record{}, err
	}
	if err := mutable(rec); err != nil {
		return nil, nil, rec.clone(), err
	}
	for _, m := range Dedupe(members) {
		if !rec.HasMember(m) {
			missing = append(missing, m)
			continue
		}
		rec.Members = without(rec.Members, m)
		g.untrack(leader, m)
		removed = append(removed, m)
	}
	return removed, missing, rec.clone(), nil
}

// SplitResult resume un Split.
type SplitResult struct {
	From    Record
	To      Record
	Moved   []string
	Added   []string
	Skipped []string

	// estado previo de From, para UndoSplit
	before  []string
	tracked []Reaction
}

// Split mueve miembros del roster de current a uno nuevo de newLeader. Los que
// no estaban en current entran directo al nuevo.
func (s *Store) Split(guildID, current, newLeader string, members []string) (SplitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newLeader == current {
		return SplitResult{}, ErrLeaderMember
	}
	g, from, err := s.lookup(guildID, current)
	if err != nil {
		return SplitResult{}, err
	}
	if _, ok := g.records[newLeader]; ok {
		return SplitResult{}, ErrExists
	}
	if err := mutable(from); err != nil {
		return SplitResult{}, err
	}
	if len(g.records) >= s.maxPerGuild {
		return SplitResult{}, ErrGuildFull
	}

	to := &Record{
		GuildID:    guildID,
		LeaderID:   newLeader,
		Kind:       from.Kind,
		ChannelID:  from.ChannelID,
		MaxMembers: from.MaxMembers,
		Members:    []string{},
		CreatedAt:  s.now(),
	}
	res := SplitResult{
		before:  append([]string(nil), from.Members...),
		tracked: append([]Reaction(nil), g.tracker[current]...),
	}
	// el nuevo líder deja de ser miembro del roster original
	from.Members = without(from.Members, newLeader)
	g.untrack(current, newLeader)

	delete(g.tracker, newLeader)
	for _, m := range Dedupe(members) {
		if m == newLeader || m == current || to.Headcount() >= to.MaxMembers {
			res.Skipped = append(res.Skipped, m)
			continue
		}
		if from.HasMember(m) {
			from.Members = without(from.Members, m)
			g.untrack(current, m)
			res.Moved = append(res.Moved, m)
		} else {
			res.Added = append(res.Added, m)
		}
		to.Members = append(to.Members, m)
		g.track(newLeader, m, to.CreatedAt)
	}
	g.records[newLeader] = to
	res.From = from.clone()
	res.To = to.clone()
	return res, nil
}

// UndoSplit borra el roster nuevo y devuelve al original los miembros y el
// tracker que tenía antes del Split. El mensaje de estado del original no se toca.
func (s *Store) UndoSplit(guildID string, res SplitResult) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.guild(guildID)
	if to, ok := g.records[res.To.LeaderID]; ok && to.CreatedAt.Equal(res.To.CreatedAt) {
		g.drop(res.To.LeaderID)
	}
	from, ok := g.records[res.From.LeaderID]
	if !ok {
		return Record{}, ErrNoRecord
	}
	from.Members = append([]string{}, res.before...)
	g.tracker[from.LeaderID] = append([]Reaction(nil), res.tracked...)
	return from.clone(), nil
}

// Close exige que el roster esté bloqueado.
func (s *Store) Close(guildID, leader string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, rec, err := s.lookup(guildID, leader)
	if err != nil {
		return Record{}, err
	}
	if !rec.Locked {
		return rec.clone(), ErrNotLocked
	}
	g.drop(leader)
	return rec.clone(), nil
}

// ForceClose borra sin condiciones. ok=false si no había nada.
func (s *Store) ForceClose(guildID, leader string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, rec, err := s.lookup(guildID, leader)
	if err != nil {
		delete(g.tracker, leader)
		return Record{}, false
	}
	g.drop(leader)
	return rec.clone(), true
}

func (g *guildRosters) drop(leader string) {
	if rec, ok := g.records[leader]; ok && rec.MessageID != "" {
		delete(g.byMsg, rec.MessageID)
	}
	delete(g.records, leader)
	delete(g.tracker, leader)
}

func (s *Store) Lock(guildID, leader string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec, err := s.lookup(guildID, leader)
	if err != nil {
		return Record{}, err
	}
	if rec.Locked {
		return rec.clone(), ErrAlreadyLocked
	}
	rec.Locked = true
	return rec.clone(), nil
}

// BeginUnlock marca resetting; a partir de acá las reacciones se ignoran
// hasta CompleteUnlock.
func (s *Store) BeginUnlock(guildID, leader string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec, err := s.lookup(guildID, leader)
	if err != nil {
		return Record{}, err
	}
	if rec.Resetting {
		return rec.clone(), ErrResetting
	}
	if !rec.Locked {
		return rec.clone(), ErrNotLocked
	}
	rec.Resetting = true
	return rec.clone(), nil
}

// CompleteUnlock reconstruye Members reproduciendo el tracker por timestamp,
// hasta MaxMembers entradas. Queda bloqueado si el headcount (líder incluido)
// llega a MaxMembers, la misma regla que cierra un join.
func (s *Store) CompleteUnlock(guildID, leader string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, rec, err := s.lookup(guildID, leader)
	if err != nil {
		return Record{}, err
	}
	if !rec.Resetting {
		return rec.clone(), ErrNotLocked
	}

	order := append([]Reaction(nil), g.tracker[leader]...)
	sort.SliceStable(order, func(i, j int) bool { return order[i].At.Before(order[j].At) })

	members := make([]string, 0, rec.MaxMembers)
	for _, e := range order {
		if len(members) >= rec.MaxMembers {
			break
		}
		if e.UserID == leader || contains(members, e.UserID) {
			continue
		}
		members = append(members, e.UserID)
	}
	rec.Members = members
	rec.Resetting = false
	rec.Locked = rec.Headcount() >= rec.MaxMembers
	return rec.clone(), nil
}

// Tracker devuelve una copia del orden de reacciones del líder.
func (s *Store) Tracker(guildID, leader string) []Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reaction(nil), s.guild(guildID).tracker[leader]...)
}
