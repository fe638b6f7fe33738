package music

import (
	"context"
	"sort"
	"sync"
)

// Manager crea un Player por guild bajo demanda.
type Manager struct {
	mu      sync.Mutex
	deps    Deps
	players map[string]*Player
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, players: make(map[string]*Player)}
}

func (m *Manager) Get(guildID string) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[guildID]
	if !ok {
		p = NewPlayer(guildID, m.deps)
		m.players[guildID] = p
	}
	return p
}

func (m *Manager) Lookup(guildID string) (*Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[guildID]
	return p, ok
}

// Snapshots junta el estado de todos los players, ordenado por guild.
func (m *Manager) Snapshots(ctx context.Context) []State {
	m.mu.Lock()
	ps := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		ps = append(ps, p)
	}
	m.mu.Unlock()

	out := make([]State, 0, len(ps))
	for _, p := range ps {
		st, err := p.Snapshot(ctx)
		if err != nil {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out
}

func (m *Manager) Close() {
	m.mu.Lock()
	ps := m.players
	m.players = make(map[string]*Player)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range ps {
		wg.Add(1)
		go func(p *Player) {
			defer wg.Done()
			p.Close()
		}(p)
	}
	wg.Wait()
}
