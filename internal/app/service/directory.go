package service

import (
	"context"
	"sync"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

// Directory es el lookup en memoria de settings por guild. Se carga una vez al
// arrancar y se actualiza cuando cambian por comando.
type Directory struct {
	mu     sync.RWMutex
	guilds map[string]domain.GuildSettings
}

func NewDirectory() *Directory {
	return &Directory{guilds: make(map[string]domain.GuildSettings)}
}

func (d *Directory) LoadAll(ctx context.Context, store GuildStore) (int, error) {
	all, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.guilds = make(map[string]domain.GuildSettings, len(all))
	for _, g := range all {
		d.guilds[g.GuildID] = g
	}
	return len(all), nil
}

func (d *Directory) Get(guildID string) (domain.GuildSettings, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.guilds[guildID]
	return g, ok
}

func (d *Directory) Put(g domain.GuildSettings) {
	d.mu.Lock()
	d.guilds[g.GuildID] = g
	d.mu.Unlock()
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.guilds)
}
