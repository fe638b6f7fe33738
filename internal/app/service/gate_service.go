package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/dreamy-assistant-bot/internal/app/rolegate"
)

// Actor es quien invoca una acción privilegiada.
type Actor struct {
	GuildID string
	UserID  string
	Roles   []string
	IsOwner bool
}

const rolesCacheTTL = 30 * time.Second

type cachedRoles struct {
	ids map[string]struct{}
	at  time.Time
}

// GateService valida la config de roles y después aplica rolegate.
type GateService struct {
	dir   *Directory
	roles RoleLister
	log   *slog.Logger

	mu    sync.Mutex
	cache map[string]cachedRoles
	now   func() time.Time
}

func NewGateService(dir *Directory, roles RoleLister, log *slog.Logger) *GateService {
	return &GateService{
		dir:   dir,
		roles: roles,
		log:   log.With("component", "gate"),
		cache: make(map[string]cachedRoles),
		now:   time.Now,
	}
}

// Check devuelve nil si el actor puede; ErrRoleNotConfigured / ErrGuildNotConfigured
// si la config está rota (antes de mutar nada) o ErrDenied.
func (g *GateService) Check(ctx context.Context, a Actor, p rolegate.Policy) error {
	if a.IsOwner {
		return nil
	}
	if p == rolegate.Setup {
		return ErrDenied
	}
	gs, ok := g.dir.Get(a.GuildID)
	if !ok {
		g.log.Error("guild has no settings", "guild", a.GuildID, "policy", p.String())
		return ErrGuildNotConfigured
	}
	// bypass no depende de roles: vale aunque los roles no estén configurados
	bypass := gs.Bypass(p)
	if rolegate.Allowed(a.UserID, nil, nil, bypass) {
		return nil
	}
	allow := gs.AllowList(p)
	if err := g.validate(ctx, a.GuildID, allow); err != nil {
		g.log.Error("stale role configuration", "guild", a.GuildID, "policy", p.String(), "err", err)
		return err
	}
	if !rolegate.Allowed(a.UserID, a.Roles, allow, bypass) {
		return ErrDenied
	}
	return nil
}

func (g *GateService) validate(ctx context.Context, guildID string, allow []string) error {
	configured := 0
	for _, id := range allow {
		if id != "" {
			configured++
		}
	}
	if configured == 0 {
		return fmt.Errorf("%w: no roles set", ErrRoleNotConfigured)
	}
	have, err := g.guildRoles(ctx, guildID)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	for _, id := range allow {
		if id == "" {
			continue
		}
		if _, ok := have[id]; !ok {
			return fmt.Errorf("%w: %s", ErrRoleNotConfigured, id)
		}
	}
	return nil
}

func (g *GateService) guildRoles(ctx context.Context, guildID string) (map[string]struct{}, error) {
	g.mu.Lock()
	c, ok := g.cache[guildID]
	g.mu.Unlock()
	if ok && g.now().Sub(c.at) < rolesCacheTTL {
		return c.ids, nil
	}

	roles, err := g.roles.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		ids[r.ID] = struct{}{}
	}
	g.mu.Lock()
	g.cache[guildID] = cachedRoles{ids: ids, at: g.now()}
	g.mu.Unlock()
	return ids, nil
}

// Forget tira el cache de roles (p.ej. después de /setup_roles).
func (g *GateService) Forget(guildID string) {
	g.mu.Lock()
	delete(g.cache, guildID)
	g.mu.Unlock()
}
