// Package cli arma los comandos de botctl sobre un Backend inyectable.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

// GuildStore lo implementa storage.GuildRepo.
type GuildStore interface {
	Get(ctx context.Context, guildID string) (domain.GuildSettings, error)
	List(ctx context.Context) ([]domain.GuildSettings, error)
	Upsert(ctx context.Context, g domain.GuildSettings) error
}

type Migrator interface {
	Up() error
	Down() error
	Status(w io.Writer) error
}

// Backend es lo que necesita cada comando; Close libera la conexión.
type Backend struct {
	Guilds     GuildStore
	Migrations Migrator
	Close      func() error
}

// Opener abre el Backend recién cuando un comando lo usa.
type Opener func(ctx context.Context) (*Backend, error)

func withBackend(ctx context.Context, open Opener, fn func(b *Backend) error) error {
	b, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	if b.Close != nil {
		defer b.Close()
	}
	return fn(b)
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	keyColor  = color.New(color.FgCyan)
)

func ok(w io.Writer, format string, a ...any) {
	okColor.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", a...)
}

func warn(w io.Writer, format string, a ...any) {
	warnColor.Fprint(w, "! ")
	fmt.Fprintf(w, format+"\n", a...)
}
