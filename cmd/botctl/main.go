package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jose-valero/dreamy-assistant-bot/internal/cli"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/config"
	"github.com/jose-valero/dreamy-assistant-bot/internal/infra/storage"
)

// migrator ata las funciones de goose del paquete storage a una conexión.
type migrator struct{ db *sql.DB }

func (m migrator) Up() error                { return storage.Migrate(m.db) }
func (m migrator) Down() error              { return storage.MigrateDown(m.db) }
func (m migrator) Status(w io.Writer) error { return storage.MigrationStatus(m.db, w) }

func open(ctx context.Context) (*cli.Backend, error) {
	cfg := config.LoadDB()
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &cli.Backend{
		Guilds:     storage.NewGuildRepo(db),
		Migrations: migrator{db: db},
		Close:      db.Close,
	}, nil
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "botctl",
		Short:        "Operator tools for the dreamy assistant bot",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(cli.MigrateCmd(open))
	rootCmd.AddCommand(cli.GuildCmd(open))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
