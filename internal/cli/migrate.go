package cli

import (
	"github.com/spf13/cobra"
)

// MigrateCmd returns the migrate command
func MigrateCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect the database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				if err := b.Migrations.Up(); err != nil {
					return err
				}
				ok(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				if err := b.Migrations.Down(); err != nil {
					return err
				}
				warn(cmd.OutOrStdout(), "last migration rolled back")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of each migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				return b.Migrations.Status(cmd.OutOrStdout())
			})
		},
	})
	return cmd
}
