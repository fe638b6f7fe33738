package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jose-valero/dreamy-assistant-bot/internal/domain"
)

// GuildFile es el formato de import/export.
type GuildFile struct {
	Guilds []domain.GuildSettings `yaml:"guilds"`
}

// GuildCmd returns the guild command
func GuildCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guild",
		Short: "Inspect and edit per-server settings",
	}
	cmd.AddCommand(guildListCmd(open), guildShowCmd(open), guildImportCmd(open), guildExportCmd(open))
	return cmd
}

func guildListCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				gs, err := b.Guilds.List(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(gs) == 0 {
					warn(w, "no servers configured")
					return nil
				}
				sort.Slice(gs, func(i, j int) bool { return gs[i].GuildID < gs[j].GuildID })
				for _, g := range gs {
					missing := missingRoles(g)
					if len(missing) == 0 {
						ok(w, "%s owner=%s", keyColor.Sprint(g.GuildID), g.OwnerID)
					} else {
						warn(w, "%s owner=%s missing roles: %v", keyColor.Sprint(g.GuildID), g.OwnerID, missing)
					}
				}
				return nil
			})
		},
	}
}

func guildShowCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <guild-id>",
		Short: "Show one server's settings as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				g, err := b.Guilds.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("guild %s: %w", args[0], err)
				}
				out, err := yaml.Marshal(g)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			})
		},
	}
}

func guildImportCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Upsert server settings from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := ParseGuildFile(raw)
			if err != nil {
				return err
			}
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				for _, g := range f.Guilds {
					if err := b.Guilds.Upsert(cmd.Context(), g); err != nil {
						return fmt.Errorf("guild %s: %w", g.GuildID, err)
					}
					ok(cmd.OutOrStdout(), "imported %s", keyColor.Sprint(g.GuildID))
				}
				return nil
			})
		},
	}
}

func guildExportCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "export [guild-id]",
		Short: "Print server settings as an importable YAML file (all when no id)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), open, func(b *Backend) error {
				var f GuildFile
				if len(args) == 1 {
					g, err := b.Guilds.Get(cmd.Context(), args[0])
					if err != nil {
						return fmt.Errorf("guild %s: %w", args[0], err)
					}
					f.Guilds = []domain.GuildSettings{g}
				} else {
					gs, err := b.Guilds.List(cmd.Context())
					if err != nil {
						return err
					}
					sort.Slice(gs, func(i, j int) bool { return gs[i].GuildID < gs[j].GuildID })
					f.Guilds = gs
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(f); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
}

// ParseGuildFile valida que cada entrada tenga guild_id y no se repita.
func ParseGuildFile(raw []byte) (GuildFile, error) {
	var f GuildFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return GuildFile{}, fmt.Errorf("parse yaml: %w", err)
	}
	if len(f.Guilds) == 0 {
		return GuildFile{}, errors.New("no guilds in file")
	}
	seen := make(map[string]bool, len(f.Guilds))
	for i, g := range f.Guilds {
		if g.GuildID == "" {
			return GuildFile{}, fmt.Errorf("entry %d: guild_id is required", i)
		}
		if seen[g.GuildID] {
			return GuildFile{}, fmt.Errorf("entry %d: duplicate guild_id %s", i, g.GuildID)
		}
		seen[g.GuildID] = true
	}
	return f, nil
}

func missingRoles(g domain.GuildSettings) []string {
	var out []string
	for _, r := range []struct{ name, id string }{
		{"keeper", g.KeeperRoleID},
		{"guardian", g.GuardianRoleID},
		{"oracle", g.OracleRoleID},
		{"luminary", g.LuminaryRoleID},
	} {
		if r.id == "" {
			out = append(out, r.name)
		}
	}
	return out
}
