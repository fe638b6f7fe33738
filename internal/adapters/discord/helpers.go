package discord

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var reMention = regexp.MustCompile(`<@!?(\d+)>`)

// parseIDs acepta menciones o ids crudos; el resto se ignora.
func parseIDs(raw string) []string {
	ids := []string{}
	for _, tok := range strings.Fields(raw) {
		ms := reMention.FindAllStringSubmatch(tok, -1)
		if len(ms) > 0 {
			for _, m := range ms {
				ids = append(ids, m[1])
			}
			continue
		}
		allDigits := true
		for _, r := range tok {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			ids = append(ids, tok)
		}
	}
	return ids
}

func findOpt(ic *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name {
			return o
		}
		// subcommand
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			for _, so := range o.Options {
				if so.Name == name {
					return so
				}
			}
		}
	}
	return nil
}

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o := findOpt(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return strings.TrimSpace(o.StringValue()), true
}

// optUser devuelve sólo el id; no hace falta pedir el usuario.
func optUser(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o := findOpt(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionUser {
		return "", false
	}
	return o.Value.(string), true
}

func optChannel(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o := findOpt(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionChannel {
		return "", false
	}
	return o.Value.(string), true
}

func optRole(ic *discordgo.InteractionCreate, name string) (string, bool) {
	o := findOpt(ic, name)
	if o == nil || o.Type != discordgo.ApplicationCommandOptionRole {
		return "", false
	}
	return o.Value.(string), true
}

// idPtr: opción presente = patch, ausente = nil.
func idPtr(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return &v
}

// leaderOr devuelve la opción de usuario o el invocador.
func leaderOr(ic *discordgo.InteractionCreate, name string) string {
	if id, ok := optUser(ic, name); ok && id != "" {
		return id
	}
	return ic.Member.User.ID
}
