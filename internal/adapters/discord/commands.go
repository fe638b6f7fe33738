package discord

import "github.com/bwmarrin/discordgo"

func userOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionUser, Name: name, Description: desc, Required: required}
}

func strOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: name, Description: desc, Required: required}
}

func roleOpt(name, desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionRole, Name: name, Description: desc}
}

func chanOpt(name, desc string, required bool, types ...discordgo.ChannelType) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         name,
		Description:  desc,
		Required:     required,
		ChannelTypes: types,
	}
}

var membersOpt = strOpt("members", "Mentions or ids separated by spaces", false)

var Commands = []*discordgo.ApplicationCommand{
	// misc
	{Name: "ping", Description: "Check the bot's current latency."},
	{Name: "help", Description: "Lists all available commands."},

	// settings
	{Name: "settings", Description: "Show this server's bot settings."},
	{
		Name:        "setup_roles",
		Description: "Set the server roles the bot uses (owner only).",
		Options: []*discordgo.ApplicationCommandOption{
			roleOpt("keeper", "Owners / main staff"),
			roleOpt("guardian", "Moderators"),
			roleOpt("oracle", "Tech support"),
			roleOpt("luminary", "Event organisers"),
			roleOpt("assistant", "Assistant bots"),
		},
	},
	{
		Name:        "setup_channels",
		Description: "Set the channels and categories the bot uses (owner only).",
		Options: []*discordgo.ApplicationCommandOption{
			chanOpt("support_category", "Category for tickets", false, discordgo.ChannelTypeGuildCategory),
			chanOpt("general_category", "General category", false, discordgo.ChannelTypeGuildCategory),
			chanOpt("music_voice", "Voice channel for music", false, discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice),
			chanOpt("bot_channel", "Bot commands channel", false, discordgo.ChannelTypeGuildText),
			chanOpt("music_channel", "Channel for music announcements", false, discordgo.ChannelTypeGuildText),
			chanOpt("ticket_channel", "Channel with the ticket menu", false, discordgo.ChannelTypeGuildText),
			chanOpt("ticket_log_channel", "Channel for ticket transcripts", false, discordgo.ChannelTypeGuildText),
		},
	},
	{
		Name:        "setup_bypass",
		Description: "Users that may guide runs without a role (owner only).",
		Options:     []*discordgo.ApplicationCommandOption{strOpt("users", "Mentions or ids; empty clears the list", false)},
	},

	// teams
	{
		Name:        "createteam",
		Description: "Create a team with a leader and an emoji.",
		Options: []*discordgo.ApplicationCommandOption{
			userOpt("member", "Team leader", true),
			strOpt("emoji", "Emoji members react with", true),
			membersOpt,
		},
	},
	{Name: "closeteam", Description: "Close the given leader's team.", Options: []*discordgo.ApplicationCommandOption{userOpt("member", "Team leader", true)}},
	{Name: "lockteam", Description: "Lock the given leader's team.", Options: []*discordgo.ApplicationCommandOption{userOpt("member", "Team leader", true)}},
	{Name: "unlockteam", Description: "Unlock a given leader's team.", Options: []*discordgo.ApplicationCommandOption{userOpt("member", "Team leader", true)}},
	{Name: "teams", Description: "List the open teams and runs."},
	{Name: "forceclose", Description: "Drop a stuck team or run without touching its message.", Options: []*discordgo.ApplicationCommandOption{userOpt("member", "Leader or guide", true)}},

	// runs
	{
		Name:        "createrun",
		Description: "Create a run with a guide and runners.",
		Options:     []*discordgo.ApplicationCommandOption{userOpt("guide", "Run guide (defaults to you)", false), membersOpt},
	},
	{
		Name:        "addrunners",
		Description: "Add runners to a run.",
		Options:     []*discordgo.ApplicationCommandOption{strOpt("members", "Mentions or ids separated by spaces", true), userOpt("guide", "Run guide (defaults to you)", false)},
	},
	{
		Name:        "removerunners",
		Description: "Remove runners from a run.",
		Options:     []*discordgo.ApplicationCommandOption{strOpt("members", "Mentions or ids separated by spaces", true), userOpt("guide", "Run guide (defaults to you)", false)},
	},
	{
		Name:        "splitrun",
		Description: "Move runners into a new run with another guide.",
		Options: []*discordgo.ApplicationCommandOption{
			userOpt("new_guide", "Guide of the new run", true),
			membersOpt,
			userOpt("current_guide", "Guide of the current run (defaults to you)", false),
		},
	},
	{Name: "lockrun", Description: "Lock a run.", Options: []*discordgo.ApplicationCommandOption{userOpt("guide", "Run guide (defaults to you)", false)}},
	{Name: "unlockrun", Description: "Unlock a run.", Options: []*discordgo.ApplicationCommandOption{userOpt("guide", "Run guide (defaults to you)", false)}},
	{Name: "closerun", Description: "Close a locked run.", Options: []*discordgo.ApplicationCommandOption{userOpt("guide", "Run guide (defaults to you)", false)}},

	// rule gates
	{
		Name:        "createrulegate",
		Description: "Members must accept the rules before they can write in a channel.",
		Options:     []*discordgo.ApplicationCommandOption{chanOpt("channel", "Channel to gate", true, discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews)},
	},
	{
		Name:        "removerulegate",
		Description: "Remove the rules gate from a channel.",
		Options:     []*discordgo.ApplicationCommandOption{chanOpt("channel", "Gated channel", true, discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews)},
	},

	// tickets
	{Name: "ticket_menu", Description: "Post the create-ticket menu in this channel."},
	{Name: "force_close_ticket", Description: "Close this ticket now and send the transcript to the log channel."},

	// music
	{Name: "play", Description: "Play a YouTube song or playlist right now.", Options: []*discordgo.ApplicationCommandOption{strOpt("url", "YouTube URL", true)}},
	{Name: "queue", Description: "Queue a YouTube song or playlist.", Options: []*discordgo.ApplicationCommandOption{strOpt("url", "YouTube URL", true)}},
	{Name: "queue_list", Description: "Show the current song and what's next."},
	{Name: "skip", Description: "Skip the current song."},
	{Name: "back", Description: "Go back to the previous song."},
	{Name: "pause", Description: "Pause the current song."},
	{Name: "resume", Description: "Resume the paused song."},
	{Name: "clear_queue", Description: "Clear the queue."},
	{Name: "stop", Description: "Stop playing and leave the voice channel."},
	{Name: "music_panel", Description: "Post the music control panel in this channel."},
}
