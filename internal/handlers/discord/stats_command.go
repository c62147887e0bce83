package discord

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/KirkDiggler/sessionscribe/internal/services/tracker"
	"github.com/bwmarrin/discordgo"
)

// manageGuildPermission gates the moderator commands on Manage Server
var manageGuildPermission = int64(discordgo.PermissionManageServer)

// StatsCommand handles the /stats command
type StatsCommand struct {
	BaseCommand
	tracker tracker.Service
}

// NewStatsCommand creates a new stats command handler
func NewStatsCommand(trackerService tracker.Service) *StatsCommand {
	return &StatsCommand{
		BaseCommand: BaseCommand{
			Name:        "stats",
			Description: "Show the last session stats for a member",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member to report on (defaults to you)",
					Required:    false,
				},
			},
			Permissions: &manageGuildPermission,
		},
		tracker: trackerService,
	}
}

// Handle processes a Discord interaction for the stats command
func (c *StatsCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	if data.Name != c.Name {
		return nil
	}

	// DM invocations carry no member; registration disallows them, but a
	// stray one must not crash the handler
	if i.Member == nil || i.Member.User == nil {
		return nil
	}

	// Default to the invoking member when no user option is given
	target := i.Member.User
	if len(data.Options) > 0 {
		if user := data.Options[0].UserValue(s); user != nil {
			target = user
		}
	}

	out, err := c.tracker.GetLatestSession(context.Background(), &tracker.GetLatestSessionInput{
		GuildID: i.GuildID,
		UserID:  target.ID,
	})
	if err != nil {
		if errors.Is(err, tracker.ErrSessionNotFound) {
			return RespondWithMessage(s, i, fmt.Sprintf("No sessions found for %s.", target.Mention()))
		}
		log.Printf("Error getting latest session for user %s: %v", target.ID, err)
		return RespondWithEphemeralMessage(s, i, "Failed to look up session stats.")
	}

	// Resolve channel names where the channel still exists; counts for
	// deleted channels render as the raw ID
	channelNames := make(map[string]string, len(out.Session.ChannelCounts))
	for channelID := range out.Session.ChannelCounts {
		if channel, err := s.State.Channel(channelID); err == nil {
			channelNames[channelID] = "#" + channel.Name
		}
	}

	return RespondWithMessage(s, i, formatSessionReport(target.Mention(), out.Session, channelNames))
}
