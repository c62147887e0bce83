package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/KirkDiggler/sessionscribe/internal/services/tracker"
	"github.com/bwmarrin/discordgo"
)

// ActiveCommand handles the /active command
type ActiveCommand struct {
	BaseCommand
	tracker tracker.Service
}

// NewActiveCommand creates a new active command handler
func NewActiveCommand(trackerService tracker.Service) *ActiveCommand {
	return &ActiveCommand{
		BaseCommand: BaseCommand{
			Name:        "active",
			Description: "List all members currently in an open session",
			Permissions: &manageGuildPermission,
		},
		tracker: trackerService,
	}
}

// Handle processes a Discord interaction for the active command
func (c *ActiveCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	if data.Name != c.Name {
		return nil
	}

	// DM invocations carry no member or guild; registration disallows them,
	// but a stray one must not reach the tracker
	if i.Member == nil || i.GuildID == "" {
		return nil
	}

	out, err := c.tracker.ListActiveSessions(context.Background(), &tracker.ListActiveSessionsInput{
		GuildID: i.GuildID,
	})
	if err != nil {
		log.Printf("Error listing active sessions for guild %s: %v", i.GuildID, err)
		return RespondWithEphemeralMessage(s, i, "Failed to list active sessions.")
	}

	if len(out.UserIDs) == 0 {
		return RespondWithMessage(s, i, "No active sessions right now.")
	}

	// Mention members that still resolve, fall back to the raw ID otherwise
	mentions := make([]string, 0, len(out.UserIDs))
	for _, userID := range out.UserIDs {
		member, err := s.State.Member(i.GuildID, userID)
		if err != nil || member.User == nil {
			mentions = append(mentions, fmt.Sprintf("`%s`", userID))
			continue
		}
		mentions = append(mentions, member.User.Mention())
	}

	return RespondWithMessage(s, i, formatActiveList(mentions))
}
