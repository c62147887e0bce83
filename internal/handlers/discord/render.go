package discord

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KirkDiggler/sessionscribe/internal/models"
)

// formatSessionReport renders the /stats report for a member's latest
// session. channelNames maps channel IDs to display names; channels missing
// from the map render as their raw ID.
func formatSessionReport(mention string, session *models.Session, channelNames map[string]string) string {
	left := "still here"
	if session.LeaveTime != nil {
		left = session.LeaveTime.Format(time.RFC3339)
	}

	lines := []string{
		fmt.Sprintf("**Session for %s:**", mention),
		fmt.Sprintf("• Joined: `%s`", session.JoinTime.Format(time.RFC3339)),
		fmt.Sprintf("• Left:   `%s`", left),
		"",
		"**Message counts:**",
	}

	if len(session.ChannelCounts) == 0 {
		lines = append(lines, "• No messages recorded.")
		return strings.Join(lines, "\n")
	}

	// Iterate channel IDs, not display names: guilds allow duplicate channel
	// names, so each ID keeps its own line
	channelIDs := make([]string, 0, len(session.ChannelCounts))
	for channelID := range session.ChannelCounts {
		channelIDs = append(channelIDs, channelID)
	}
	sort.Strings(channelIDs)

	for _, channelID := range channelIDs {
		name, ok := channelNames[channelID]
		if !ok {
			name = channelID
		}
		lines = append(lines, fmt.Sprintf("• %s: %d", name, session.ChannelCounts[channelID]))
	}

	return strings.Join(lines, "\n")
}

// formatActiveList renders the /active report from resolved member mentions
func formatActiveList(mentions []string) string {
	return "**Active sessions:** " + strings.Join(mentions, ", ")
}
