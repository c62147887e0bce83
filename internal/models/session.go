package models

import (
	"time"
)

// Session represents one continuous interval a user is present in a guild,
// from join to leave
type Session struct {
	// ID is the unique identifier for this session
	ID string `json:"id"`

	// GuildID is the Discord server/guild this session belongs to
	GuildID string `json:"guild_id"`

	// UserID is the Discord user ID of the member
	UserID string `json:"user_id"`

	// JoinTime is when the member joined the guild
	JoinTime time.Time `json:"join_time"`

	// LeaveTime is when the member left the guild; nil while the session is open
	LeaveTime *time.Time `json:"leave_time"`

	// ChannelCounts maps channel IDs to the number of messages the member
	// sent there during the session; set once, when the session closes
	ChannelCounts map[string]int `json:"channel_counts"`
}

// IsOpen returns true if the session has no leave time recorded yet
func (s *Session) IsOpen() bool {
	return s.LeaveTime == nil
}
