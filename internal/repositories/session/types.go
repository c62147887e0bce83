package session

import (
	"time"

	"github.com/KirkDiggler/sessionscribe/internal/models"
)

// CreateSessionInput contains parameters for creating a session
type CreateSessionInput struct {
	GuildID  string
	UserID   string
	JoinTime time.Time
}

// CreateSessionOutput contains the result of creating a session
type CreateSessionOutput struct {
	Session *models.Session
}

// GetOpenSessionInput contains parameters for retrieving an open session
type GetOpenSessionInput struct {
	GuildID string
	UserID  string
}

// CloseSessionInput contains parameters for closing a session
type CloseSessionInput struct {
	GuildID   string
	UserID    string
	LeaveTime time.Time

	// ChannelCounts maps channel IDs to message counts collected during the
	// session; a nil map is stored as empty
	ChannelCounts map[string]int
}

// CloseSessionOutput contains the result of closing a session
type CloseSessionOutput struct {
	// Closed indicates whether an open session existed and was closed
	Closed bool

	// Session is the closed session, nil if no open session existed
	Session *models.Session
}

// GetLatestSessionInput contains parameters for retrieving the latest session
type GetLatestSessionInput struct {
	GuildID string
	UserID  string
}

// ListOpenSessionsInput contains parameters for listing open sessions
type ListOpenSessionsInput struct {
	GuildID string
}

// ListOpenSessionsOutput contains the result of listing open sessions
type ListOpenSessionsOutput struct {
	// UserIDs holds the members with an open session, sorted for stable output
	UserIDs []string
}
