package tracker

import (
	"github.com/KirkDiggler/sessionscribe/internal/common/clock"
	"github.com/KirkDiggler/sessionscribe/internal/models"
	sessionRepo "github.com/KirkDiggler/sessionscribe/internal/repositories/session"
)

// Config holds configuration for the tracker service
type Config struct {
	// Repository dependencies
	SessionRepo sessionRepo.Repository

	// Clock for timestamps, defaults to the system clock
	Clock clock.Clock
}

// StartSessionInput contains parameters for starting a session
type StartSessionInput struct {
	// GuildID is the Discord guild the member joined
	GuildID string

	// UserID is the Discord user ID of the member
	UserID string
}

// StartSessionOutput contains the result of starting a session
type StartSessionOutput struct {
	// Session is the newly opened session
	Session *models.Session
}

// EnsureSessionInput contains parameters for reconciling a present member
type EnsureSessionInput struct {
	GuildID string
	UserID  string
}

// EnsureSessionOutput contains the result of reconciling a present member
type EnsureSessionOutput struct {
	// Session is the member's open session
	Session *models.Session

	// Created indicates whether a new session was opened, false when an open
	// session already existed
	Created bool
}

// RecordMessageInput contains parameters for counting a message
type RecordMessageInput struct {
	GuildID   string
	UserID    string
	ChannelID string
}

// RecordMessageOutput contains the result of counting a message
type RecordMessageOutput struct {
	// Counted indicates whether the message was attributed to a tracked
	// session; false means it was dropped
	Counted bool
}

// EndSessionInput contains parameters for ending a session
type EndSessionInput struct {
	GuildID string
	UserID  string
}

// EndSessionOutput contains the result of ending a session
type EndSessionOutput struct {
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

// GetLatestSessionOutput contains the result of retrieving the latest session
type GetLatestSessionOutput struct {
	Session *models.Session
}

// ListActiveSessionsInput contains parameters for listing active sessions
type ListActiveSessionsInput struct {
	GuildID string
}

// ListActiveSessionsOutput contains the result of listing active sessions
type ListActiveSessionsOutput struct {
	// UserIDs holds the members with an open session
	UserIDs []string
}
