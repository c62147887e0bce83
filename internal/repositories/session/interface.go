package session

import (
	"context"

	"github.com/KirkDiggler/sessionscribe/internal/models"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/KirkDiggler/sessionscribe/internal/repositories/session Repository

// Repository defines the interface for session persistence
type Repository interface {
	// CreateSession creates a new open session for a guild member
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// GetOpenSession retrieves the open session for a guild member, if any
	GetOpenSession(ctx context.Context, input *GetOpenSessionInput) (*models.Session, error)

	// CloseSession closes the open session for a guild member, recording the
	// leave time and per-channel message counts
	CloseSession(ctx context.Context, input *CloseSessionInput) (*CloseSessionOutput, error)

	// GetLatestSession retrieves the most recently started session for a
	// guild member, open or closed
	GetLatestSession(ctx context.Context, input *GetLatestSessionInput) (*models.Session, error)

	// ListOpenSessions retrieves the user IDs of all members with an open
	// session in a guild
	ListOpenSessions(ctx context.Context, input *ListOpenSessionsInput) (*ListOpenSessionsOutput, error)
}
