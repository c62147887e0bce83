package tracker

import "context"

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/sessionscribe/internal/services/tracker Service

// Service defines the interface for session tracking operations
type Service interface {
	// StartSession opens a session for a member who just joined a guild and
	// resets their message counter
	StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error)

	// EnsureSession reconciles a member found present at startup: it resets
	// their message counter and opens a session only if none is open
	EnsureSession(ctx context.Context, input *EnsureSessionInput) (*EnsureSessionOutput, error)

	// RecordMessage counts a message against the member's open session, if
	// one is being tracked; untracked messages are dropped
	RecordMessage(ctx context.Context, input *RecordMessageInput) (*RecordMessageOutput, error)

	// EndSession closes the member's open session, attaching the collected
	// per-channel message counts
	EndSession(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error)

	// GetLatestSession returns the member's most recent session, open or closed
	GetLatestSession(ctx context.Context, input *GetLatestSessionInput) (*GetLatestSessionOutput, error)

	// ListActiveSessions returns the members with an open session in a guild
	ListActiveSessions(ctx context.Context, input *ListActiveSessionsInput) (*ListActiveSessionsOutput, error)
}
