package tracker

import (
	"context"
	"errors"

	"github.com/KirkDiggler/sessionscribe/internal/common/clock"
	sessionRepo "github.com/KirkDiggler/sessionscribe/internal/repositories/session"
)

// service implements the Service interface
type service struct {
	sessionRepo sessionRepo.Repository
	clock       clock.Clock
	counter     *activityCounter
}

// New creates a new tracker service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.SessionRepo == nil {
		return nil, errors.New("session repository cannot be nil")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = &clock.DefaultClock{}
	}

	return &service{
		sessionRepo: cfg.SessionRepo,
		clock:       clk,
		counter:     newActivityCounter(),
	}, nil
}

// StartSession opens a session for a member who just joined a guild. A join
// implies no prior open session for the member, so none is looked for.
func (s *service) StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.New("input, guild ID and user ID cannot be empty")
	}

	s.counter.reset(input.GuildID, input.UserID)

	out, err := s.sessionRepo.CreateSession(ctx, &sessionRepo.CreateSessionInput{
		GuildID:  input.GuildID,
		UserID:   input.UserID,
		JoinTime: s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &StartSessionOutput{
		Session: out.Session,
	}, nil
}

// EnsureSession reconciles a member found present at startup. Counts for a
// session left open across a restart are gone; the tally restarts empty.
func (s *service) EnsureSession(ctx context.Context, input *EnsureSessionInput) (*EnsureSessionOutput, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.New("input, guild ID and user ID cannot be empty")
	}

	s.counter.reset(input.GuildID, input.UserID)

	existing, err := s.sessionRepo.GetOpenSession(ctx, &sessionRepo.GetOpenSessionInput{
		GuildID: input.GuildID,
		UserID:  input.UserID,
	})
	if err == nil {
		return &EnsureSessionOutput{
			Session: existing,
			Created: false,
		}, nil
	}

	if !errors.Is(err, sessionRepo.ErrSessionNotFound) {
		return nil, err
	}

	out, err := s.sessionRepo.CreateSession(ctx, &sessionRepo.CreateSessionInput{
		GuildID:  input.GuildID,
		UserID:   input.UserID,
		JoinTime: s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &EnsureSessionOutput{
		Session: out.Session,
		Created: true,
	}, nil
}

// RecordMessage counts a message against the member's open session. Messages
// from members with no tally are dropped, not errored; this happens when a
// message arrives before the member has been bootstrapped or joined.
func (s *service) RecordMessage(ctx context.Context, input *RecordMessageInput) (*RecordMessageOutput, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" || input.ChannelID == "" {
		return nil, errors.New("input, guild ID, user ID and channel ID cannot be empty")
	}

	counted := s.counter.increment(input.GuildID, input.UserID, input.ChannelID)

	return &RecordMessageOutput{
		Counted: counted,
	}, nil
}

// EndSession closes the member's open session with the collected counts. The
// tally is removed from memory whether or not an open session existed.
func (s *service) EndSession(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.New("input, guild ID and user ID cannot be empty")
	}

	counts := s.counter.pop(input.GuildID, input.UserID)

	out, err := s.sessionRepo.CloseSession(ctx, &sessionRepo.CloseSessionInput{
		GuildID:       input.GuildID,
		UserID:        input.UserID,
		LeaveTime:     s.clock.Now().UTC(),
		ChannelCounts: counts,
	})
	if err != nil {
		return nil, err
	}

	return &EndSessionOutput{
		Closed:  out.Closed,
		Session: out.Session,
	}, nil
}

// GetLatestSession returns the member's most recent session
func (s *service) GetLatestSession(ctx context.Context, input *GetLatestSessionInput) (*GetLatestSessionOutput, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.New("input, guild ID and user ID cannot be empty")
	}

	session, err := s.sessionRepo.GetLatestSession(ctx, &sessionRepo.GetLatestSessionInput{
		GuildID: input.GuildID,
		UserID:  input.UserID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &GetLatestSessionOutput{
		Session: session,
	}, nil
}

// ListActiveSessions returns the members with an open session in a guild
func (s *service) ListActiveSessions(ctx context.Context, input *ListActiveSessionsInput) (*ListActiveSessionsOutput, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.New("input and guild ID cannot be empty")
	}

	out, err := s.sessionRepo.ListOpenSessions(ctx, &sessionRepo.ListOpenSessionsInput{
		GuildID: input.GuildID,
	})
	if err != nil {
		return nil, err
	}

	return &ListActiveSessionsOutput{
		UserIDs: out.UserIDs,
	}, nil
}
