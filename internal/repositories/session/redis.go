package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/KirkDiggler/sessionscribe/internal/common/uuid"
	"github.com/KirkDiggler/sessionscribe/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	sessionKeyPrefix        = "session:"
	memberSessionsKeyPrefix = "member_sessions:"
	openSessionKeyPrefix    = "open_session:"
	guildOpenKeyPrefix      = "guild_open:"
)

// ErrSessionNotFound is returned when a session is not found
var ErrSessionNotFound = errors.New("session not found")

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// Optional UUID generator, defaults to the standard generator
	UUIDGenerator uuid.UUID
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client  *redis.Client
	uuidGen uuid.UUID
}

// NewRedis creates a new Redis-backed session repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	// Validate config
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	uuidGen := cfg.UUIDGenerator
	if uuidGen == nil {
		uuidGen = uuid.New()
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client:  cfg.RedisClient,
		uuidGen: uuidGen,
	}, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func memberSessionsKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", memberSessionsKeyPrefix, guildID, userID)
}

func openSessionKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", openSessionKeyPrefix, guildID, userID)
}

func guildOpenKey(guildID string) string {
	return guildOpenKeyPrefix + guildID
}

// CreateSession creates a new open session for a guild member. The open
// session pointer for the member is overwritten if one already exists, so
// callers that need idempotency must check GetOpenSession first.
func (r *redisRepository) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.New("input, guild ID and user ID cannot be empty")
	}

	session := &models.Session{
		ID:       r.uuidGen.NewUUID(),
		GuildID:  input.GuildID,
		UserID:   input.UserID,
		JoinTime: input.JoinTime,
	}

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	// Write the record, the open pointer, the member's session index and the
	// guild's open set in one round trip
	pipe := r.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.ID), sessionJSON, 0)
	pipe.Set(ctx, openSessionKey(input.GuildID, input.UserID), session.ID, 0)
	// Nanosecond scores keep sessions opened within the same second in join
	// order; second granularity would tie and fall back to lexicographic IDs
	pipe.ZAdd(ctx, memberSessionsKey(input.GuildID, input.UserID), redis.Z{
		Score:  float64(input.JoinTime.UnixNano()),
		Member: session.ID,
	})
	pipe.SAdd(ctx, guildOpenKey(input.GuildID), input.UserID)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &CreateSessionOutput{
		Session: session,
	}, nil
}

// GetOpenSession retrieves the open session for a guild member
func (r *redisRepository) GetOpenSession(ctx context.Context, input *GetOpenSessionInput) (*models.Session, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.New("input, guild ID and user ID cannot be empty")
	}

	sessionID, err := r.client.Get(ctx, openSessionKey(input.GuildID, input.UserID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get open session ID: %w", err)
	}

	sessionJSON, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			// Dangling pointer, the record is gone; clear it
			r.client.Del(ctx, openSessionKey(input.GuildID, input.UserID))
			r.client.SRem(ctx, guildOpenKey(input.GuildID), input.UserID)
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}

	return &session, nil
}

// CloseSession closes the open session for a guild member. If no session is
// open the call is a no-op and Closed is false.
func (r *redisRepository) CloseSession(ctx context.Context, input *CloseSessionInput) (*CloseSessionOutput, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.New("input, guild ID and user ID cannot be empty")
	}

	session, err := r.GetOpenSession(ctx, &GetOpenSessionInput{
		GuildID: input.GuildID,
		UserID:  input.UserID,
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return &CloseSessionOutput{Closed: false}, nil
		}
		return nil, err
	}

	counts := input.ChannelCounts
	if counts == nil {
		counts = map[string]int{}
	}

	leaveTime := input.LeaveTime
	session.LeaveTime = &leaveTime
	session.ChannelCounts = counts

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.ID), sessionJSON, 0)
	pipe.Del(ctx, openSessionKey(input.GuildID, input.UserID))
	pipe.SRem(ctx, guildOpenKey(input.GuildID), input.UserID)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}

	return &CloseSessionOutput{
		Closed:  true,
		Session: session,
	}, nil
}

// GetLatestSession retrieves the most recently started session for a guild
// member, ordered by join time
func (r *redisRepository) GetLatestSession(ctx context.Context, input *GetLatestSessionInput) (*models.Session, error) {
	if input == nil || input.GuildID == "" || input.UserID == "" {
		return nil, errors.New("input, guild ID and user ID cannot be empty")
	}

	sessionIDs, err := r.client.ZRevRange(ctx, memberSessionsKey(input.GuildID, input.UserID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session index: %w", err)
	}

	if len(sessionIDs) == 0 {
		return nil, ErrSessionNotFound
	}

	sessionJSON, err := r.client.Get(ctx, sessionKey(sessionIDs[0])).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionIDs[0], err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionIDs[0], err)
	}

	return &session, nil
}

// ListOpenSessions retrieves the user IDs of all members with an open session
// in a guild
func (r *redisRepository) ListOpenSessions(ctx context.Context, input *ListOpenSessionsInput) (*ListOpenSessionsOutput, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.New("input and guild ID cannot be empty")
	}

	userIDs, err := r.client.SMembers(ctx, guildOpenKey(input.GuildID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get open sessions for guild: %w", err)
	}

	sort.Strings(userIDs)

	return &ListOpenSessionsOutput{
		UserIDs: userIDs,
	}, nil
}
