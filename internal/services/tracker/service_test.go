package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	clockMocks "github.com/KirkDiggler/sessionscribe/internal/common/clock/mocks"
	"github.com/KirkDiggler/sessionscribe/internal/models"
	sessionRepo "github.com/KirkDiggler/sessionscribe/internal/repositories/session"
	repoMocks "github.com/KirkDiggler/sessionscribe/internal/repositories/session/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type TrackerServiceTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockRepo  *repoMocks.MockRepository
	mockClock *clockMocks.MockClock
	service   Service
	ctx       context.Context

	// Test data
	testTime    time.Time
	testGuildID string
	testUserID  string

	expectedOpenSession *models.Session
}

func (s *TrackerServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockRepo = repoMocks.NewMockRepository(s.mockCtrl)
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)

	s.ctx = context.Background()

	// Initialize test data
	s.testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.testGuildID = "test-guild-id"
	s.testUserID = "test-user-id"

	// Set up the clock mock to return our test time
	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	s.expectedOpenSession = &models.Session{
		ID:       "test-session-id",
		GuildID:  s.testGuildID,
		UserID:   s.testUserID,
		JoinTime: s.testTime,
	}

	service, err := New(&Config{
		SessionRepo: s.mockRepo,
		Clock:       s.mockClock,
	})
	s.Require().NoError(err)
	s.service = service
}

func TestTrackerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TrackerServiceTestSuite))
}

func (s *TrackerServiceTestSuite) startSession() {
	s.mockRepo.EXPECT().CreateSession(s.ctx, &sessionRepo.CreateSessionInput{
		GuildID:  s.testGuildID,
		UserID:   s.testUserID,
		JoinTime: s.testTime,
	}).Return(&sessionRepo.CreateSessionOutput{
		Session: s.expectedOpenSession,
	}, nil)

	out, err := s.service.StartSession(s.ctx, &StartSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)
	s.Require().NotNil(out.Session)
}

func (s *TrackerServiceTestSuite) TestStartSessionOpensSession() {
	s.startSession()
}

func (s *TrackerServiceTestSuite) TestImmediateLeaveClosesWithEmptyCounts() {
	s.startSession()

	s.mockRepo.EXPECT().CloseSession(s.ctx, &sessionRepo.CloseSessionInput{
		GuildID:       s.testGuildID,
		UserID:        s.testUserID,
		LeaveTime:     s.testTime,
		ChannelCounts: map[string]int{},
	}).Return(&sessionRepo.CloseSessionOutput{
		Closed:  true,
		Session: s.expectedOpenSession,
	}, nil)

	out, err := s.service.EndSession(s.ctx, &EndSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)
	s.True(out.Closed)
}

func (s *TrackerServiceTestSuite) TestMessagesAreTalliedPerChannel() {
	s.startSession()

	for i := 0; i < 3; i++ {
		out, err := s.service.RecordMessage(s.ctx, &RecordMessageInput{
			GuildID:   s.testGuildID,
			UserID:    s.testUserID,
			ChannelID: "chan-1",
		})
		s.Require().NoError(err)
		s.True(out.Counted)
	}
	for i := 0; i < 2; i++ {
		out, err := s.service.RecordMessage(s.ctx, &RecordMessageInput{
			GuildID:   s.testGuildID,
			UserID:    s.testUserID,
			ChannelID: "chan-2",
		})
		s.Require().NoError(err)
		s.True(out.Counted)
	}

	s.mockRepo.EXPECT().CloseSession(s.ctx, &sessionRepo.CloseSessionInput{
		GuildID:   s.testGuildID,
		UserID:    s.testUserID,
		LeaveTime: s.testTime,
		ChannelCounts: map[string]int{
			"chan-1": 3,
			"chan-2": 2,
		},
	}).Return(&sessionRepo.CloseSessionOutput{
		Closed:  true,
		Session: s.expectedOpenSession,
	}, nil)

	out, err := s.service.EndSession(s.ctx, &EndSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)
	s.True(out.Closed)
}

func (s *TrackerServiceTestSuite) TestEndSessionDiscardsTally() {
	s.startSession()

	_, err := s.service.RecordMessage(s.ctx, &RecordMessageInput{
		GuildID:   s.testGuildID,
		UserID:    s.testUserID,
		ChannelID: "chan-1",
	})
	s.Require().NoError(err)

	s.mockRepo.EXPECT().CloseSession(s.ctx, gomock.Any()).Return(&sessionRepo.CloseSessionOutput{
		Closed:  true,
		Session: s.expectedOpenSession,
	}, nil)

	_, err = s.service.EndSession(s.ctx, &EndSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)

	// The tally was popped, so later messages are dropped
	out, err := s.service.RecordMessage(s.ctx, &RecordMessageInput{
		GuildID:   s.testGuildID,
		UserID:    s.testUserID,
		ChannelID: "chan-1",
	})
	s.Require().NoError(err)
	s.False(out.Counted)
}

func (s *TrackerServiceTestSuite) TestMessageWithoutSessionIsDropped() {
	// No repository expectations: a dropped message touches nothing
	out, err := s.service.RecordMessage(s.ctx, &RecordMessageInput{
		GuildID:   s.testGuildID,
		UserID:    s.testUserID,
		ChannelID: "chan-1",
	})
	s.Require().NoError(err)
	s.False(out.Counted)
}

func (s *TrackerServiceTestSuite) TestEnsureSessionCreatesWhenNoneOpen() {
	s.mockRepo.EXPECT().GetOpenSession(s.ctx, &sessionRepo.GetOpenSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	}).Return(nil, sessionRepo.ErrSessionNotFound)

	s.mockRepo.EXPECT().CreateSession(s.ctx, &sessionRepo.CreateSessionInput{
		GuildID:  s.testGuildID,
		UserID:   s.testUserID,
		JoinTime: s.testTime,
	}).Return(&sessionRepo.CreateSessionOutput{
		Session: s.expectedOpenSession,
	}, nil)

	out, err := s.service.EnsureSession(s.ctx, &EnsureSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)
	s.True(out.Created)
	s.Equal(s.expectedOpenSession, out.Session)
}

func (s *TrackerServiceTestSuite) TestEnsureSessionIsIdempotent() {
	gomock.InOrder(
		s.mockRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).Return(nil, sessionRepo.ErrSessionNotFound),
		s.mockRepo.EXPECT().CreateSession(s.ctx, gomock.Any()).Return(&sessionRepo.CreateSessionOutput{
			Session: s.expectedOpenSession,
		}, nil),
		// Second run finds the open session and must not create another
		s.mockRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).Return(s.expectedOpenSession, nil),
	)

	first, err := s.service.EnsureSession(s.ctx, &EnsureSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)
	s.True(first.Created)

	second, err := s.service.EnsureSession(s.ctx, &EnsureSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal(s.expectedOpenSession, second.Session)
}

func (s *TrackerServiceTestSuite) TestEnsureSessionResetsTally() {
	s.mockRepo.EXPECT().GetOpenSession(s.ctx, gomock.Any()).Return(s.expectedOpenSession, nil)

	_, err := s.service.EnsureSession(s.ctx, &EnsureSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)

	// The reattached member has an empty tally and messages now count
	out, err := s.service.RecordMessage(s.ctx, &RecordMessageInput{
		GuildID:   s.testGuildID,
		UserID:    s.testUserID,
		ChannelID: "chan-1",
	})
	s.Require().NoError(err)
	s.True(out.Counted)
}

func (s *TrackerServiceTestSuite) TestEndSessionWithoutOpenSessionIsNoOp() {
	s.mockRepo.EXPECT().CloseSession(s.ctx, &sessionRepo.CloseSessionInput{
		GuildID:       s.testGuildID,
		UserID:        s.testUserID,
		LeaveTime:     s.testTime,
		ChannelCounts: map[string]int{},
	}).Return(&sessionRepo.CloseSessionOutput{
		Closed: false,
	}, nil)

	out, err := s.service.EndSession(s.ctx, &EndSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().NoError(err)
	s.False(out.Closed)
	s.Nil(out.Session)
}

func (s *TrackerServiceTestSuite) TestGetLatestSessionNotFound() {
	s.mockRepo.EXPECT().GetLatestSession(s.ctx, gomock.Any()).Return(nil, sessionRepo.ErrSessionNotFound)

	_, err := s.service.GetLatestSession(s.ctx, &GetLatestSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().ErrorIs(err, ErrSessionNotFound)
}

func (s *TrackerServiceTestSuite) TestGetLatestSessionPropagatesStoreError() {
	storeErr := errors.New("store unavailable")
	s.mockRepo.EXPECT().GetLatestSession(s.ctx, gomock.Any()).Return(nil, storeErr)

	_, err := s.service.GetLatestSession(s.ctx, &GetLatestSessionInput{
		GuildID: s.testGuildID,
		UserID:  s.testUserID,
	})
	s.Require().ErrorIs(err, storeErr)
}

func (s *TrackerServiceTestSuite) TestListActiveSessions() {
	s.mockRepo.EXPECT().ListOpenSessions(s.ctx, &sessionRepo.ListOpenSessionsInput{
		GuildID: s.testGuildID,
	}).Return(&sessionRepo.ListOpenSessionsOutput{
		UserIDs: []string{"user-a", "user-b"},
	}, nil)

	out, err := s.service.ListActiveSessions(s.ctx, &ListActiveSessionsInput{
		GuildID: s.testGuildID,
	})
	s.Require().NoError(err)
	s.Equal([]string{"user-a", "user-b"}, out.UserIDs)
}
