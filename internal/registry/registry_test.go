package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Aryan9626/chess-app/internal/dependencies/mocks"
	"github.com/Aryan9626/chess-app/internal/model"
	"github.com/Aryan9626/chess-app/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.registry = New(s.clock, s.random, testutil.NopLogger())
}

func (s *RegistrySuite) participant(id string, name string) model.Participant {
	return model.Participant{
		ConnectionID: model.ConnectionID(id),
		DisplayName:  name,
	}
}

// CreateSession tests

func (s *RegistrySuite) TestCreateSessionSucceeds() {
	s.random.QueueString("ROOMROOMROOMROOM")
	host := s.participant("conn-1", "Alice")

	session := s.registry.CreateSession(host)

	s.Equal(model.SessionID("ROOMROOMROOMROOM"), session.ID)
	s.Equal(model.SessionStateCreated, session.State)
	s.Len(session.Players, 1)
	s.Equal(host.ConnectionID, session.Players[0].ConnectionID)
	s.Equal(s.clock.Now(), session.CreatedAt)
}

func (s *RegistrySuite) TestCreateSessionRetriesOnIDCollision() {
	s.random.QueueString("SAMEID0000000000")
	first := s.registry.CreateSession(s.participant("conn-1", "Alice"))

	s.random.QueueString("SAMEID0000000000", "OTHERID000000000")
	second := s.registry.CreateSession(s.participant("conn-2", "Bob"))

	s.NotEqual(first.ID, second.ID)
	s.Equal(model.SessionID("OTHERID000000000"), second.ID)
	s.Equal(2, s.registry.Count())
}

func (s *RegistrySuite) TestCreateSessionReturnsSnapshot() {
	s.random.QueueString("ROOMROOMROOMROOM")
	session := s.registry.CreateSession(s.participant("conn-1", "Alice"))

	// Mutating the returned session must not touch registry state
	session.Players[0].DisplayName = "Mallory"

	stored, err := s.registry.GetSession(session.ID)
	s.Require().NoError(err)
	s.Equal("Alice", stored.Players[0].DisplayName)
}

// JoinSession tests

func (s *RegistrySuite) TestJoinSessionSucceeds() {
	s.random.QueueString("ROOMROOMROOMROOM")
	session := s.registry.CreateSession(s.participant("conn-1", "Alice"))

	joined, err := s.registry.JoinSession(session.ID, s.participant("conn-2", "Bob"))
	s.Require().NoError(err)

	s.Equal(model.SessionStateActive, joined.State)
	s.Len(joined.Players, 2)
	s.Equal(model.ConnectionID("conn-1"), joined.Players[0].ConnectionID)
	s.Equal(model.ConnectionID("conn-2"), joined.Players[1].ConnectionID)
}

func (s *RegistrySuite) TestJoinSessionFailsIfNotFound() {
	_, err := s.registry.JoinSession("NOSUCHSESSION000", s.participant("conn-1", "Alice"))
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.EqualError(err, "room does not exist")
}

func (s *RegistrySuite) TestJoinSessionFailsIfFull() {
	s.random.QueueString("ROOMROOMROOMROOM")
	session := s.registry.CreateSession(s.participant("conn-1", "Alice"))
	_, err := s.registry.JoinSession(session.ID, s.participant("conn-2", "Bob"))
	s.Require().NoError(err)

	_, err = s.registry.JoinSession(session.ID, s.participant("conn-3", "Carol"))
	s.ErrorIs(err, model.ErrSessionFull)
	s.EqualError(err, "room is full")
}

func (s *RegistrySuite) TestJoinSessionExactlyOneWinnerUnderContention() {
	s.random.QueueString("ROOMROOMROOMROOM")
	session := s.registry.CreateSession(s.participant("conn-host", "Host"))

	const contenders = 16
	errs := make([]error, contenders)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			_, errs[i] = s.registry.JoinSession(session.ID, s.participant("conn-"+string(rune('a'+i)), "Joiner"))
		}(i)
	}
	start.Done()
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			s.ErrorIs(err, model.ErrSessionFull)
		}
	}
	s.Equal(1, winners)

	stored, err := s.registry.GetSession(session.ID)
	s.Require().NoError(err)
	s.Len(stored.Players, model.MaxPlayers)
}

// RemoveParticipant tests

func (s *RegistrySuite) TestRemoveParticipantDeletesSessionWhenAlone() {
	s.random.QueueString("ROOMROOMROOMROOM")
	host := s.participant("conn-1", "Alice")
	session := s.registry.CreateSession(host)

	outcome := s.registry.RemoveParticipant(host.ConnectionID)

	s.True(outcome.Found)
	s.True(outcome.Deleted)
	s.Equal(session.ID, outcome.SessionID)
	s.Equal(host.ConnectionID, outcome.Departed.ConnectionID)
	s.Empty(outcome.Survivors)

	_, err := s.registry.GetSession(session.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RegistrySuite) TestRemoveParticipantKeepsFullSessionRoster() {
	s.random.QueueString("ROOMROOMROOMROOM")
	host := s.participant("conn-1", "Alice")
	joiner := s.participant("conn-2", "Bob")
	session := s.registry.CreateSession(host)
	_, err := s.registry.JoinSession(session.ID, joiner)
	s.Require().NoError(err)

	outcome := s.registry.RemoveParticipant(host.ConnectionID)

	s.True(outcome.Found)
	s.False(outcome.Deleted)
	s.Equal(host.ConnectionID, outcome.Departed.ConnectionID)
	s.Require().Len(outcome.Survivors, 1)
	s.Equal(joiner.ConnectionID, outcome.Survivors[0].ConnectionID)

	// The session stays retrievable and the departed member still occupies a
	// seat, so it reports full to anyone trying to take their place.
	stored, err := s.registry.GetSession(session.ID)
	s.Require().NoError(err)
	s.Len(stored.Players, 2)

	_, err = s.registry.JoinSession(session.ID, s.participant("conn-3", "Carol"))
	s.ErrorIs(err, model.ErrSessionFull)
}

func (s *RegistrySuite) TestRemoveParticipantUnknownConnection() {
	outcome := s.registry.RemoveParticipant("conn-unknown")
	s.False(outcome.Found)
}

// CloseSession tests

func (s *RegistrySuite) TestCloseSessionEvictsMembers() {
	s.random.QueueString("ROOMROOMROOMROOM")
	host := s.participant("conn-1", "Alice")
	joiner := s.participant("conn-2", "Bob")
	session := s.registry.CreateSession(host)
	_, err := s.registry.JoinSession(session.ID, joiner)
	s.Require().NoError(err)

	evicted, err := s.registry.CloseSession(session.ID)
	s.Require().NoError(err)
	s.Len(evicted, 2)

	_, err = s.registry.GetSession(session.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Equal(0, s.registry.Count())
}

func (s *RegistrySuite) TestCloseSessionFailsIfNotFound() {
	_, err := s.registry.CloseSession("NOSUCHSESSION000")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RegistrySuite) TestCloseSessionWithSoleMember() {
	s.random.QueueString("ROOMROOMROOMROOM")
	session := s.registry.CreateSession(s.participant("conn-1", "Alice"))

	evicted, err := s.registry.CloseSession(session.ID)
	s.Require().NoError(err)
	s.Len(evicted, 1)

	_, err = s.registry.JoinSession(session.ID, s.participant("conn-2", "Bob"))
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// GetSession tests

func (s *RegistrySuite) TestGetSessionFailsIfNotFound() {
	_, err := s.registry.GetSession("NOSUCHSESSION000")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RegistrySuite) TestGetSessionReturnsSnapshot() {
	s.random.QueueString("ROOMROOMROOMROOM")
	session := s.registry.CreateSession(s.participant("conn-1", "Alice"))

	a, err := s.registry.GetSession(session.ID)
	s.Require().NoError(err)
	a.Players = append(a.Players, s.participant("conn-x", "Extra"))

	b, err := s.registry.GetSession(session.ID)
	s.Require().NoError(err)
	s.Len(b.Players, 1)
}
