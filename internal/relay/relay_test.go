package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Aryan9626/chess-app/internal/dependencies/mocks"
	"github.com/Aryan9626/chess-app/internal/model"
	"github.com/Aryan9626/chess-app/internal/protocol"
	"github.com/Aryan9626/chess-app/internal/registry"
	"github.com/Aryan9626/chess-app/internal/testutil"
)

// recordingSender captures sent envelopes and can simulate dead targets
type recordingSender struct {
	sent        []sentEnvelope
	unreachable map[model.ConnectionID]bool
}

type sentEnvelope struct {
	target model.ConnectionID
	env    protocol.Envelope
}

func newRecordingSender() *recordingSender {
	return &recordingSender{unreachable: make(map[model.ConnectionID]bool)}
}

func (s *recordingSender) Send(target model.ConnectionID, env protocol.Envelope) error {
	if s.unreachable[target] {
		return model.ErrTargetUnreachable
	}
	s.sent = append(s.sent, sentEnvelope{target: target, env: env})
	return nil
}

type RelaySuite struct {
	suite.Suite
	registry    *registry.Registry
	random      *mocks.MockRandom
	sender      *recordingSender
	moveRelay   *MoveRelay
	signalRelay *SignalRelay

	sessionID model.SessionID
	host      model.Participant
	joiner    model.Participant
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.registry = registry.New(clk, s.random, logger)
	s.sender = newRecordingSender()
	s.moveRelay = NewMoveRelay(s.registry, s.sender, logger)
	s.signalRelay = NewSignalRelay(s.registry, s.sender, logger)

	s.host = model.Participant{ConnectionID: "conn-host", DisplayName: "Alice"}
	s.joiner = model.Participant{ConnectionID: "conn-joiner", DisplayName: "Bob"}

	s.random.QueueString("ROOMROOMROOMROOM")
	session := s.registry.CreateSession(s.host)
	s.sessionID = session.ID
	_, err := s.registry.JoinSession(s.sessionID, s.joiner)
	s.Require().NoError(err)
}

// RelayMove tests

func (s *RelaySuite) TestRelayMoveForwardsToOpponent() {
	payload := json.RawMessage(`{"from":"e2","to":"e4"}`)

	err := s.moveRelay.RelayMove(s.sessionID, s.host.ConnectionID, payload)
	s.Require().NoError(err)

	s.Require().Len(s.sender.sent, 1)
	s.Equal(s.joiner.ConnectionID, s.sender.sent[0].target)
	s.Equal(protocol.ActionMove, s.sender.sent[0].env.Action)
	s.JSONEq(string(payload), string(s.sender.sent[0].env.Payload))
}

func (s *RelaySuite) TestRelayMoveNeverEchoesToSender() {
	err := s.moveRelay.RelayMove(s.sessionID, s.joiner.ConnectionID, json.RawMessage(`"e4"`))
	s.Require().NoError(err)

	s.Require().Len(s.sender.sent, 1)
	s.Equal(s.host.ConnectionID, s.sender.sent[0].target)
}

func (s *RelaySuite) TestRelayMovePreservesSenderOrder() {
	moves := []string{`"e4"`, `"e5"`, `"Nf3"`}
	for _, m := range moves {
		s.Require().NoError(s.moveRelay.RelayMove(s.sessionID, s.host.ConnectionID, json.RawMessage(m)))
	}

	s.Require().Len(s.sender.sent, len(moves))
	for i, m := range moves {
		s.JSONEq(m, string(s.sender.sent[i].env.Payload))
	}
}

func (s *RelaySuite) TestRelayMoveFailsIfSessionNotFound() {
	err := s.moveRelay.RelayMove("NOSUCHSESSION000", s.host.ConnectionID, json.RawMessage(`"e4"`))
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RelaySuite) TestRelayMoveDropsOnUnreachableTarget() {
	s.sender.unreachable[s.joiner.ConnectionID] = true

	err := s.moveRelay.RelayMove(s.sessionID, s.host.ConnectionID, json.RawMessage(`"e4"`))
	s.Require().NoError(err)
	s.Empty(s.sender.sent)
}

func (s *RelaySuite) TestRelayMoveWithNoOpponentIsNoop() {
	s.random.QueueString("LONELYROOM000000")
	solo := s.registry.CreateSession(model.Participant{ConnectionID: "conn-solo"})

	err := s.moveRelay.RelayMove(solo.ID, "conn-solo", json.RawMessage(`"e4"`))
	s.Require().NoError(err)
	s.Empty(s.sender.sent)
}

// RelaySignal tests

func (s *RelaySuite) TestRelaySignalForwardsToTarget() {
	payload := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)

	err := s.signalRelay.RelaySignal(s.sessionID, s.joiner.ConnectionID, payload)
	s.Require().NoError(err)

	s.Require().Len(s.sender.sent, 1)
	s.Equal(s.joiner.ConnectionID, s.sender.sent[0].target)
	s.Equal(protocol.ActionSignal, s.sender.sent[0].env.Action)
	s.JSONEq(string(payload), string(s.sender.sent[0].env.Payload))
}

func (s *RelaySuite) TestRelaySignalFailsIfSessionNotFound() {
	err := s.signalRelay.RelaySignal("NOSUCHSESSION000", s.joiner.ConnectionID, json.RawMessage(`{}`))
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *RelaySuite) TestRelaySignalFailsBeforeSecondPlayerJoins() {
	s.random.QueueString("LONELYROOM000000")
	solo := s.registry.CreateSession(model.Participant{ConnectionID: "conn-solo"})

	err := s.signalRelay.RelaySignal(solo.ID, "conn-solo", json.RawMessage(`{}`))
	s.ErrorIs(err, model.ErrSessionNotActive)
	s.Empty(s.sender.sent)
}

func (s *RelaySuite) TestRelaySignalFailsIfTargetNotMember() {
	err := s.signalRelay.RelaySignal(s.sessionID, "conn-stranger", json.RawMessage(`{}`))
	s.ErrorIs(err, model.ErrNotInSession)
	s.Empty(s.sender.sent)
}

func (s *RelaySuite) TestRelaySignalDropsOnUnreachableTarget() {
	s.sender.unreachable[s.joiner.ConnectionID] = true

	err := s.signalRelay.RelaySignal(s.sessionID, s.joiner.ConnectionID, json.RawMessage(`{}`))
	s.Require().NoError(err)
	s.Empty(s.sender.sent)
}
