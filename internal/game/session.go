package game

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"live-quiz-service/internal/constants"
	"live-quiz-service/internal/models"
	"live-quiz-service/internal/protocol"
)

// Events is how a session reaches the outside world. The hub implements it
// on top of the websocket connections; tests implement it with a recorder.
// Implementations must not block: they are called while the session lock
// is held.
type Events interface {
	Broadcast(sessionID string, msg protocol.Message)
	SendTo(connectionID string, msg protocol.Message)
	SessionClosed(sessionID string)
	PersistResults(results *models.GameResults)
}

// Policy carries the tunables that product never pinned down.
type Policy struct {
	HostGrace    time.Duration // how long a session survives without its host
	EvictAfter   time.Duration // how long a finished session stays resolvable
	MinReady     int           // players that must be ready before the host can start
	RetainKicked bool          // keep kicked players' scores in final results
}

// Session owns one live game end to end: roster, question timing, answer
// collection, scoring. Every mutation, whether it comes from a player
// message, a host message or an internal timer, runs under one mutex, so
// no two operations against the same session ever interleave.
type Session struct {
	ID         string
	Code       string
	HostUserID string

	mu     sync.Mutex
	clock  clockwork.Clock
	events Events
	policy Policy

	settings  models.Settings
	status    string
	hostConn  string
	players   map[string]*Player // keyed by connection id
	kicked    []*Player
	nextSeq   int
	createdAt time.Time
	startedAt time.Time

	questions []models.Question
	current   int
	deadline  time.Time

	questionTimer clockwork.Timer
	graceTimer    clockwork.Timer
}

// NewSession builds a session in the lobby state. The question list is
// fixed here and never re-sampled. The host-grace timer starts immediately:
// a lobby whose host never shows up is finished off rather than squatting
// on its join code forever.
func NewSession(id, code, hostUserID string, settings models.Settings, questions []models.Question, clock clockwork.Clock, events Events, policy Policy) *Session {
	s := &Session{
		ID:         id,
		Code:       code,
		HostUserID: hostUserID,
		clock:      clock,
		events:     events,
		policy:     policy,
		settings:   settings,
		status:     constants.SessionStatusLobby,
		players:    make(map[string]*Player),
		createdAt:  clock.Now(),
		questions:  questions,
		current:    -1,
	}
	s.graceTimer = clock.AfterFunc(policy.HostGrace, s.hostGraceExpired)
	return s
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) CurrentQuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Join adds a new player in the lobby, or, when name belongs to a
// disconnected player, rebinds that player to the new connection with its
// score intact. Rebinding is the only supported reconnection path and
// works in any state before finished.
func (s *Session) Join(connectionID, name string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == constants.SessionStatusFinished {
		return nil, ErrSessionAlreadyFinished
	}

	for _, p := range s.players {
		if p.Name != name {
			continue
		}
		if p.Connected {
			return nil, ErrDuplicateName
		}
		return s.reconnectLocked(p, connectionID), nil
	}

	if s.status != constants.SessionStatusLobby {
		return nil, ErrInvalidStateTransition
	}

	p := &Player{
		ID:           newPlayerID(),
		ConnectionID: connectionID,
		Name:         name,
		Connected:    true,
		JoinedAt:     s.clock.Now(),
		joinSeq:      s.nextSeq,
	}
	s.nextSeq++
	s.players[connectionID] = p

	s.events.SendTo(connectionID, protocol.Message{
		Type: protocol.MessageTypeJoinedGame,
		Payload: protocol.JoinedGamePayload{
			PlayerID:     p.ID,
			GameID:       s.ID,
			GameSettings: s.settings,
		},
	})
	s.events.SendTo(connectionID, protocol.Message{
		Type:    protocol.MessageTypePlayersSync,
		Payload: protocol.PlayersSyncPayload{Players: s.playerInfosLocked()},
	})
	s.events.Broadcast(s.ID, protocol.Message{
		Type: protocol.MessageTypePlayerJoined,
		Payload: protocol.PlayerJoinedPayload{
			Player:       playerInfo(p),
			TotalPlayers: len(s.players),
		},
	})
	return p, nil
}

func (s *Session) reconnectLocked(p *Player, connectionID string) *Player {
	delete(s.players, p.ConnectionID)
	p.ConnectionID = connectionID
	p.Connected = true
	s.players[connectionID] = p

	s.events.SendTo(connectionID, protocol.Message{
		Type: protocol.MessageTypeJoinedGame,
		Payload: protocol.JoinedGamePayload{
			PlayerID:     p.ID,
			GameID:       s.ID,
			GameSettings: s.settings,
			Score:        p.Score,
		},
	})
	s.events.SendTo(connectionID, protocol.Message{
		Type:    protocol.MessageTypePlayersSync,
		Payload: protocol.PlayersSyncPayload{Players: s.playerInfosLocked()},
	})
	s.events.Broadcast(s.ID, protocol.Message{
		Type: protocol.MessageTypePlayerJoined,
		Payload: protocol.PlayerJoinedPayload{
			Player:       playerInfo(p),
			TotalPlayers: len(s.players),
			Reconnected:  true,
		},
	})

	if s.status == constants.SessionStatusPlaying {
		s.events.SendTo(connectionID, protocol.Message{
			Type:    protocol.MessageTypeQuestion,
			Payload: s.questionPayloadLocked(),
		})
	}
	return p
}

// SelectAnimal picks the player's animal. Only allowed in the lobby and
// only until the player signals ready, after that the choice is locked.
func (s *Session) SelectAnimal(connectionID, animal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lobbyPlayerLocked(connectionID)
	if err != nil {
		return err
	}
	p.Animal = animal
	s.events.Broadcast(s.ID, protocol.Message{
		Type:    protocol.MessageTypePlayerUpdated,
		Payload: protocol.PlayerUpdatedPayload{PlayerID: p.ID, Animal: animal},
	})
	return nil
}

// CustomizeAvatar stores the cosmetic blob. Same validity window as
// SelectAnimal; no gameplay effect.
func (s *Session) CustomizeAvatar(connectionID string, customization json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lobbyPlayerLocked(connectionID)
	if err != nil {
		return err
	}
	p.Avatar = customization
	s.events.Broadcast(s.ID, protocol.Message{
		Type:    protocol.MessageTypePlayerAvatarUpdated,
		Payload: protocol.PlayerAvatarUpdatedPayload{PlayerID: p.ID, Customization: customization},
	})
	return nil
}

func (s *Session) SetReady(connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != constants.SessionStatusLobby {
		return ErrInvalidStateTransition
	}
	p, ok := s.players[connectionID]
	if !ok || !p.Connected {
		return ErrNotFound
	}
	p.Ready = true
	s.events.Broadcast(s.ID, protocol.Message{
		Type:    protocol.MessageTypePlayerUpdated,
		Payload: protocol.PlayerUpdatedPayload{PlayerID: p.ID, Ready: true},
	})
	return nil
}

func (s *Session) lobbyPlayerLocked(connectionID string) (*Player, error) {
	if s.status != constants.SessionStatusLobby {
		return nil, ErrInvalidStateTransition
	}
	p, ok := s.players[connectionID]
	if !ok || !p.Connected {
		return nil, ErrNotFound
	}
	if p.Ready {
		return nil, ErrInvalidStateTransition
	}
	return p, nil
}

// StartGame transitions lobby -> playing and starts the clock for
// question 0. Host only.
func (s *Session) StartGame(connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hostConn == "" || connectionID != s.hostConn {
		return ErrUnauthorized
	}
	if s.status != constants.SessionStatusLobby {
		if s.status == constants.SessionStatusFinished {
			return ErrSessionAlreadyFinished
		}
		return ErrInvalidStateTransition
	}
	if len(s.players) == 0 {
		return ErrInvalidStateTransition
	}
	ready := 0
	for _, p := range s.players {
		if p.Ready {
			ready++
		}
	}
	if ready < s.policy.MinReady {
		return ErrInvalidStateTransition
	}

	s.status = constants.SessionStatusPlaying
	s.startedAt = s.clock.Now()
	s.current = 0
	s.armQuestionLocked()

	q := s.questions[0]
	s.events.Broadcast(s.ID, protocol.Message{
		Type: protocol.MessageTypeGameStarted,
		Payload: protocol.GameStartedPayload{
			FirstQuestion:  questionData(q),
			QuestionNumber: 1,
			TotalQuestions: len(s.questions),
			TimeLimitSec:   s.settings.TimePerQuestion,
		},
	})
	return nil
}

// SubmitAnswer records one player's answer for the current question. The
// server computes the authoritative time remaining from its own deadline;
// the client-reported figure is never used for scoring.
func (s *Session) SubmitAnswer(connectionID, questionID string, answer int, clientRemaining float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == constants.SessionStatusFinished {
		return ErrSessionAlreadyFinished
	}
	if s.status != constants.SessionStatusPlaying {
		return ErrInvalidStateTransition
	}
	p, ok := s.players[connectionID]
	if !ok {
		return ErrNotFound
	}

	now := s.clock.Now()
	if !now.Before(s.deadline) {
		return ErrDeadlinePassed
	}
	q := s.questions[s.current]
	if questionID != q.ID {
		// Stale submission for a question that already advanced.
		return ErrDeadlinePassed
	}
	if p.answered {
		return ErrDuplicateAnswer
	}

	p.answered = true
	p.answer = answer
	p.correct = answer == q.CorrectIndex
	p.remaining = s.deadline.Sub(now)

	if clientRemaining > p.remaining.Seconds()+1 {
		log.Printf("Player %s reported %.1fs remaining, server says %.1fs", p.ID, clientRemaining, p.remaining.Seconds())
	}

	// Everyone still connected has answered: close the question early.
	if s.allAnsweredLocked() {
		s.advanceLocked(s.current)
	}
	return nil
}

func (s *Session) allAnsweredLocked() bool {
	connected := 0
	for _, p := range s.players {
		if p.Connected {
			connected++
			if !p.answered {
				return false
			}
		}
	}
	return connected > 0
}

// AdvanceQuestion is the host forcing an early advance. The timer drives
// the same path when the deadline elapses; whichever fires second finds
// the index already moved and becomes a no-op.
func (s *Session) AdvanceQuestion(connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hostConn == "" || connectionID != s.hostConn {
		return ErrUnauthorized
	}
	if s.status != constants.SessionStatusPlaying {
		if s.status == constants.SessionStatusFinished {
			return ErrSessionAlreadyFinished
		}
		return ErrInvalidStateTransition
	}
	s.advanceLocked(s.current)
	return nil
}

func (s *Session) timerAdvance(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != constants.SessionStatusPlaying || s.current != index {
		return
	}
	s.advanceLocked(index)
}

// advanceLocked closes question `index`: scores everyone (no answer means
// zero points), broadcasts the result with fresh leaderboards, then either
// arms the next question or finishes the game.
func (s *Session) advanceLocked(index int) {
	if s.questionTimer != nil {
		s.questionTimer.Stop()
		s.questionTimer = nil
	}
	s.deadline = time.Time{}

	q := s.questions[index]
	maxTime := time.Duration(s.settings.TimePerQuestion) * time.Second

	results := make([]models.PlayerResult, 0, len(s.players))
	for _, p := range s.sortedPlayersLocked() {
		points := 0
		if p.answered {
			points = Score(p.correct, p.remaining, maxTime)
		}
		p.Score += points
		results = append(results, models.PlayerResult{
			PlayerID:  p.ID,
			Name:      p.Name,
			Answered:  p.answered,
			Answer:    p.answer,
			IsCorrect: p.answered && p.correct,
			Points:    points,
			Score:     p.Score,
		})
		p.resetAnswer()
	}

	payload := protocol.QuestionResultPayload{
		QuestionID:    q.ID,
		CorrectAnswer: q.CorrectIndex,
		PlayerResults: results,
		Leaderboard:   rankPlayers(s.sortedPlayersLocked()),
	}
	if s.settings.Mode == constants.GameModeTeam {
		payload.Teams = rankTeams(s.sortedPlayersLocked())
	}
	s.events.Broadcast(s.ID, protocol.Message{
		Type:    protocol.MessageTypeQuestionResult,
		Payload: payload,
	})

	if index+1 < len(s.questions) {
		s.current = index + 1
		s.armQuestionLocked()
		s.events.Broadcast(s.ID, protocol.Message{
			Type:    protocol.MessageTypeQuestion,
			Payload: s.questionPayloadLocked(),
		})
		return
	}
	s.finishLocked(constants.FinishReasonCompleted)
}

func (s *Session) armQuestionLocked() {
	d := time.Duration(s.settings.TimePerQuestion) * time.Second
	s.deadline = s.clock.Now().Add(d)
	index := s.current
	s.questionTimer = s.clock.AfterFunc(d, func() { s.timerAdvance(index) })
}

func (s *Session) questionPayloadLocked() protocol.QuestionPayload {
	remaining := int(s.deadline.Sub(s.clock.Now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return protocol.QuestionPayload{
		Question:       questionData(s.questions[s.current]),
		QuestionNumber: s.current + 1,
		TotalQuestions: len(s.questions),
		TimeLimitSec:   remaining,
	}
}

// Kick removes a player outright, in any state before finished. The
// target is told why so its connection can close cleanly.
func (s *Session) Kick(connectionID, targetPlayerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hostConn == "" || connectionID != s.hostConn {
		return ErrUnauthorized
	}
	if s.status == constants.SessionStatusFinished {
		return ErrSessionAlreadyFinished
	}

	for connID, p := range s.players {
		if p.ID != targetPlayerID {
			continue
		}
		delete(s.players, connID)
		if s.policy.RetainKicked {
			s.kicked = append(s.kicked, p)
		}
		if p.Connected {
			s.events.SendTo(connID, protocol.Message{
				Type:    protocol.MessageTypeKicked,
				Payload: protocol.KickedPayload{Reason: constants.KickReasonHost},
			})
		}
		s.events.Broadcast(s.ID, protocol.Message{
			Type:    protocol.MessageTypePlayerLeft,
			Payload: protocol.PlayerLeftPayload{PlayerID: p.ID, Removed: true},
		})
		return nil
	}
	return ErrNotFound
}

// Leave handles a player's departure. In the lobby the player is removed
// outright, there is no score worth preserving yet. Mid-game the record
// stays with Connected=false so the same name can reclaim it.
func (s *Session) Leave(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[connectionID]
	if !ok || s.status == constants.SessionStatusFinished {
		return
	}

	if s.status == constants.SessionStatusLobby {
		delete(s.players, connectionID)
		s.events.Broadcast(s.ID, protocol.Message{
			Type:    protocol.MessageTypePlayerLeft,
			Payload: protocol.PlayerLeftPayload{PlayerID: p.ID, Removed: true},
		})
		return
	}

	if !p.Connected {
		return
	}
	p.Connected = false
	s.events.Broadcast(s.ID, protocol.Message{
		Type:    protocol.MessageTypePlayerLeft,
		Payload: protocol.PlayerLeftPayload{PlayerID: p.ID},
	})
}

// HostReconnect binds a connection as the session's host and cancels any
// pending grace timer. Also used for the initial host attachment: a
// session is created hostless over HTTP and the host arrives here.
func (s *Session) HostReconnect(connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == constants.SessionStatusFinished {
		return ErrSessionAlreadyFinished
	}
	s.hostConn = connectionID
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}

	s.events.SendTo(connectionID, protocol.Message{
		Type:    protocol.MessageTypePlayersSync,
		Payload: protocol.PlayersSyncPayload{Players: s.playerInfosLocked()},
	})
	if s.status == constants.SessionStatusPlaying {
		s.events.SendTo(connectionID, protocol.Message{
			Type:    protocol.MessageTypeQuestion,
			Payload: s.questionPayloadLocked(),
		})
	}
	return nil
}

// HostDisconnect starts the grace window. The session keeps running; if
// the host never returns the game is finished with whatever scores exist.
// A stale connection that was already replaced by a reconnect is ignored.
func (s *Session) HostDisconnect(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == constants.SessionStatusFinished || s.hostConn != connectionID {
		return
	}
	s.hostConn = ""
	if s.graceTimer != nil {
		s.graceTimer.Stop()
	}
	s.graceTimer = s.clock.AfterFunc(s.policy.HostGrace, s.hostGraceExpired)
}

func (s *Session) hostGraceExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == constants.SessionStatusFinished || s.hostConn != "" {
		return
	}
	log.Printf("Host grace period expired for game %s (%s), finishing", s.ID, s.Code)
	if s.questionTimer != nil {
		s.questionTimer.Stop()
		s.questionTimer = nil
	}
	s.finishLocked(constants.FinishReasonHostGone)
}

// finishLocked is the single terminal transition. Scores are frozen, the
// final results go out to everyone and to the persistence sink, and the
// session is scheduled out of the registry after a grace period.
func (s *Session) finishLocked(reason string) {
	s.status = constants.SessionStatusFinished
	s.deadline = time.Time{}
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}

	ranked := s.sortedPlayersLocked()
	if s.policy.RetainKicked {
		ranked = append(ranked, s.kicked...)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].joinSeq < ranked[j].joinSeq })
	}
	leaderboard := rankPlayers(ranked)

	var winners []string
	if len(leaderboard) > 0 {
		top := leaderboard[0].Score
		for _, e := range leaderboard {
			if e.Score != top {
				break
			}
			winners = append(winners, e.Name)
		}
	}

	startedAt := s.startedAt
	if startedAt.IsZero() {
		startedAt = s.createdAt
	}
	results := &models.GameResults{
		GameID:      s.ID,
		Code:        s.Code,
		Mode:        s.settings.Mode,
		Reason:      reason,
		Winners:     winners,
		Leaderboard: leaderboard,
		StartedAt:   startedAt,
		FinishedAt:  s.clock.Now(),
	}
	if s.settings.Mode == constants.GameModeTeam {
		results.Teams = rankTeams(ranked)
	}

	s.events.Broadcast(s.ID, protocol.Message{
		Type:    protocol.MessageTypeGameFinished,
		Payload: protocol.GameFinishedPayload{Results: *results},
	})
	s.events.PersistResults(results)

	s.clock.AfterFunc(s.policy.EvictAfter, func() { s.events.SessionClosed(s.ID) })
}

func (s *Session) sortedPlayersLocked() []*Player {
	players := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].joinSeq < players[j].joinSeq })
	return players
}

func (s *Session) playerInfosLocked() []protocol.PlayerInfo {
	players := s.sortedPlayersLocked()
	infos := make([]protocol.PlayerInfo, len(players))
	for i, p := range players {
		infos[i] = playerInfo(p)
	}
	return infos
}

func playerInfo(p *Player) protocol.PlayerInfo {
	return protocol.PlayerInfo{
		PlayerID:  p.ID,
		Name:      p.Name,
		Animal:    p.Animal,
		Avatar:    p.Avatar,
		Score:     p.Score,
		Ready:     p.Ready,
		Connected: p.Connected,
	}
}

func questionData(q models.Question) protocol.QuestionData {
	return protocol.QuestionData{ID: q.ID, Text: q.Text, Options: q.Options}
}
