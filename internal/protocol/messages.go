package protocol

import (
	"encoding/json"

	"live-quiz-service/internal/models"
)

type MessageType string

const (
	// Client -> Server
	MessageTypeJoinGame        MessageType = "join-game"
	MessageTypeSelectAnimal    MessageType = "select-animal"
	MessageTypeCustomizeAvatar MessageType = "customize-avatar"
	MessageTypePlayerReady     MessageType = "player-ready"
	MessageTypeSubmitAnswer    MessageType = "submit-answer"
	MessageTypeLeave           MessageType = "leave"
	MessageTypePing            MessageType = "ping"

	// Host -> Server
	MessageTypeStartGame       MessageType = "start-game"
	MessageTypeAdvanceQuestion MessageType = "advance-question"
	MessageTypeKick            MessageType = "kick"

	// Server -> Client
	MessageTypeJoinedGame          MessageType = "joined-game"
	MessageTypePlayersSync         MessageType = "players-sync"
	MessageTypePlayerJoined        MessageType = "player-joined"
	MessageTypePlayerUpdated       MessageType = "player-updated"
	MessageTypePlayerAvatarUpdated MessageType = "player-avatar-updated"
	MessageTypeGameStarted         MessageType = "game-started"
	MessageTypeQuestion            MessageType = "question"
	MessageTypeQuestionResult      MessageType = "question-result"
	MessageTypeGameFinished        MessageType = "game-finished"
	MessageTypeKicked              MessageType = "kicked"
	MessageTypePlayerLeft          MessageType = "player-left"
	MessageTypeError               MessageType = "error"
	MessageTypePong                MessageType = "pong"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

type JoinGamePayload struct {
	GameCode   string `json:"game_code"`
	PlayerName string `json:"player_name"`
}

type SelectAnimalPayload struct {
	Animal string `json:"animal"`
}

type CustomizeAvatarPayload struct {
	Customization json.RawMessage `json:"customization"`
}

type SubmitAnswerPayload struct {
	QuestionID string `json:"question_id"`
	Answer     int    `json:"answer"`
	// TimeRemaining is what the client's countdown showed. Display hint only,
	// scoring always uses the server deadline.
	TimeRemaining float64 `json:"time_remaining"`
}

type KickPayload struct {
	TargetPlayerID string `json:"target_player_id"`
}

// QuestionData is the client-visible view of a question. The correct
// answer index never leaves the server.
type QuestionData struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type PlayerInfo struct {
	PlayerID  string          `json:"player_id"`
	Name      string          `json:"name"`
	Animal    string          `json:"animal,omitempty"`
	Avatar    json.RawMessage `json:"avatar,omitempty"`
	Score     int             `json:"score"`
	Ready     bool            `json:"ready"`
	Connected bool            `json:"connected"`
}

type JoinedGamePayload struct {
	PlayerID     string          `json:"player_id"`
	GameID       string          `json:"game_id"`
	GameSettings models.Settings `json:"game_settings"`
	Score        int             `json:"score"` // non-zero on reconnect
}

type PlayersSyncPayload struct {
	Players []PlayerInfo `json:"players"`
}

type PlayerJoinedPayload struct {
	Player       PlayerInfo `json:"player"`
	TotalPlayers int        `json:"total_players"`
	Reconnected  bool       `json:"reconnected,omitempty"`
}

type PlayerUpdatedPayload struct {
	PlayerID string `json:"player_id"`
	Animal   string `json:"animal,omitempty"`
	Ready    bool   `json:"ready,omitempty"`
}

type PlayerAvatarUpdatedPayload struct {
	PlayerID      string          `json:"player_id"`
	Customization json.RawMessage `json:"customization"`
}

type GameStartedPayload struct {
	FirstQuestion  QuestionData `json:"first_question"`
	QuestionNumber int          `json:"question_number"`
	TotalQuestions int          `json:"total_questions"`
	TimeLimitSec   int          `json:"time_limit_sec"`
}

type QuestionPayload struct {
	Question       QuestionData `json:"question"`
	QuestionNumber int          `json:"question_number"`
	TotalQuestions int          `json:"total_questions"`
	TimeLimitSec   int          `json:"time_limit_sec"`
}

type QuestionResultPayload struct {
	QuestionID    string                    `json:"question_id"`
	CorrectAnswer int                       `json:"correct_answer"`
	PlayerResults []models.PlayerResult     `json:"player_results"`
	Leaderboard   []models.LeaderboardEntry `json:"leaderboard"`
	Teams         []models.TeamEntry        `json:"teams,omitempty"`
}

type GameFinishedPayload struct {
	Results models.GameResults `json:"results"`
}

type KickedPayload struct {
	Reason string `json:"reason"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
	Removed  bool   `json:"removed"` // false: disconnected, may reconnect
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
