package game

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Player is one participant's state within a session. The connection id is
// a lookup key, not an owning reference: the connection may drop while the
// player record lives on with Connected=false until a reconnect rebinds it.
type Player struct {
	ID           string
	ConnectionID string
	Name         string
	Animal       string
	Avatar       json.RawMessage
	Score        int
	Ready        bool
	Connected    bool
	JoinedAt     time.Time
	joinSeq      int

	// per-question answer state, reset on every advance
	answered  bool
	answer    int
	correct   bool
	remaining time.Duration
}

func newPlayerID() string {
	return uuid.NewString()
}

func (p *Player) resetAnswer() {
	p.answered = false
	p.answer = 0
	p.correct = false
	p.remaining = 0
}
