package game

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"live-quiz-service/internal/models"
)

// Alphabet excludes ambiguous characters: 0, O, 1, I, L
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 6

// How many collisions we tolerate before giving up. With 30^6 codes and
// classroom-scale session counts this is effectively unreachable, but it
// is handled rather than assumed away.
const maxCodeAttempts = 10

// Registry is the process-wide table from join code to live session. It
// is the only state shared across sessions; the lock is held for map
// operations only, never during a session's own mutations.
type Registry struct {
	mu     sync.Mutex
	byCode map[string]*Session
	byID   map[string]*Session

	clock  clockwork.Clock
	events Events
	policy Policy
}

func NewRegistry(clock clockwork.Clock, events Events, policy Policy) *Registry {
	return &Registry{
		byCode: make(map[string]*Session),
		byID:   make(map[string]*Session),
		clock:  clock,
		events: events,
		policy: policy,
	}
}

// CreateSession allocates a code no active session is using and registers
// a new lobby under it. Codes free up when a session is removed, so they
// may be reused across games.
func (r *Registry) CreateSession(hostUserID string, settings models.Settings, questions []models.Question) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt == maxCodeAttempts {
			return nil, ErrCodeGenerationExhausted
		}
		c, err := generateCode()
		if err != nil {
			return nil, err
		}
		if _, taken := r.byCode[c]; !taken {
			code = c
			break
		}
	}

	s := NewSession(uuid.NewString(), code, hostUserID, settings, questions, r.clock, r.events, r.policy)
	r.byCode[code] = s
	r.byID[s.ID] = s
	return s, nil
}

// ResolveByCode finds the active session behind a join code.
func (r *Registry) ResolveByCode(code string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// ResolveByID finds a session by its opaque identifier.
func (r *Registry) ResolveByID(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove evicts a session and frees its code. Idempotent.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return
	}
	delete(r.byID, sessionID)
	delete(r.byCode, s.Code)
}

// Count reports how many sessions are active, for the readiness endpoint.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
