package game

import (
	"regexp"
	"testing"

	"github.com/jonboulle/clockwork"
)

func testRegistry() *Registry {
	return NewRegistry(clockwork.NewFakeClock(), newRecorder(), testPolicy())
}

func TestCreateSessionAllocatesCode(t *testing.T) {
	r := testRegistry()

	s, err := r.CreateSession("teacher-1", testSettings(), testQuestions(2))
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	pattern := regexp.MustCompile(`^[ABCDEFGHJKMNPQRSTUVWXYZ23456789]{6}$`)
	if !pattern.MatchString(s.Code) {
		t.Errorf("code = %q, doesn't match expected pattern", s.Code)
	}
	if s.ID == "" {
		t.Error("session id is empty")
	}
	if s.Status() != "lobby" {
		t.Errorf("new session status = %q, want lobby", s.Status())
	}
}

func TestResolveByCode(t *testing.T) {
	r := testRegistry()

	s, err := r.CreateSession("teacher-1", testSettings(), testQuestions(2))
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.ResolveByCode(s.Code)
	if err != nil {
		t.Fatalf("ResolveByCode(%q) error: %v", s.Code, err)
	}
	if got.ID != s.ID {
		t.Errorf("resolved session %s, want %s", got.ID, s.ID)
	}

	if _, err := r.ResolveByCode("NOPE42"); err != ErrNotFound {
		t.Errorf("ResolveByCode(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestRemoveFreesCode(t *testing.T) {
	r := testRegistry()

	s, err := r.CreateSession("teacher-1", testSettings(), testQuestions(2))
	if err != nil {
		t.Fatal(err)
	}

	r.Remove(s.ID)
	if _, err := r.ResolveByCode(s.Code); err != ErrNotFound {
		t.Errorf("code still resolvable after Remove, error = %v", err)
	}
	if _, err := r.ResolveByID(s.ID); err != ErrNotFound {
		t.Errorf("id still resolvable after Remove, error = %v", err)
	}

	// Idempotent.
	r.Remove(s.ID)

	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestCodesUniqueAmongActiveSessions(t *testing.T) {
	r := testRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := r.CreateSession("teacher-1", testSettings(), testQuestions(2))
		if err != nil {
			t.Fatal(err)
		}
		if seen[s.Code] {
			t.Fatalf("code %q issued twice among active sessions", s.Code)
		}
		seen[s.Code] = true
	}
}
