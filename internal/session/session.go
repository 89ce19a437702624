// Package session keeps per-conversation turn history for display,
// /sources and follow-up retrieval. Sessions share the read-only index but
// never each other's history. Turns are not replayed to the model.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"faqbot/internal/domain"
	"faqbot/internal/llm"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    string
	Content string
	Sources []domain.SourceRef
	At      time.Time
}

// Session is an append-only conversation history.
type Session struct {
	mu    sync.Mutex
	id    uuid.UUID
	turns []Turn
}

// New starts an empty session with a fresh ID.
func New() *Session {
	return &Session{id: uuid.New()}
}

// ID identifies the session.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// AddUser appends a user turn.
func (s *Session) AddUser(content string) {
	s.append(Turn{Role: llm.RoleUser, Content: content})
}

// AddAssistant appends an assistant turn with the sources it cited.
func (s *Session) AddAssistant(content string, sources []domain.SourceRef) {
	s.append(Turn{Role: llm.RoleAssistant, Content: content, Sources: sources})
}

func (s *Session) append(t Turn) {
	t.At = time.Now()
	s.mu.Lock()
	s.turns = append(s.turns, t)
	s.mu.Unlock()
}

// Turns returns a copy of the history.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// LastSources returns the sources of the most recent assistant turn.
func (s *Session) LastSources() []domain.SourceRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == llm.RoleAssistant {
			return s.turns[i].Sources
		}
	}
	return nil
}

// LastQuestion returns the most recent user turn, or "" when there is none.
func (s *Session) LastQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == llm.RoleUser {
			return s.turns[i].Content
		}
	}
	return ""
}

// Reset discards the history and assigns a new ID.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.New()
	s.turns = nil
}
