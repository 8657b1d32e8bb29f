// Package session keeps per-session conversation history for the life of
// the process.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// DefaultHistoryPairs is the number of user/assistant pairs returned by History.
const DefaultHistoryPairs = 5

type conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// Store maps session ids to their turns. Every turn is kept, but History
// only returns the most recent pairs. Appends to one session are atomic;
// distinct sessions never contend beyond the map lookup.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*conversation
	maxTurns int
	now      func() time.Time
}

// NewStore creates an empty store returning at most historyPairs pairs per
// session. Non-positive values fall back to DefaultHistoryPairs.
func NewStore(historyPairs int) *Store {
	if historyPairs <= 0 {
		historyPairs = DefaultHistoryPairs
	}
	return &Store{
		sessions: make(map[string]*conversation),
		maxTurns: historyPairs * 2,
		now:      time.Now,
	}
}

// Create registers a new session with a random id and returns the id.
func (s *Store) Create() string {
	id := uuid.NewString()
	s.conversation(id)
	return id
}

// conversation returns the session for id, creating it if absent.
func (s *Store) conversation(id string) *conversation {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.sessions[id]; ok {
		return c
	}
	c = &conversation{}
	s.sessions[id] = c
	return c
}

// History returns the most recent turns of id in chronological order, or
// an empty slice for an unknown id. The result is a copy.
func (s *Store) History(id string) []Turn {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return []Turn{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	start := max(0, len(c.turns)-s.maxTurns)
	out := make([]Turn, len(c.turns)-start)
	copy(out, c.turns[start:])
	return out
}

// Append adds one turn to id, creating the session if needed.
func (s *Store) Append(id string, role Role, content string) {
	c := s.conversation(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{Role: role, Content: content, Timestamp: s.now()})
}

// AppendExchange adds a user turn followed by an assistant turn as one
// atomic step, so concurrent exchanges on one session never interleave.
func (s *Store) AppendExchange(id, question, reply string) {
	c := s.conversation(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	now := s.now()
	c.turns = append(c.turns,
		Turn{Role: RoleUser, Content: question, Timestamp: now},
		Turn{Role: RoleAssistant, Content: reply, Timestamp: now},
	)
}

// Reset empties the turns of id but keeps the session. Unknown ids are ignored.
func (s *Store) Reset(id string) {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}

// Exists reports whether id has been created.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Count returns the number of known sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
