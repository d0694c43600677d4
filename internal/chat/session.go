package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTooManySessions is returned by Connect when the registry is full.
var ErrTooManySessions = errors.New("too many active sessions")

// DefaultMaxSessions bounds the registry when no limit is configured.
const DefaultMaxSessions = 10000

// Session is the transient conversation context of one connection.  It is
// created on connect and removed on disconnect; nothing in it is persisted.
// mu serializes message handling for the connection.
type Session struct {
	mu           sync.Mutex
	connID       string
	deviceID     string
	state        State
	lastAccepted time.Time
}

// registry owns every live Session, keyed by connection id.  Two
// connections for the same device get two independent sessions.
type registry struct {
	mu       sync.Mutex
	max      int
	sessions map[string]*Session
}

func newRegistry(max int) *registry {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &registry{max: max, sessions: make(map[string]*Session)}
}

func (r *registry) open(deviceID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.max {
		return nil, ErrTooManySessions
	}
	s := &Session{connID: uuid.NewString(), deviceID: deviceID, state: MainMenu{}}
	r.sessions[s.connID] = s
	return s, nil
}

func (r *registry) get(connID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	return s, ok
}

func (r *registry) close(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[connID]; !ok {
		return false
	}
	delete(r.sessions, connID)
	return true
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
