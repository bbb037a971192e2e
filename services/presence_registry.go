package services

import (
	"errors"
	"sort"
	"sync"

	"socialhub/metrics"
	"socialhub/utils"

	"github.com/rs/zerolog"
)

// ErrSessionClosed is returned by Session.Emit once the connection is gone.
var ErrSessionClosed = errors.New("session closed")

// Session is a live, push-capable connection owned by one user.
type Session interface {
	ID() string
	UserID() string
	Emit(event string, payload interface{}) error
}

// PresenceRegistry tracks which sessions are live for each user. A user may
// hold any number of sessions at once (tabs, devices).
type PresenceRegistry struct {
	mu       sync.RWMutex
	byUser   map[string]map[string]Session
	sessions map[string]string // session id -> owning user id
	logger   zerolog.Logger
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byUser:   make(map[string]map[string]Session),
		sessions: make(map[string]string),
		logger:   utils.Logger("presence"),
	}
}

// Register associates session with userID. Registering a handle that is
// already present under the same user has no effect; under another user the
// handle moves.
func (r *PresenceRegistry) Register(userID string, session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID := session.ID()
	if owner, ok := r.sessions[sessionID]; ok && owner != userID {
		r.removeLocked(sessionID)
	}

	userSessions, ok := r.byUser[userID]
	if !ok {
		userSessions = make(map[string]Session)
		r.byUser[userID] = userSessions
	}
	userSessions[sessionID] = session
	r.sessions[sessionID] = userID

	r.publishGaugesLocked()
	r.logger.Debug().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Int("user_sessions", len(userSessions)).
		Msg("session registered")
}

// Unregister removes session wherever it is registered. Unknown handles are ignored.
func (r *PresenceRegistry) Unregister(session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID := session.ID()
	userID, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	r.removeLocked(sessionID)
	r.publishGaugesLocked()

	r.logger.Debug().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Msg("session unregistered")
}

func (r *PresenceRegistry) removeLocked(sessionID string) {
	userID := r.sessions[sessionID]
	delete(r.sessions, sessionID)

	userSessions := r.byUser[userID]
	delete(userSessions, sessionID)
	if len(userSessions) == 0 {
		delete(r.byUser, userID)
	}
}

func (r *PresenceRegistry) publishGaugesLocked() {
	metrics.PresenceSessions.Set(float64(len(r.sessions)))
	metrics.PresenceUsers.Set(float64(len(r.byUser)))
}

// IsOnline reports whether userID has at least one live session.
func (r *PresenceRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// SessionsFor returns a snapshot of the live sessions of userID ordered by
// session id. The result is empty for unknown users.
func (r *PresenceRegistry) SessionsFor(userID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userSessions := r.byUser[userID]
	out := make([]Session, 0, len(userSessions))
	for _, s := range userSessions {
		out = append(out, s)
	}
	sortSessions(out)
	return out
}

// AllSessions returns a snapshot of every live session ordered by session id.
func (r *PresenceRegistry) AllSessions() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.sessions))
	for _, userSessions := range r.byUser {
		for _, s := range userSessions {
			out = append(out, s)
		}
	}
	sortSessions(out)
	return out
}

// Count returns the number of live sessions.
func (r *PresenceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// OnlineUsers returns the number of users with at least one live session.
func (r *PresenceRegistry) OnlineUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func sortSessions(sessions []Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ID() < sessions[j].ID()
	})
}
