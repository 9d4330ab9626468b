package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Registry owns the live checkout sessions. Entering checkout always begins
// a new session; finished or idle sessions expire after the TTL.
type Registry struct {
	deps Deps
	ttl  time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry validates the shared collaborators once for every session.
func NewRegistry(deps Deps, ttl time.Duration) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		deps:     deps,
		ttl:      ttl,
		sessions: map[uuid.UUID]*Session{},
	}, nil
}

// Begin starts a fresh session at the cart step.
func (r *Registry) Begin(ctx context.Context) *Session {
	session := newSession(&r.deps)

	r.mu.Lock()
	r.sweepLocked()
	r.sessions[session.id] = session
	r.mu.Unlock()

	r.deps.Logger.Info(session.logCtx(ctx), "checkout session started")
	return session
}

// Get returns a live session.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	if r.expired(session) {
		delete(r.sessions, id)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session expired")
	}
	return session, nil
}

// End drops a session.
func (r *Registry) End(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep removes expired sessions and reports how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

// Len reports the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked() int {
	removed := 0
	for id, session := range r.sessions {
		if r.expired(session) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) expired(session *Session) bool {
	if session.inFlight.Load() {
		return false
	}
	return r.deps.Clock().Sub(session.lastActivity()) > r.ttl
}
