package checkout

import (
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Registry keeps at most one checkout session per client session. Completed
// sessions are dropped so the next checkout starts fresh.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deps     Dependencies
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry builds a session registry. A ttl of zero disables expiry.
func NewRegistry(deps Dependencies, ttl time.Duration) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Policy.Name == "" {
		deps.Policy = pricing.CheckoutTaxPolicy()
	}
	return &Registry{
		sessions: map[string]*Session{},
		deps:     deps,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Begin returns the open checkout of the session, starting one when none
// exists or the previous one expired.
func (r *Registry) Begin(sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.liveLocked(sessionID); ok {
		return current, nil
	}
	sess := newSession(sessionID, r.deps, r.now)
	sess.onComplete = r.forget
	r.sessions[sessionID] = sess
	return sess, nil
}

// Get returns the open checkout of the session.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.liveLocked(sessionID); ok {
		return current, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
}

// Discard abandons the open checkout. A session with a payment in flight
// cannot be discarded; any other step is closed for good.
func (r *Registry) Discard(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	if !sess.discard() {
		return pkgerrors.New(pkgerrors.CodeCheckoutInProgress, "a payment is already being processed")
	}
	delete(r.sessions, sessionID)
	return nil
}

// Sweep drops sessions idle past the ttl and returns how many were removed.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, sess := range r.sessions {
		if sess.expire(now, r.ttl) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) liveLocked(sessionID string) (*Session, bool) {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if r.ttl > 0 && sess.expire(r.now(), r.ttl) {
		delete(r.sessions, sessionID)
		return nil, false
	}
	return sess, true
}

func (r *Registry) forget(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[sess.id]; ok && current == sess {
		delete(r.sessions, sess.id)
	}
}
