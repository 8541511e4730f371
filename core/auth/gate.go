package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core"
)

type State string

// Gate states
const (
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// StateTTL is how long the state of a session that is not checked again is kept.
const StateTTL = 12 * time.Hour

type entry struct {
	state State
	seen  time.Time
}

// Gate tracks the auth state of every session and decides whether a request may proceed.
// It is created once at start and subscribed to the provider until Close.
type Gate struct {
	provider    Provider
	logger      core.Logger
	unsubscribe func()

	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	states    map[string]entry
	lastSweep time.Time
}

func NewGate(provider Provider, logger core.Logger) *Gate {
	g := &Gate{
		provider: provider,
		logger:   logger,
		ttl:      StateTTL,
		now:      time.Now,
		states:   make(map[string]entry),
	}
	g.unsubscribe = provider.OnAuthStateChange(g.onChange)
	return g
}

func (g *Gate) onChange(ev Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch ev.Kind {
	case SignedIn:
		g.put(ev.SessionID, StateAuthenticated)
	case SignedOut:
		delete(g.states, ev.SessionID)
	}
}

// State returns the last known state of a session; unknown sessions are unauthenticated.
func (g *Gate) State(sid string) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.states[sid]; ok && g.now().Sub(e.seen) < g.ttl {
		return e.state
	}
	return StateUnauthenticated
}

// Len returns the number of tracked sessions.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.states)
}

func (g *Gate) set(sid string, s State) {
	if sid == "" {
		return
	}
	g.mu.Lock()
	if s == StateUnauthenticated {
		delete(g.states, sid)
	} else {
		g.put(sid, s)
	}
	g.mu.Unlock()
}

// put stores a state and evicts idle sessions, at most once per ttl. g.mu must be held.
func (g *Gate) put(sid string, s State) {
	now := g.now()
	g.states[sid] = entry{state: s, seen: now}
	if now.Sub(g.lastSweep) < g.ttl {
		return
	}
	g.lastSweep = now
	for id, e := range g.states {
		if now.Sub(e.seen) >= g.ttl {
			delete(g.states, id)
		}
	}
}

// Check resolves `token` (of session `sid`, when known) through the provider.
// The session is `loading` until the provider answers.
func (g *Gate) Check(ctx context.Context, sid, token string) (Session, State) {
	g.set(sid, StateLoading)

	sess, err := g.provider.CurrentUser(ctx, token)
	if err != nil {
		cause := errors.Cause(err)
		if cause != ErrInvalidToken && cause != ErrAccountDeactivated {
			g.logger.Error("auth: resolving current user", err)
		}
		g.set(sid, StateUnauthenticated)
		return Session{}, StateUnauthenticated
	}
	if sid != "" && sid != sess.ID {
		g.set(sid, StateUnauthenticated)
	}
	g.set(sess.ID, StateAuthenticated)
	return sess, StateAuthenticated
}

// Close unsubscribes the gate from the provider.
func (g *Gate) Close() {
	g.unsubscribe()
}
