// Package session keeps per-session UI state (dialog handlers, open pages) between requests.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var NowFunc = time.Now // mockable

// Store holds JSON encoded values per session and key. A session expires `ttl` after its last write.
type Store interface {
	// Load decodes the value of `key` into dst. It reports false when there is none.
	Load(ctx context.Context, sid, key string, dst interface{}) (bool, error)
	Save(ctx context.Context, sid, key string, v interface{}) error
	Delete(ctx context.Context, sid, key string) error
	// Clear drops every value of the session.
	Clear(ctx context.Context, sid string) error
}

// NewID returns a new random session id.
func NewID() string {
	return uuid.NewString()
}

type (
	memEntry struct {
		values  map[string][]byte
		expires time.Time
	}

	// Memory is a Store for a single process (DEV, TEST, or when no redis is configured).
	Memory struct {
		ttl time.Duration

		mu       sync.Mutex
		sessions map[string]*memEntry
	}
)

var _ Store = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, sessions: make(map[string]*memEntry)}
}

// entry returns the live entry of `sid`, dropping it when expired.
func (m *Memory) entry(sid string) (*memEntry, bool) {
	e, ok := m.sessions[sid]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && NowFunc().After(e.expires) {
		delete(m.sessions, sid)
		return nil, false
	}
	return e, true
}

func (m *Memory) Load(_ context.Context, sid, key string, dst interface{}) (bool, error) {
	m.mu.Lock()
	var (
		b  []byte
		ok bool
	)
	if e, found := m.entry(sid); found {
		b, ok = e.values[key]
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, errors.Wrapf(err, "decoding session value %q", key)
	}
	return true, nil
}

func (m *Memory) Save(_ context.Context, sid, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding session value %q", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entry(sid)
	if !ok {
		e = &memEntry{values: make(map[string][]byte)}
		m.sessions[sid] = e
	}
	e.values[key] = b
	e.expires = NowFunc().Add(m.ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, sid, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entry(sid); ok {
		delete(e.values, key)
	}
	return nil
}

func (m *Memory) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	delete(m.sessions, sid)
	m.mu.Unlock()
	return nil
}
