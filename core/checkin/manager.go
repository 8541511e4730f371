package checkin

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/notify"
)

var ErrUnknownKind = errors.New("unknown check-in kind")

// Manager keeps one workflow per session and kind.
type Manager struct {
	notifier  notify.Notifier
	newCamera func() Camera

	mu       sync.Mutex
	sessions map[string]map[Kind]*Workflow
}

func NewManager(notifier notify.Notifier, newCamera func() Camera) *Manager {
	return &Manager{
		notifier:  notifier,
		newCamera: newCamera,
		sessions:  make(map[string]map[Kind]*Workflow),
	}
}

// Workflow returns the workflow of session `sid` for `kind`, creating it with `cfg` on first use.
func (m *Manager) Workflow(sid string, kind Kind, cfg func() (Config, error)) (*Workflow, error) {
	if kind != KindEnrollment && kind != KindVolunteer {
		return nil, errors.Wrap(ErrUnknownKind, string(kind))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	workflows, ok := m.sessions[sid]
	if !ok {
		workflows = make(map[Kind]*Workflow, 2)
		m.sessions[sid] = workflows
	}
	if w, ok := workflows[kind]; ok {
		return w, nil
	}

	c, err := cfg()
	if err != nil {
		return nil, err
	}
	c.Kind = kind
	w := New(c, m.newCamera(), m.notifier)
	workflows[kind] = w
	return w, nil
}

// Teardown releases the workflows of a session (sign out, session expiry).
func (m *Manager) Teardown(sid string) {
	m.mu.Lock()
	workflows := m.sessions[sid]
	delete(m.sessions, sid)
	m.mu.Unlock()

	for _, w := range workflows {
		w.Teardown()
	}
}

// TeardownAll releases every workflow (server shutdown).
func (m *Manager) TeardownAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]map[Kind]*Workflow)
	m.mu.Unlock()

	for _, workflows := range sessions {
		for _, w := range workflows {
			w.Teardown()
		}
	}
}
