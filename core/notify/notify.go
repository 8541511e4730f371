// Package notify delivers transient user-visible notices ("toasts").
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/vanderidme15/vz-academias-sub001/core"
)

// Levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// maxPending bounds the notices kept per session between two page renders.
const maxPending = 20

type (
	Notice struct {
		Level   string    `json:"level"`
		Message string    `json:"message"`
		At      time.Time `json:"at"`
	}

	// Notifier fires notices for the session found in ctx.
	Notifier interface {
		Success(ctx context.Context, msg string)
		Error(ctx context.Context, msg string)
		Info(ctx context.Context, msg string)
	}

	// Inbox keeps the pending notices of every session until they are drained by a rendered page.
	Inbox struct {
		mu      sync.Mutex
		pending map[string][]Notice
		logger  core.Logger
	}

	ctxKey struct{}
)

var _ Notifier = (*Inbox)(nil)

func NewInbox(logger core.Logger) *Inbox {
	return &Inbox{
		pending: make(map[string][]Notice),
		logger:  logger,
	}
}

// WithSession returns a copy of ctx carrying the session id notices are addressed to.
func WithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sid)
}

// SessionFrom returns the session id carried by ctx, if any.
func SessionFrom(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(ctxKey{}).(string)
	return sid, ok && sid != ""
}

func (in *Inbox) Success(ctx context.Context, msg string) { in.push(ctx, LevelSuccess, msg) }
func (in *Inbox) Error(ctx context.Context, msg string)   { in.push(ctx, LevelError, msg) }
func (in *Inbox) Info(ctx context.Context, msg string)    { in.push(ctx, LevelInfo, msg) }

func (in *Inbox) push(ctx context.Context, level, msg string) {
	sid, ok := SessionFrom(ctx)
	if !ok {
		// nobody to show it to
		in.logger.Debug("notice without session: " + level + ": " + msg)
		return
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	notices := append(in.pending[sid], Notice{Level: level, Message: msg, At: time.Now().UTC()})
	if len(notices) > maxPending {
		notices = notices[len(notices)-maxPending:]
	}
	in.pending[sid] = notices
}

// Drain returns and forgets the pending notices of a session, oldest first.
func (in *Inbox) Drain(sid string) []Notice {
	in.mu.Lock()
	defer in.mu.Unlock()

	notices := in.pending[sid]
	delete(in.pending, sid)
	return notices
}

// Forget drops the pending notices of a session (e.g. on sign out).
func (in *Inbox) Forget(sid string) {
	in.mu.Lock()
	delete(in.pending, sid)
	in.mu.Unlock()
}
