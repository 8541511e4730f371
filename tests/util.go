// Package testutil holds the fixtures shared by package tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
	"github.com/vanderidme15/vz-academias-sub001/storage/database/backendrepos"
	"github.com/vanderidme15/vz-academias-sub001/storage/database/inmem"
)

// Logger is a core.Logger writing to the test log.
type Logger struct {
	t testing.TB
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger { return &Logger{t: t} }

func (l *Logger) log(level, msg string, args []interface{}) {
	l.t.Helper()
	l.t.Logf("%s: %s %v", level, msg, args)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.t.Helper()
	l.t.Fatalf("FATAL: %s %v", msg, args)
}

// Notifier records every notice, regardless of the session.
type Notifier struct {
	mu      sync.Mutex
	Notices []notify.Notice
}

var _ notify.Notifier = (*Notifier)(nil)

func (n *Notifier) add(level, msg string) {
	n.mu.Lock()
	n.Notices = append(n.Notices, notify.Notice{Level: level, Message: msg})
	n.mu.Unlock()
}

func (n *Notifier) Success(_ context.Context, msg string) { n.add(notify.LevelSuccess, msg) }
func (n *Notifier) Error(_ context.Context, msg string)   { n.add(notify.LevelError, msg) }
func (n *Notifier) Info(_ context.Context, msg string)    { n.add(notify.LevelInfo, msg) }

// Levels returns the levels of the recorded notices, in order.
func (n *Notifier) Levels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	levels := make([]string, 0, len(n.Notices))
	for _, notice := range n.Notices {
		levels = append(levels, notice.Level)
	}
	return levels
}

// Last returns the last recorded notice.
func (n *Notifier) Last() notify.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Notices) == 0 {
		return notify.Notice{}
	}
	return n.Notices[len(n.Notices)-1]
}

func (n *Notifier) Reset() {
	n.mu.Lock()
	n.Notices = nil
	n.mu.Unlock()
}

// FailingClient is a backend.Client whose calls fail with Err once Fail is set.
type FailingClient struct {
	backend.Client
	mu   sync.Mutex
	Fail bool
	Err  error
}

func (c *FailingClient) SetFail(fail bool) {
	c.mu.Lock()
	c.Fail = fail
	c.mu.Unlock()
}

func (c *FailingClient) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Fail {
		return nil
	}
	if c.Err != nil {
		return c.Err
	}
	return backend.NewUnknownError(nil, "connection refused")
}

func (c *FailingClient) SelectAll(ctx context.Context, table string, opts backend.SelectOptions) ([]backend.Row, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	return c.Client.SelectAll(ctx, table, opts)
}

func (c *FailingClient) SelectByID(ctx context.Context, table, id string, opts backend.SelectOptions) (backend.Row, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	return c.Client.SelectByID(ctx, table, id, opts)
}

func (c *FailingClient) Insert(ctx context.Context, table string, values backend.Row, opts backend.SelectOptions) (backend.Row, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	return c.Client.Insert(ctx, table, values, opts)
}

func (c *FailingClient) Update(ctx context.Context, table, id string, values backend.Row, opts backend.SelectOptions) (backend.Row, error) {
	if err := c.err(); err != nil {
		return nil, err
	}
	return c.Client.Update(ctx, table, id, values, opts)
}

func (c *FailingClient) Delete(ctx context.Context, table, id string) error {
	if err := c.err(); err != nil {
		return err
	}
	return c.Client.Delete(ctx, table, id)
}

// NewUserDB returns an in-memory backend holding the users table (plus the given tables).
func NewUserDB(tables ...backend.TableSchema) *inmemdb.DB {
	return inmemdb.Open(backend.NewSchema(append(tables, backendrepos.UserTable)...))
}

// CreateUser creates an active user directly through the repository.
func CreateUser(
	t testing.TB,
	repo user.Repository,
	academyID, name, uname, email, pwd string,
	roles []string,
) user.User {
	t.Helper()
	usr := user.User{
		AcademyID: academyID,
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  true,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
