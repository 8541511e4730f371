package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/store"
	"github.com/vanderidme15/vz-academias-sub001/storage/database/inmem"
	"github.com/vanderidme15/vz-academias-sub001/tests"
)

type teacher struct {
	ID        string    `json:"id"`
	AcademyID string    `json:"academy_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t teacher) GetID() string { return t.ID }

var teacherTable = backend.TableSchema{
	Name: "teachers",
	Columns: []backend.Column{
		{Name: "academy_id", Type: backend.TypeText},
		{Name: "name", Type: backend.TypeText},
		{Name: "email", Type: backend.TypeText},
		{Name: "phone", Type: backend.TypeText},
	},
	Required: []string{"academy_id", "name"},
}

type auditEntry struct {
	action, id    string
	before, after interface{}
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAuditor) Record(_ context.Context, _, action, id string, before, after interface{}) {
	a.mu.Lock()
	a.entries = append(a.entries, auditEntry{action: action, id: id, before: before, after: after})
	a.mu.Unlock()
}

func setup(t *testing.T, tenant string, db backend.Client) (*store.Store[teacher], *testutil.Notifier) {
	t.Helper()
	if db == nil {
		db = inmemdb.Open(backend.NewSchema(teacherTable))
	}
	notifier := new(testutil.Notifier)
	s := store.New[teacher](db, notifier, store.Options[teacher]{
		Table:  "teachers",
		Label:  "profesores",
		Tenant: tenant,
	})
	return s, notifier
}

func TestStore_CreateThenFetchByID(t *testing.T) {
	s, notifier := setup(t, "acad", nil)
	ctx := context.Background()

	created := s.Create(ctx, map[string]interface{}{"name": "Ana Torres", "email": "ana@academia.pe"})
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "acad", created.AcademyID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, []string{notify.LevelSuccess}, notifier.Levels())

	fetched := s.FetchByID(ctx, created.ID)
	require.NotNil(t, fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Email, fetched.Email)
	assert.True(t, created.CreatedAt.Equal(fetched.CreatedAt))
	assert.True(t, created.UpdatedAt.Equal(fetched.UpdatedAt))
}

func TestStore_CreatePrepends(t *testing.T) {
	s, _ := setup(t, "acad", nil)
	ctx := context.Background()

	first := s.Create(ctx, map[string]interface{}{"name": "Ana"})
	second := s.Create(ctx, map[string]interface{}{"name": "Luis"})
	require.NotNil(t, first)
	require.NotNil(t, second)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)

	// newest first from the backend too
	s.FetchAll(ctx)
	items = s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
}

func TestStore_CreateValidationRejected(t *testing.T) {
	s, notifier := setup(t, "acad", nil)

	created := s.Create(context.Background(), map[string]interface{}{"email": "sin-nombre@academia.pe"})
	assert.Nil(t, created)
	assert.Empty(t, s.Items())
	assert.Equal(t, notify.LevelError, notifier.Last().Level)
	assert.Contains(t, notifier.Last().Message, store.MsgCheckData)
}

func TestStore_CreateUnknownFailure(t *testing.T) {
	db := &testutil.FailingClient{Client: inmemdb.Open(backend.NewSchema(teacherTable)), Fail: true}
	s, notifier := setup(t, "acad", db)

	assert.Nil(t, s.Create(context.Background(), map[string]interface{}{"name": "Ana"}))
	assert.Empty(t, s.Items())
	assert.Equal(t, notify.LevelError, notifier.Last().Level)
	assert.NotContains(t, notifier.Last().Message, store.MsgCheckData)
	assert.Contains(t, notifier.Last().Message, "profesores")
}

func TestStore_DeleteTwice(t *testing.T) {
	s, notifier := setup(t, "acad", nil)
	ctx := context.Background()

	keep := s.Create(ctx, map[string]interface{}{"name": "Ana"})
	gone := s.Create(ctx, map[string]interface{}{"name": "Luis"})
	require.NotNil(t, keep)
	require.NotNil(t, gone)

	assert.True(t, s.Delete(ctx, gone.ID))
	assert.Equal(t, []teacher{*keep}, s.Items())

	notifier.Reset()
	assert.False(t, s.Delete(ctx, gone.ID))
	assert.Equal(t, []string{notify.LevelError}, notifier.Levels())
	assert.Equal(t, store.MsgNotFound, notifier.Last().Message)
	assert.Equal(t, []teacher{*keep}, s.Items(), "list must be left intact")
	assert.Nil(t, s.FetchByID(ctx, gone.ID))
}

func TestStore_UpdateMergesAndKeepsOrder(t *testing.T) {
	s, _ := setup(t, "acad", nil)
	ctx := context.Background()

	a := s.Create(ctx, map[string]interface{}{"name": "Ana", "email": "ana@academia.pe", "phone": "999111222"})
	b := s.Create(ctx, map[string]interface{}{"name": "Luis"})
	require.NotNil(t, a)
	require.NotNil(t, b)

	updated := s.Update(ctx, map[string]interface{}{"phone": "988777666"}, a.ID)
	require.NotNil(t, updated)

	fetched := s.FetchByID(ctx, a.ID)
	require.NotNil(t, fetched)
	assert.Equal(t, "988777666", fetched.Phone)
	assert.Equal(t, "Ana", fetched.Name, "omitted fields are unchanged")
	assert.Equal(t, "ana@academia.pe", fetched.Email)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
	assert.Equal(t, "988777666", items[1].Phone)
}

func TestStore_UpdateFailureLeavesList(t *testing.T) {
	s, notifier := setup(t, "acad", nil)
	ctx := context.Background()

	a := s.Create(ctx, map[string]interface{}{"name": "Ana"})
	require.NotNil(t, a)
	before := s.Items()

	assert.Nil(t, s.Update(ctx, map[string]interface{}{"name": ""}, a.ID))
	assert.Contains(t, notifier.Last().Message, store.MsgCheckData)
	assert.Equal(t, before, s.Items())

	assert.Nil(t, s.Update(ctx, map[string]interface{}{"name": "X"}, "missing"))
	assert.Equal(t, store.MsgNotFound, notifier.Last().Message)
	assert.Equal(t, before, s.Items())
}

func TestStore_FetchAllFailureKeepsList(t *testing.T) {
	db := &testutil.FailingClient{Client: inmemdb.Open(backend.NewSchema(teacherTable))}
	s, notifier := setup(t, "acad", db)
	ctx := context.Background()

	require.NotNil(t, s.Create(ctx, map[string]interface{}{"name": "Ana"}))
	s.FetchAll(ctx)
	before := s.Items()
	require.Len(t, before, 1)

	db.SetFail(true)
	notifier.Reset()
	s.FetchAll(ctx)
	assert.Equal(t, before, s.Items())
	assert.Equal(t, []string{notify.LevelError}, notifier.Levels())

	assert.Nil(t, s.FetchByID(ctx, before[0].ID))
	assert.Equal(t, []string{notify.LevelError, notify.LevelError}, notifier.Levels(), "fetch by id reports failures")
}

func TestStore_FetchByIDNotFoundIsSilent(t *testing.T) {
	s, notifier := setup(t, "acad", nil)
	assert.Nil(t, s.FetchByID(context.Background(), "nope"))
	assert.Nil(t, s.FetchByID(context.Background(), ""))
	assert.Empty(t, notifier.Levels())
}

func TestStore_TenantScoping(t *testing.T) {
	db := inmemdb.Open(backend.NewSchema(teacherTable))
	a, _ := setup(t, "acad-a", db)
	b, notifierB := setup(t, "acad-b", db)
	ctx := context.Background()

	ana := a.Create(ctx, map[string]interface{}{"name": "Ana"})
	require.NotNil(t, ana)

	b.FetchAll(ctx)
	assert.Empty(t, b.Items())
	assert.Nil(t, b.FetchByID(ctx, ana.ID))
	assert.False(t, b.Delete(ctx, ana.ID))
	assert.Equal(t, store.MsgNotFound, notifierB.Last().Message)

	// the tenant of a record cannot be moved
	updated := a.Update(ctx, map[string]interface{}{"academy_id": "acad-b", "name": "Ana T."}, ana.ID)
	require.NotNil(t, updated)
	assert.Equal(t, "acad-a", updated.AcademyID)
}

func TestStore_Audit(t *testing.T) {
	auditor := new(recordingAuditor)
	s := store.New[teacher](inmemdb.Open(backend.NewSchema(teacherTable)), new(testutil.Notifier), store.Options[teacher]{
		Table:   "teachers",
		Label:   "profesores",
		Tenant:  "acad",
		Auditor: auditor,
	})
	ctx := context.Background()

	ana := s.Create(ctx, map[string]interface{}{"name": "Ana"})
	require.NotNil(t, ana)
	require.NotNil(t, s.Update(ctx, map[string]interface{}{"name": "Ana T."}, ana.ID))
	require.True(t, s.Delete(ctx, ana.ID))
	assert.Nil(t, s.Create(ctx, map[string]interface{}{}), "failed mutations are not audited")

	require.Len(t, auditor.entries, 3)
	assert.Equal(t, store.ActionCreate, auditor.entries[0].action)
	assert.Nil(t, auditor.entries[0].before)
	assert.Equal(t, store.ActionUpdate, auditor.entries[1].action)
	assert.Equal(t, "Ana", auditor.entries[1].before.(teacher).Name)
	assert.Equal(t, "Ana T.", auditor.entries[1].after.(teacher).Name)
	assert.Equal(t, store.ActionDelete, auditor.entries[2].action)
	assert.Nil(t, auditor.entries[2].after)
}

// gatedClient blocks the first SelectAll until released.
type gatedClient struct {
	backend.Client
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (c *gatedClient) SelectAll(ctx context.Context, table string, opts backend.SelectOptions) ([]backend.Row, error) {
	c.mu.Lock()
	c.calls++
	first := c.calls == 1
	c.mu.Unlock()

	if first {
		rows, err := c.Client.SelectAll(ctx, table, opts) // snapshot taken before the wait
		close(c.entered)
		<-c.release
		return rows, err
	}
	return c.Client.SelectAll(ctx, table, opts)
}

func TestStore_StaleFetchDiscarded(t *testing.T) {
	inner := inmemdb.Open(backend.NewSchema(teacherTable))
	db := &gatedClient{Client: inner, entered: make(chan struct{}), release: make(chan struct{})}
	s, _ := setup(t, "acad", db)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		s.FetchAll(ctx) // slow, sees an empty table
		close(done)
	}()
	<-db.entered

	_, err := inner.Insert(ctx, "teachers", backend.Row{"academy_id": "acad", "name": "Ana"}, backend.SelectOptions{})
	require.NoError(t, err)
	s.FetchAll(ctx) // fast, sees Ana
	require.Len(t, s.Items(), 1)

	close(db.release)
	<-done
	assert.Len(t, s.Items(), 1, "the older response must be dropped")
}

func TestStore_FetchIssuedBeforeCreateKeepsCreated(t *testing.T) {
	inner := inmemdb.Open(backend.NewSchema(teacherTable))
	db := &gatedClient{Client: inner, entered: make(chan struct{}), release: make(chan struct{})}
	s, _ := setup(t, "acad", db)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		s.FetchAll(ctx) // slow, sees an empty table
		close(done)
	}()
	<-db.entered

	ana := s.Create(ctx, map[string]interface{}{"name": "Ana"})
	require.NotNil(t, ana)

	close(db.release)
	<-done
	items := s.Items()
	require.Len(t, items, 1, "a fetch issued before the create must not drop it")
	assert.Equal(t, ana.ID, items[0].ID)

	s.FetchAll(ctx)
	assert.Len(t, s.Items(), 1)
}

func TestStore_FetchIssuedBeforeDeleteDoesNotRestore(t *testing.T) {
	inner := inmemdb.Open(backend.NewSchema(teacherTable))
	_, err := inner.Insert(context.Background(), "teachers", backend.Row{"academy_id": "acad", "name": "Ana"}, backend.SelectOptions{})
	require.NoError(t, err)
	db := &gatedClient{Client: inner, entered: make(chan struct{}), release: make(chan struct{})}
	s, _ := setup(t, "acad", db)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		s.FetchAll(ctx) // slow, sees Ana
		close(done)
	}()
	<-db.entered

	s.FetchAll(ctx)
	require.Len(t, s.Items(), 1)
	require.True(t, s.Delete(ctx, s.Items()[0].ID))

	close(db.release)
	<-done
	assert.Empty(t, s.Items(), "a fetch issued before the delete must not restore the record")
}
