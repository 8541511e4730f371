// Package store mirrors a backend table in an ordered in-memory list.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
)

// TenantColumn holds the academy a record belongs to.
const TenantColumn = "academy_id"

// Notices
const (
	MsgCreated   = "Registro creado correctamente"
	MsgUpdated   = "Registro actualizado correctamente"
	MsgDeleted   = "Registro eliminado correctamente"
	MsgCheckData = "verifica tus datos"
	MsgNotFound  = "El registro ya no existe"
	MsgInUse     = "No se puede eliminar: el registro está en uso"
)

// Audit actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type (
	// Entity is any record identified by a backend-assigned id.
	Entity interface {
		GetID() string
	}

	// Auditor records successful mutations. `before` is nil on create, `after` is nil on delete.
	Auditor interface {
		Record(ctx context.Context, entity, action, id string, before, after interface{})
	}

	Options[T Entity] struct {
		Table string
		Label string // plural, as shown to users ("profesores")

		Expand   []string
		Ordering []core.DBOrdering // default: core.NewestFirst
		// Sort is applied locally after every fetch, when the backend ordering is not enough.
		Sort func([]T)

		Tenant  string // academy id; empty means no scoping
		Auditor Auditor
	}

	// Store is the only mutator of its list. Failures are reported through the Notifier,
	// never returned: the list is a best-effort cache of the backend.
	Store[T Entity] struct {
		db       backend.Client
		notifier notify.Notifier
		opts     Options[T]

		mu      sync.RWMutex
		items   []T
		issued  atomic.Uint64
		applied uint64
	}
)

func New[T Entity](db backend.Client, notifier notify.Notifier, opts Options[T]) *Store[T] {
	if len(opts.Ordering) == 0 {
		opts.Ordering = core.NewestFirst
	}
	return &Store[T]{
		db:       db,
		notifier: notifier,
		opts:     opts,
		items:    make([]T, 0),
	}
}

func (s *Store[T]) Table() string { return s.opts.Table }
func (s *Store[T]) Label() string { return s.opts.Label }

// Items returns a copy of the current list.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]T, len(s.items))
	copy(items, s.items)
	return items
}

// Find looks `id` up in the current list, without calling the backend.
func (s *Store[T]) Find(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (s *Store[T]) selectOptions() backend.SelectOptions {
	opts := backend.SelectOptions{Expand: s.opts.Expand, Ordering: s.opts.Ordering}
	if s.opts.Tenant != "" {
		opts.Filters = map[string]interface{}{TenantColumn: s.opts.Tenant}
	}
	return opts
}

// FetchAll replaces the list with the backend's. A response issued before the last applied fetch
// or local mutation is dropped.
func (s *Store[T]) FetchAll(ctx context.Context) {
	seq := s.issued.Add(1)

	rows, err := s.db.SelectAll(ctx, s.opts.Table, s.selectOptions())
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("Error al cargar %s", s.opts.Label))
		return
	}
	items, err := decodeAll[T](rows)
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("Error al cargar %s", s.opts.Label))
		return
	}
	if s.opts.Sort != nil {
		s.opts.Sort(items)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		return // stale
	}
	s.applied = seq
	s.items = items
}

// FetchByID returns nil on not-found (silently) or on failure (with an error notice).
func (s *Store[T]) FetchByID(ctx context.Context, id string) *T {
	item, err := s.get(ctx, id)
	if err != nil {
		if !backend.IsNotFound(err) {
			s.notifier.Error(ctx, fmt.Sprintf("Error al obtener el registro de %s", s.opts.Label))
		}
		return nil
	}
	return &item
}

func (s *Store[T]) get(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, backend.ErrNotFound
	}
	row, err := s.db.SelectByID(ctx, s.opts.Table, id, s.selectOptions())
	if err != nil {
		return zero, err
	}
	return decode[T](row)
}

// Create inserts `values` and prepends the backend record to the list.
func (s *Store[T]) Create(ctx context.Context, values map[string]interface{}) *T {
	v := backend.Row(values).Copy()
	if s.opts.Tenant != "" {
		v[TenantColumn] = s.opts.Tenant
	}

	row, err := s.db.Insert(ctx, s.opts.Table, v, s.selectOptions())
	if err != nil {
		s.fail(ctx, "crear", err)
		return nil
	}
	item, err := decode[T](row)
	if err != nil {
		s.fail(ctx, "crear", err)
		return nil
	}

	s.mu.Lock()
	s.applied = s.issued.Add(1)
	s.items = append([]T{item}, s.items...)
	s.mu.Unlock()

	s.notifier.Success(ctx, MsgCreated)
	s.audit(ctx, ActionCreate, item.GetID(), nil, item)
	return &item
}

// Update merges `values` onto the record `id` and replaces it in place in the list.
func (s *Store[T]) Update(ctx context.Context, values map[string]interface{}, id string) *T {
	before, err := s.get(ctx, id)
	if err != nil {
		s.fail(ctx, "actualizar", err)
		return nil
	}

	v := backend.Row(values).Copy()
	delete(v, TenantColumn)

	row, err := s.db.Update(ctx, s.opts.Table, id, v, s.selectOptions())
	if err != nil {
		s.fail(ctx, "actualizar", err)
		return nil
	}
	item, err := decode[T](row)
	if err != nil {
		s.fail(ctx, "actualizar", err)
		return nil
	}

	s.mu.Lock()
	s.applied = s.issued.Add(1)
	for i := range s.items {
		if s.items[i].GetID() == id {
			s.items[i] = item
			break
		}
	}
	s.mu.Unlock()

	s.notifier.Success(ctx, MsgUpdated)
	s.audit(ctx, ActionUpdate, id, before, item)
	return &item
}

// Delete removes the record `id`. Deleting a record that no longer exists reports it and changes nothing.
func (s *Store[T]) Delete(ctx context.Context, id string) bool {
	before, err := s.get(ctx, id)
	if err != nil {
		s.fail(ctx, "eliminar", err)
		return false
	}

	if err := s.db.Delete(ctx, s.opts.Table, id); err != nil {
		s.fail(ctx, "eliminar", err)
		return false
	}

	s.mu.Lock()
	s.applied = s.issued.Add(1)
	for i := range s.items {
		if s.items[i].GetID() == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.notifier.Success(ctx, MsgDeleted)
	s.audit(ctx, ActionDelete, id, before, nil)
	return true
}

func (s *Store[T]) fail(ctx context.Context, verb string, err error) {
	switch {
	case backend.IsNotFound(err):
		s.notifier.Error(ctx, MsgNotFound)
	case backend.IsValidation(err) && verb == "eliminar":
		s.notifier.Error(ctx, MsgInUse)
	case backend.IsValidation(err):
		s.notifier.Error(ctx, fmt.Sprintf("Error al %s: %s", verb, MsgCheckData))
	default:
		s.notifier.Error(ctx, fmt.Sprintf("Error al %s el registro de %s", verb, s.opts.Label))
	}
}

func (s *Store[T]) audit(ctx context.Context, action, id string, before, after interface{}) {
	if s.opts.Auditor != nil {
		s.opts.Auditor.Record(ctx, s.opts.Table, action, id, before, after)
	}
}

func decode[T Entity](row backend.Row) (T, error) {
	var item T
	b, err := json.Marshal(row)
	if err != nil {
		return item, errors.Wrap(err, "marshalling row")
	}
	if err := json.Unmarshal(b, &item); err != nil {
		return item, errors.Wrap(err, "unmarshalling row")
	}
	return item, nil
}

func decodeAll[T Entity](rows []backend.Row) ([]T, error) {
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling rows")
	}
	items := make([]T, 0, len(rows))
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, errors.Wrap(err, "unmarshalling rows")
	}
	return items, nil
}
