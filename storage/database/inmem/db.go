// Package inmemdb is an in-memory backend.Client used in DEV and TEST modes.
package inmemdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
)

var NowFunc = time.Now // mockable

type (
	record struct {
		seq int
		row backend.Row
	}

	table struct {
		schema backend.TableSchema
		rows   map[string]*record
	}

	DB struct {
		mu     sync.RWMutex
		seq    int
		tables map[string]*table
	}
)

var _ backend.Client = (*DB)(nil)

func Open(schema backend.Schema) *DB {
	db := &DB{tables: make(map[string]*table, len(schema))}
	for name, ts := range schema {
		db.tables[name] = &table{schema: ts, rows: make(map[string]*record)}
	}
	return db
}

func (db *DB) table(name string) (*table, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, backend.NewUnknownError(nil, fmt.Sprintf("relation %q does not exist", name))
	}
	return t, nil
}

func (db *DB) SelectAll(_ context.Context, tableName string, opts backend.SelectOptions) ([]backend.Row, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	t, err := db.table(tableName)
	if err != nil {
		return nil, err
	}

	recs := make([]*record, 0, len(t.rows))
	for _, rec := range t.rows {
		if matches(rec.row, opts.Filters) {
			recs = append(recs, rec)
		}
	}
	ordering := opts.Ordering
	if len(ordering) == 0 {
		ordering = core.NewestFirst
	}
	sortRecords(recs, ordering)

	rows := make([]backend.Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, db.expand(t, rec.row, opts.Expand))
	}
	return rows, nil
}

func (db *DB) SelectByID(_ context.Context, tableName, id string, opts backend.SelectOptions) (backend.Row, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	t, err := db.table(tableName)
	if err != nil {
		return nil, err
	}
	rec, ok := t.rows[id]
	if !ok || !matches(rec.row, opts.Filters) {
		return nil, backend.ErrNotFound
	}
	return db.expand(t, rec.row, opts.Expand), nil
}

func (db *DB) Insert(_ context.Context, tableName string, values backend.Row, opts backend.SelectOptions) (backend.Row, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, err := db.table(tableName)
	if err != nil {
		return nil, err
	}

	row := normalize(t.schema.Writable(values))
	if err := db.check(t, row, true); err != nil {
		return nil, err
	}

	now := NowFunc().UTC()
	row[backend.ColumnID] = uuid.New().String()
	row[backend.ColumnCreatedAt] = now
	row[backend.ColumnUpdatedAt] = now

	db.seq++
	t.rows[row.String(backend.ColumnID)] = &record{seq: db.seq, row: row}
	return db.expand(t, row, opts.Expand), nil
}

func (db *DB) Update(_ context.Context, tableName, id string, values backend.Row, opts backend.SelectOptions) (backend.Row, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, err := db.table(tableName)
	if err != nil {
		return nil, err
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, backend.ErrNotFound
	}

	row := rec.row.Copy()
	for k, v := range normalize(t.schema.Writable(values)) {
		row[k] = v
	}
	if err := db.check(t, row, false); err != nil {
		return nil, err
	}
	row[backend.ColumnUpdatedAt] = NowFunc().UTC()

	rec.row = row
	return db.expand(t, row, opts.Expand), nil
}

func (db *DB) Delete(_ context.Context, tableName, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, err := db.table(tableName)
	if err != nil {
		return err
	}
	if _, ok := t.rows[id]; !ok {
		return backend.ErrNotFound
	}

	// foreign keys are RESTRICT
	for _, other := range db.tables {
		for _, rel := range other.schema.Relations {
			if rel.Table != tableName {
				continue
			}
			for _, rec := range other.rows {
				if rec.row.String(rel.Column) == id {
					return backend.NewValidationError(
						fmt.Sprintf("%q is still referenced from table %q", id, other.schema.Name),
						"foreign_key_violation",
					)
				}
			}
		}
	}

	delete(t.rows, id)
	return nil
}

// check enforces the constraints a relational backend would: NOT NULL, types and foreign keys.
func (db *DB) check(t *table, row backend.Row, creating bool) error {
	for _, name := range t.schema.Required {
		if v, ok := row[name]; (creating || ok) && backend.IsBlank(v) {
			return backend.NewValidationError(fmt.Sprintf("null value in column %q", name), "not_null_violation")
		}
	}

	for k, v := range row {
		col, _ := t.schema.Column(k)
		if v == nil {
			continue
		}
		if !hasType(v, col.Type) {
			return backend.NewValidationError(fmt.Sprintf("invalid input for column %q: %v", k, v), "invalid_text_representation")
		}
	}

	for _, rel := range t.schema.Relations {
		ref := row.String(rel.Column)
		if ref == "" {
			continue
		}
		refTable, err := db.table(rel.Table)
		if err != nil {
			return err
		}
		if _, ok := refTable.rows[ref]; !ok {
			return backend.NewValidationError(
				fmt.Sprintf("key (%s)=(%s) is not present in table %q", rel.Column, ref, rel.Table),
				"foreign_key_violation",
			)
		}
	}
	return nil
}

func (db *DB) expand(t *table, row backend.Row, relations []string) backend.Row {
	out := row.Copy()
	for _, name := range relations {
		rel, ok := t.schema.Relation(name)
		if !ok {
			continue
		}
		out[name] = nil
		if refTable, ok := db.tables[rel.Table]; ok {
			if ref, ok := refTable.rows[row.String(rel.Column)]; ok {
				out[name] = ref.row.Copy()
			}
		}
	}
	return out
}

// normalize converts typed Go values (ints, slices of strings, structs...) to their JSON shape,
// the same shape rows come back from a relational backend.
func normalize(values backend.Row) backend.Row {
	out := make(backend.Row, len(values))
	for k, v := range values {
		switch v.(type) {
		case nil, string, bool, float64, time.Time:
			out[k] = v
		default:
			var generic interface{}
			if b, err := json.Marshal(v); err == nil && json.Unmarshal(b, &generic) == nil {
				out[k] = generic
			} else {
				out[k] = v
			}
		}
	}
	return out
}

func hasType(v interface{}, typ string) bool {
	switch typ {
	case backend.TypeNumber:
		_, ok := v.(float64)
		return ok
	case backend.TypeBool:
		_, ok := v.(bool)
		return ok
	case backend.TypeText:
		_, ok := v.(string)
		return ok
	case backend.TypeTime:
		switch v.(type) {
		case time.Time, string:
			return true
		}
		return false
	}
	return true
}

func matches(row backend.Row, filters map[string]interface{}) bool {
	for k, want := range filters {
		if fmt.Sprint(row[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func sortRecords(recs []*record, ordering []core.DBOrdering) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, o := range ordering {
			c := compare(recs[i].row[o.Field], recs[j].row[o.Field])
			if c == 0 && o.Field == backend.ColumnCreatedAt {
				c = recs[i].seq - recs[j].seq
			}
			if c == 0 {
				continue
			}
			if o.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			}
			return 0
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok && av != bv {
			if !av {
				return -1
			}
			return 1
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
