// Package sqlxdb is the postgres backend.Client.
package sqlxdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
)

// DB runs the table-style CRUD contract against postgres. Only tables & columns of the schema are reachable.
type DB struct {
	db     *sqlx.DB
	schema backend.Schema
}

var _ backend.Client = (*DB)(nil)

func New(db *sqlx.DB, schema backend.Schema) *DB {
	return &DB{db: db, schema: schema}
}

func (db *DB) table(name string) (backend.TableSchema, error) {
	ts, ok := db.schema[name]
	if !ok {
		return backend.TableSchema{}, backend.NewUnknownError(nil, fmt.Sprintf("relation %q does not exist", name))
	}
	return ts, nil
}

// where builds the filters clause; args are numbered from `start`.
func where(ts backend.TableSchema, filters map[string]interface{}, start int) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, col := range sortedKeys(filters) {
		if _, ok := ts.Column(col); !ok {
			return "", nil, backend.NewUnknownError(nil, fmt.Sprintf("column %q does not exist", col))
		}
		args = append(args, filters[col])
		conds = append(conds, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), start+len(args)-1))
	}
	return strings.Join(conds, " AND "), args, nil
}

func orderBy(ts backend.TableSchema, ordering []core.DBOrdering) (string, error) {
	if len(ordering) == 0 {
		ordering = core.NewestFirst
	}
	parts := make([]string, 0, len(ordering)+1)
	for _, o := range ordering {
		if _, ok := ts.Column(o.Field); !ok {
			return "", backend.NewUnknownError(nil, fmt.Sprintf("column %q does not exist", o.Field))
		}
		ord := o
		ord.Field = pq.QuoteIdentifier(o.Field)
		parts = append(parts, ord.String())
	}
	parts = append(parts, "id") // stable order
	return strings.Join(parts, ", "), nil
}

func (db *DB) SelectAll(ctx context.Context, table string, opts backend.SelectOptions) ([]backend.Row, error) {
	ts, err := db.table(table)
	if err != nil {
		return nil, err
	}
	cond, args, err := where(ts, opts.Filters, 1)
	if err != nil {
		return nil, err
	}
	order, err := orderBy(ts, opts.Ordering)
	if err != nil {
		return nil, err
	}

	q := "SELECT * FROM " + pq.QuoteIdentifier(table)
	if cond != "" {
		q += " WHERE " + cond
	}
	q += " ORDER BY " + order

	rows, err := db.query(ctx, ts, q, args...)
	if err != nil {
		return nil, mapError(err, "selecting from "+table)
	}
	if err := db.expand(ctx, ts, rows, opts.Expand); err != nil {
		return nil, err
	}
	return rows, nil
}

func (db *DB) SelectByID(ctx context.Context, table, id string, opts backend.SelectOptions) (backend.Row, error) {
	ts, err := db.table(table)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, backend.ErrNotFound
	}
	cond, args, err := where(ts, opts.Filters, 2)
	if err != nil {
		return nil, err
	}

	q := "SELECT * FROM " + pq.QuoteIdentifier(table) + " WHERE id = $1"
	if cond != "" {
		q += " AND " + cond
	}
	return db.one(ctx, ts, opts.Expand, q, append([]interface{}{id}, args...)...)
}

func (db *DB) Insert(ctx context.Context, table string, values backend.Row, opts backend.SelectOptions) (backend.Row, error) {
	ts, err := db.table(table)
	if err != nil {
		return nil, err
	}
	w := ts.Writable(values)
	if len(w) == 0 {
		return nil, backend.NewValidationError("no values to insert", "")
	}

	cols := sortedKeys(w)
	names := make([]string, 0, len(cols))
	params := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for i, col := range cols {
		names = append(names, pq.QuoteIdentifier(col))
		params = append(params, "$"+strconv.Itoa(i+1))
		args = append(args, param(ts, col, w[col]))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		pq.QuoteIdentifier(table), strings.Join(names, ", "), strings.Join(params, ", "))
	return db.one(ctx, ts, opts.Expand, q, args...)
}

func (db *DB) Update(ctx context.Context, table, id string, values backend.Row, opts backend.SelectOptions) (backend.Row, error) {
	ts, err := db.table(table)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, backend.ErrNotFound
	}
	w := ts.Writable(values)

	cols := sortedKeys(w)
	sets := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		args = append(args, param(ts, col, w[col]))
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	cond, fargs, err := where(ts, opts.Filters, len(args)+1)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", pq.QuoteIdentifier(table), strings.Join(sets, ", "), len(args))
	if cond != "" {
		q += " AND " + cond
	}
	q += " RETURNING *"
	return db.one(ctx, ts, opts.Expand, q, append(args, fargs...)...)
}

func (db *DB) Delete(ctx context.Context, table, id string) error {
	if _, err := db.table(table); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return backend.ErrNotFound
	}

	res, err := db.db.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(table)+" WHERE id = $1", id)
	if err != nil {
		return mapError(err, "deleting from "+table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "deleting from "+table)
	}
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (db *DB) one(ctx context.Context, ts backend.TableSchema, expand []string, q string, args ...interface{}) (backend.Row, error) {
	rows, err := db.query(ctx, ts, q, args...)
	if err != nil {
		return nil, mapError(err, "querying "+ts.Name)
	}
	if len(rows) == 0 {
		return nil, backend.ErrNotFound
	}
	if err := db.expand(ctx, ts, rows[:1], expand); err != nil {
		return nil, err
	}
	return rows[0], nil
}

func (db *DB) query(ctx context.Context, ts backend.TableSchema, q string, args ...interface{}) ([]backend.Row, error) {
	rs, err := db.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rs.Close() }()

	rows := make([]backend.Row, 0)
	for rs.Next() {
		m := make(map[string]interface{})
		if err := rs.MapScan(m); err != nil {
			return nil, err
		}
		row, err := normalize(ts, m)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// expand embeds the referenced record of each requested relation (nil when missing).
func (db *DB) expand(ctx context.Context, ts backend.TableSchema, rows []backend.Row, relations []string) error {
	for _, name := range relations {
		rel, ok := ts.Relation(name)
		if !ok {
			continue
		}
		refTS, err := db.table(rel.Table)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			if id := row.String(rel.Column); id != "" {
				ids = append(ids, id)
			}
		}
		byID := make(map[string]backend.Row, len(ids))
		if len(ids) > 0 {
			refs, err := db.query(ctx, refTS, "SELECT * FROM "+pq.QuoteIdentifier(rel.Table)+" WHERE id = ANY($1)", pq.Array(ids))
			if err != nil {
				return mapError(err, "expanding "+name)
			}
			for _, ref := range refs {
				byID[ref.String(backend.ColumnID)] = ref
			}
		}

		for _, row := range rows {
			if ref, ok := byID[row.String(rel.Column)]; ok {
				row[name] = ref.Copy()
			} else {
				row[name] = nil
			}
		}
	}
	return nil
}

// param converts a value to what lib/pq can bind for the column.
func param(ts backend.TableSchema, col string, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	c, _ := ts.Column(col)
	switch c.Type {
	case backend.TypeJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	case backend.TypeText:
		if s, ok := v.(string); ok && s == "" && isReference(ts, col) {
			return nil // empty references are NULL
		}
	}
	return v
}

func isReference(ts backend.TableSchema, col string) bool {
	for _, rel := range ts.Relations {
		if rel.Column == col {
			return true
		}
	}
	return false
}

// normalize converts scanned values to the shape of the column type.
func normalize(ts backend.TableSchema, m map[string]interface{}) (backend.Row, error) {
	row := make(backend.Row, len(m))
	for k, v := range m {
		c, ok := ts.Column(k)
		if !ok {
			c = backend.Column{Name: k, Type: backend.TypeText}
		}
		nv, err := convert(c.Type, v)
		if err != nil {
			return nil, errors.Wrapf(err, "converting %s.%s", ts.Name, k)
		}
		row[k] = nv
	}
	return row, nil
}

func convert(typ string, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch typ {
	case backend.TypeNumber:
		switch n := v.(type) {
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		case []byte:
			return strconv.ParseFloat(string(n), 64)
		case string:
			return strconv.ParseFloat(n, 64)
		}
	case backend.TypeJSON:
		var b []byte
		switch j := v.(type) {
		case []byte:
			b = j
		case string:
			b = []byte(j)
		default:
			return v, nil
		}
		var out interface{}
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
		return out, nil
	case backend.TypeTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC(), nil
		}
	case backend.TypeText:
		if b, ok := v.([]byte); ok {
			return string(b), nil
		}
	}
	return v, nil
}

// mapError maps postgres integrity & data errors (classes 23 and 22) to validation errors.
func mapError(err error, msg string) error {
	if err == sql.ErrNoRows {
		return backend.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return backend.NewValidationError(pqErr.Message, pqErr.Code.Name())
		}
	}
	return backend.NewUnknownError(errors.Wrap(err, msg), msg)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
