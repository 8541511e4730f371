// Package backend defines the table-style CRUD contract the dashboard stores talk to.
package backend

import (
	"context"

	"github.com/vanderidme15/vz-academias-sub001/core"
)

type (
	// Row is one record of a table, keyed by column (or expanded relation) name.
	Row map[string]interface{}

	SelectOptions struct {
		// Expand names the relations to resolve into embedded objects (e.g. "teacher").
		Expand []string
		// Ordering defaults to core.NewestFirst when empty.
		Ordering []core.DBOrdering
		// Filters are ANDed equality checks on columns.
		Filters map[string]interface{}
	}

	// Client is the remote backend surface. Failures are *Error values.
	Client interface {
		SelectAll(ctx context.Context, table string, opts SelectOptions) ([]Row, error)
		SelectByID(ctx context.Context, table, id string, opts SelectOptions) (Row, error)
		Insert(ctx context.Context, table string, values Row, opts SelectOptions) (Row, error)
		// Update merges `values` onto the row identified by `id`; omitted columns are left unchanged.
		Update(ctx context.Context, table, id string, values Row, opts SelectOptions) (Row, error)
		Delete(ctx context.Context, table, id string) error
	}
)

// String returns the value of `key` as a string ("" if missing or not a string).
func (r Row) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// Copy returns a shallow copy of the row.
func (r Row) Copy() Row {
	cp := make(Row, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// Opts builds SelectOptions from expanded relations.
func Opts(expand ...string) SelectOptions {
	return SelectOptions{Expand: expand}
}
