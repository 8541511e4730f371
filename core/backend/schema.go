package backend

import (
	"sort"
)

// Column types
const (
	TypeText   = "text"
	TypeNumber = "number"
	TypeBool   = "bool"
	TypeTime   = "time"
	TypeJSON   = "json" // arrays & objects
)

// Audit columns assigned by the backend.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

type (
	Column struct {
		Name string
		Type string
	}

	// Relation is a to-one reference resolved on demand (SelectOptions.Expand).
	Relation struct {
		Name   string // embedded key, e.g. "teacher"
		Column string // referencing column, e.g. "teacher_id"
		Table  string // referenced table
	}

	TableSchema struct {
		Name      string
		Columns   []Column // without the audit columns
		Relations []Relation
		Required  []string
	}

	// Schema is the set of tables a Client knows about.
	Schema map[string]TableSchema
)

func NewSchema(tables ...TableSchema) Schema {
	s := make(Schema, len(tables))
	for _, t := range tables {
		s[t.Name] = t
	}
	return s
}

// Merge returns a new Schema containing the tables of both schemas.
func (s Schema) Merge(other Schema) Schema {
	merged := make(Schema, len(s)+len(other))
	for name, t := range s {
		merged[name] = t
	}
	for name, t := range other {
		merged[name] = t
	}
	return merged
}

// Names returns the sorted table names.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t TableSchema) Column(name string) (Column, bool) {
	switch name {
	case ColumnID:
		return Column{Name: name, Type: TypeText}, true
	case ColumnCreatedAt, ColumnUpdatedAt:
		return Column{Name: name, Type: TypeTime}, true
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t TableSchema) Relation(name string) (Relation, bool) {
	for _, r := range t.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

func (t TableSchema) IsRequired(name string) bool {
	for _, r := range t.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Writable keeps the values of `values` that are known, non-audit columns.
func (t TableSchema) Writable(values Row) Row {
	w := make(Row, len(values))
	for k, v := range values {
		if k == ColumnID || k == ColumnCreatedAt || k == ColumnUpdatedAt {
			continue
		}
		if _, ok := t.Column(k); ok {
			w[k] = v
		}
	}
	return w
}

// IsBlank reports whether a value counts as missing for a required column.
func IsBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	return false
}
