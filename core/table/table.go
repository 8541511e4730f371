// Package table renders a store's list with column definitions and wires row actions to dialog handlers.
package table

import (
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/dialog"
)

type ActionKind string

// Row action kinds
const (
	ActionEdit   ActionKind = "edit"
	ActionDelete ActionKind = "delete"
	ActionCustom ActionKind = "custom"
)

var ErrUnknownAction = errors.New("unknown row action")

type (
	Column[T dialog.Item] struct {
		Key    string
		Header string
		Cell   func(T) string
		// Kind hints the renderer ("color", "badge", "money"); empty is plain text.
		Kind string
	}

	RowAction struct {
		Kind  ActionKind
		Name  string // custom action name, e.g. "asistencias"
		Label string
	}

	Cell struct {
		Key   string
		Value string
		Kind  string
	}

	Row struct {
		ID          string
		Description string
		Cells       []Cell
	}

	Table[T dialog.Item] struct {
		Columns []Column[T]
		Actions []RowAction
	}
)

// DefaultActions are the edit & delete actions every table has.
var DefaultActions = []RowAction{
	{Kind: ActionEdit, Label: "Editar"},
	{Kind: ActionDelete, Label: "Eliminar"},
}

func New[T dialog.Item](columns []Column[T], custom ...RowAction) *Table[T] {
	actions := make([]RowAction, 0, len(DefaultActions)+len(custom))
	actions = append(actions, DefaultActions...)
	actions = append(actions, custom...)
	return &Table[T]{Columns: columns, Actions: actions}
}

func (t *Table[T]) Headers() []string {
	headers := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		headers = append(headers, c.Header)
	}
	return headers
}

// Rows renders one row per item, in list order.
func (t *Table[T]) Rows(items []T) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row := Row{ID: item.GetID(), Description: dialog.Describe(item), Cells: make([]Cell, 0, len(t.Columns))}
		for _, c := range t.Columns {
			var val string
			if c.Cell != nil {
				val = c.Cell(item)
			}
			row.Cells = append(row.Cells, Cell{Key: c.Key, Value: val, Kind: c.Kind})
		}
		rows = append(rows, row)
	}
	return rows
}

// Action returns the row action of `kind` (and `name` for custom actions).
func (t *Table[T]) Action(kind ActionKind, name string) (RowAction, bool) {
	for _, a := range t.Actions {
		if a.Kind == kind && (kind != ActionCustom || a.Name == name) {
			return a, true
		}
	}
	return RowAction{}, false
}

// Trigger applies a row action on `item` to the dialog handlers.
func Trigger[T dialog.Item](h *dialog.Handlers[T], item T, action RowAction) error {
	switch action.Kind {
	case ActionEdit:
		h.OpenEdit(item)
	case ActionDelete:
		h.OpenDelete(item)
	case ActionCustom:
		h.OpenCustom(item, action.Name)
	default:
		return errors.Wrap(ErrUnknownAction, string(action.Kind))
	}
	return nil
}
