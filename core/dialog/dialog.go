// Package dialog holds the UI state shared by a list, its create/edit dialog and its delete confirmation.
package dialog

import (
	"context"
	"fmt"

	"github.com/volatiletech/null/v8"
)

type (
	// Display holds the attributes a record can be described by. The first valid one wins.
	Display struct {
		Name        null.String
		Amount      null.Float64
		Title       null.String
		Description null.String
	}

	// Item is what the generic dialog plumbing needs from a record.
	Item interface {
		GetID() string
		DisplayFields() Display
	}

	// Handlers is the session-scoped dialog state of one page.
	// SelectedItem is non-nil only while one of the two dialogs is open.
	Handlers[T Item] struct {
		OpenDialog       bool    `json:"open_dialog"`
		OpenDialogDelete bool    `json:"open_dialog_delete"`
		SelectedItem     *T      `json:"selected_item"`
		CustomAction     *string `json:"custom_action"`
	}

	// Deleter is the part of a store the delete confirmation needs.
	Deleter interface {
		Delete(ctx context.Context, id string) bool
	}
)

func (h *Handlers[T]) SetSelectedItem(item *T) {
	h.SelectedItem = item
}

func (h *Handlers[T]) SetOpenDialog(open bool) {
	h.OpenDialog = open
	h.clearIfClosed()
}

func (h *Handlers[T]) SetOpenDialogDelete(open bool) {
	h.OpenDialogDelete = open
	h.clearIfClosed()
}

func (h *Handlers[T]) SetCustomAction(action *string) {
	h.CustomAction = action
}

func (h *Handlers[T]) clearIfClosed() {
	if !h.OpenDialog && !h.OpenDialogDelete {
		h.SelectedItem = nil
		h.CustomAction = nil
	}
}

// OpenCreate opens the create/edit dialog in create mode.
func (h *Handlers[T]) OpenCreate() {
	h.SetSelectedItem(nil)
	h.SetCustomAction(nil)
	h.SetOpenDialog(true)
}

// OpenEdit opens the create/edit dialog in edit mode for `item`.
func (h *Handlers[T]) OpenEdit(item T) {
	h.SetSelectedItem(&item)
	h.SetCustomAction(nil)
	h.SetOpenDialog(true)
}

func (h *Handlers[T]) OpenDelete(item T) {
	h.SetSelectedItem(&item)
	h.SetOpenDialogDelete(true)
}

// OpenCustom opens the create/edit dialog for a custom row action (e.g. "pagos").
func (h *Handlers[T]) OpenCustom(item T, action string) {
	h.SetSelectedItem(&item)
	h.SetCustomAction(&action)
	h.SetOpenDialog(true)
}

func (h *Handlers[T]) Close() {
	h.SetOpenDialog(false)
}

func (h *Handlers[T]) CloseDelete() {
	h.SetOpenDialogDelete(false)
}

// IsEditMode reports whether a submit must update SelectedItem rather than create.
func (h *Handlers[T]) IsEditMode() bool {
	return h.SelectedItem != nil
}

// Action returns the custom action, "" if none.
func (h *Handlers[T]) Action() string {
	if h.CustomAction == nil {
		return ""
	}
	return *h.CustomAction
}

// Describe returns a human readable descriptor of an item: the first valid of name, amount, title, description.
func Describe(item Item) string {
	d := item.DisplayFields()
	switch {
	case d.Name.Valid:
		return d.Name.String
	case d.Amount.Valid:
		return fmt.Sprintf("S/ %.2f", d.Amount.Float64)
	case d.Title.Valid:
		return d.Title.String
	case d.Description.Valid:
		return d.Description.String
	}
	return ""
}

// ConfirmDelete closes the delete confirmation, then deletes the selected item.
// It is a no-op when no item (or no id) is selected.
func ConfirmDelete[T Item](ctx context.Context, h *Handlers[T], deleter Deleter) bool {
	if h.SelectedItem == nil {
		return false
	}
	id := (*h.SelectedItem).GetID()
	if id == "" {
		return false
	}
	h.CloseDelete()
	return deleter.Delete(ctx, id)
}
