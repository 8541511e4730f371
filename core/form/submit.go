package form

import (
	"context"

	"github.com/vanderidme15/vz-academias-sub001/core/dialog"
)

// Submitter is the part of a store a form submits to.
type Submitter[T dialog.Item] interface {
	Create(ctx context.Context, values map[string]interface{}) *T
	Update(ctx context.Context, values map[string]interface{}, id string) *T
}

// Submit validates `values` and, when valid, creates a record if no item is selected or
// updates the selected one otherwise. The dialog is closed once the record is saved;
// it stays open on validation or backend failure so the user can fix and resubmit.
func Submit[T dialog.Item](
	ctx context.Context,
	f *Form,
	values Values,
	h *dialog.Handlers[T],
	submitter Submitter[T],
) (*T, map[string]string) {
	payload, errs := f.Validate(values)
	if errs != nil {
		return nil, errs
	}

	var saved *T
	if h.SelectedItem == nil {
		saved = submitter.Create(ctx, payload)
	} else {
		saved = submitter.Update(ctx, payload, (*h.SelectedItem).GetID())
	}
	if saved != nil {
		h.Close()
	}
	return saved, nil
}
