package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/academy"
	"github.com/vanderidme15/vz-academias-sub001/core/auth"
	"github.com/vanderidme15/vz-academias-sub001/core/dialog"
	"github.com/vanderidme15/vz-academias-sub001/core/form"
	"github.com/vanderidme15/vz-academias-sub001/core/store"
	"github.com/vanderidme15/vz-academias-sub001/core/table"
)

const dialogKeyPrefix = "dialog:"

// pageOf builds the page of one entity for an academy, e.g. (*academy.Academy).TeacherPage.
type pageOf[T dialog.Item] func(*academy.Academy) academy.Page[T]

// slug returns the page slug. Slugs do not depend on the academy.
func (fn pageOf[T]) slug() string {
	return fn(new(academy.Academy)).Slug
}

// academy returns the academy of the signed in user.
func (s *Server) academy(ctx echo.Context) (*academy.Academy, auth.Session, error) {
	sess, err := contextSession(ctx)
	if err != nil {
		return nil, auth.Session{}, err
	}
	if sess.User.AcademyID == "" {
		return nil, auth.Session{}, errHttpForbidden
	}
	return s.Academies.Academy(sess.User.AcademyID), sess, nil
}

func currentPage[T dialog.Item](ctx echo.Context, s *Server, fn pageOf[T]) (academy.Page[T], *academy.Academy, auth.Session, error) {
	a, sess, err := s.academy(ctx)
	if err != nil {
		return academy.Page[T]{}, nil, auth.Session{}, err
	}
	return fn(a), a, sess, nil
}

// pageHandlers serve a management page. The dialog state is kept in the session.
type pageHandlers[T dialog.Item] struct {
	srv    *Server
	pageOf pageOf[T]
	path   string
}

func registerPage[T dialog.Item](g *echo.Group, s *Server, fn func(*academy.Academy) academy.Page[T]) {
	ph := &pageHandlers[T]{srv: s, pageOf: fn, path: "/" + pageOf[T](fn).slug()}

	pg := g.Group(ph.path)
	pg.GET("", ph.list)
	pg.POST("/new", ph.openCreate)
	pg.POST("/rows/:id/:action", ph.rowAction)
	pg.POST("/dialog/change", ph.change)
	pg.POST("/dialog/submit", ph.submit)
	pg.POST("/dialog/close", ph.closeDialog)
	pg.POST("/delete/confirm", ph.confirmDelete)
	pg.POST("/delete/cancel", ph.cancelDelete)
}

func (ph *pageHandlers[T]) handlers(ctx echo.Context, sid string) (*dialog.Handlers[T], error) {
	h := new(dialog.Handlers[T])
	if _, err := ph.srv.Sessions.Load(ctx.Request().Context(), sid, dialogKeyPrefix+ph.path, h); err != nil {
		return nil, errors.Wrap(err, "loading dialog state")
	}
	return h, nil
}

func (ph *pageHandlers[T]) save(ctx echo.Context, sid string, h *dialog.Handlers[T]) error {
	if err := ph.srv.Sessions.Save(ctx.Request().Context(), sid, dialogKeyPrefix+ph.path, h); err != nil {
		return errors.Wrap(err, "saving dialog state")
	}
	return nil
}

// update applies `fn` to the dialog state, saves it and goes back to the page.
func (ph *pageHandlers[T]) update(ctx echo.Context, fn func(p academy.Page[T], h *dialog.Handlers[T]) error) error {
	p, _, sess, err := currentPage(ctx, ph.srv, ph.pageOf)
	if err != nil {
		return err
	}
	h, err := ph.handlers(ctx, sess.ID)
	if err != nil {
		return err
	}
	if err = fn(p, h); err != nil {
		return err
	}
	if err = ph.save(ctx, sess.ID, h); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, ph.path)
}

func (ph *pageHandlers[T]) list(ctx echo.Context) error {
	p, a, sess, err := currentPage(ctx, ph.srv, ph.pageOf)
	if err != nil {
		return err
	}
	h, err := ph.handlers(ctx, sess.ID)
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	p.Store.FetchAll(rctx)
	if p.References != nil {
		p.References(rctx)
	}
	return ph.render(ctx, http.StatusOK, p, a, h, nil, nil)
}

// render renders the page. nil values open the dialog with its initial values.
func (ph *pageHandlers[T]) render(
	ctx echo.Context,
	code int,
	p academy.Page[T],
	a *academy.Academy,
	h *dialog.Handlers[T],
	values form.Values,
	errs map[string]string,
) error {
	view := &pageView{
		layout:   ph.srv.layout(ctx, p.Title, ph.path),
		Slug:     p.Slug,
		Singular: p.Singular,
		Headers:  p.Table.Headers(),
		Rows:     p.Table.Rows(p.Store.Items()),
		Actions:  p.Table.Actions,
	}

	if h.OpenDialog {
		f, title, initial := p.ActiveForm(h)
		if values == nil {
			values = initial
		}
		controls := f.Render(values, errs)
		options := a.Options()
		for i := range controls {
			if len(controls[i].Options) == 0 {
				controls[i].Options = options[controls[i].Name]
			}
		}
		view.Dialog = dialogView{Open: true, Title: title, Edit: h.IsEditMode(), Controls: controls}
	}
	if h.OpenDialogDelete && h.SelectedItem != nil {
		view.Delete = deleteView{Open: true, Description: dialog.Describe(*h.SelectedItem)}
	}
	return ctx.Render(code, "page", view)
}

func (ph *pageHandlers[T]) openCreate(ctx echo.Context) error {
	return ph.update(ctx, func(_ academy.Page[T], h *dialog.Handlers[T]) error {
		h.OpenCreate()
		return nil
	})
}

func (ph *pageHandlers[T]) rowAction(ctx echo.Context) error {
	return ph.update(ctx, func(p academy.Page[T], h *dialog.Handlers[T]) error {
		kind, name := table.ActionKind(ctx.Param("action")), ""
		if kind != table.ActionEdit && kind != table.ActionDelete {
			kind, name = table.ActionCustom, ctx.Param("action")
		}
		action, ok := p.Table.Action(kind, name)
		if !ok {
			return errHttpNotFound
		}

		id := ctx.Param("id")
		item, ok := p.Store.Find(id)
		if !ok {
			found := p.Store.FetchByID(ctx.Request().Context(), id)
			if found == nil {
				ph.srv.Inbox.Error(ctx.Request().Context(), store.MsgNotFound)
				return nil
			}
			item = *found
		}
		return table.Trigger(h, item, action)
	})
}

// change applies a field change (and its side effects) to the posted values and renders them.
func (ph *pageHandlers[T]) change(ctx echo.Context) error {
	p, a, sess, err := currentPage(ctx, ph.srv, ph.pageOf)
	if err != nil {
		return err
	}
	h, err := ph.handlers(ctx, sess.ID)
	if err != nil {
		return err
	}
	if !h.OpenDialog {
		return ctx.Redirect(http.StatusSeeOther, ph.path)
	}

	f, _, _ := p.ActiveForm(h)
	params, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	values := form.Parse(f.Fields(), params)
	if name := params.Get("_field"); name != "" {
		values = f.Change(values, name, values[name])
	}
	return ph.render(ctx, http.StatusOK, p, a, h, values, nil)
}

func (ph *pageHandlers[T]) submit(ctx echo.Context) error {
	p, a, sess, err := currentPage(ctx, ph.srv, ph.pageOf)
	if err != nil {
		return err
	}
	h, err := ph.handlers(ctx, sess.ID)
	if err != nil {
		return err
	}
	if !h.OpenDialog {
		return ctx.Redirect(http.StatusSeeOther, ph.path)
	}

	f, _, _ := p.ActiveForm(h)
	params, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	values := form.Parse(f.Fields(), params)

	saved, errs := p.Submit(ctx.Request().Context(), h, values)
	if saved == nil {
		// the dialog stays open with what the user typed
		return ph.render(ctx, http.StatusUnprocessableEntity, p, a, h, values, errs)
	}
	if err = ph.save(ctx, sess.ID, h); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, ph.path)
}

func (ph *pageHandlers[T]) closeDialog(ctx echo.Context) error {
	return ph.update(ctx, func(_ academy.Page[T], h *dialog.Handlers[T]) error {
		h.Close()
		return nil
	})
}

func (ph *pageHandlers[T]) confirmDelete(ctx echo.Context) error {
	return ph.update(ctx, func(p academy.Page[T], h *dialog.Handlers[T]) error {
		dialog.ConfirmDelete[T](ctx.Request().Context(), h, p.Store)
		return nil
	})
}

func (ph *pageHandlers[T]) cancelDelete(ctx echo.Context) error {
	return ph.update(ctx, func(_ academy.Page[T], h *dialog.Handlers[T]) error {
		h.CloseDelete()
		return nil
	})
}
