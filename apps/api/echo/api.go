package echoapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/academy"
	"github.com/vanderidme15/vz-academias-sub001/core/dialog"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/store"
	"github.com/vanderidme15/vz-academias-sub001/services/qrscan"
)

// resource serves the JSON API of one entity. Writes go through the page forms.
type resource[T dialog.Item] struct {
	srv    *Server
	pageOf pageOf[T]
}

func registerResource[T dialog.Item](g *echo.Group, s *Server, fn func(*academy.Academy) academy.Page[T]) *echo.Group {
	r := &resource[T]{srv: s, pageOf: fn}

	rg := g.Group("/" + r.pageOf.slug())
	rg.GET("", r.query)
	rg.POST("", r.create)
	rg.GET("/:id", r.retrieve)
	rg.PUT("/:id", r.update)
	rg.DELETE("/:id", r.destroy)
	rg.POST("/:id/actions/:action", r.action)
	return rg
}

// failure turns the last error notice of the session into an HTTP error.
func (s *Server) failure(sid string, code int) error {
	msg := ""
	for _, n := range s.Inbox.Drain(sid) {
		if n.Level == notify.LevelError {
			msg = n.Message
		}
	}
	switch msg {
	case "":
		msg = http.StatusText(code)
	case store.MsgNotFound:
		code = http.StatusNotFound
	}
	return echo.NewHTTPError(code, msg)
}

func validationError(errs map[string]string) error {
	flds := make([]core.FieldError, 0, len(errs))
	for name, msg := range errs {
		flds = append(flds, core.FieldError{Field: name, Error: msg})
	}
	return core.NewValidationError(nil, flds...)
}

func (r *resource[T]) query(ctx echo.Context) error {
	p, _, sess, err := currentPage(ctx, r.srv, r.pageOf)
	if err != nil {
		return err
	}

	p.Store.FetchAll(ctx.Request().Context())
	for _, n := range r.srv.Inbox.Drain(sess.ID) {
		if n.Level == notify.LevelError {
			return echo.NewHTTPError(http.StatusBadGateway, n.Message)
		}
	}
	return ctx.JSON(http.StatusOK, p.Store.Items())
}

func (r *resource[T]) retrieve(ctx echo.Context) error {
	p, _, sess, err := currentPage(ctx, r.srv, r.pageOf)
	if err != nil {
		return err
	}

	item := p.Store.FetchByID(ctx.Request().Context(), ctx.Param("id"))
	if item == nil {
		return r.srv.failure(sess.ID, http.StatusNotFound)
	}
	return ctx.JSON(http.StatusOK, item)
}

func (r *resource[T]) create(ctx echo.Context) error {
	var h dialog.Handlers[T]
	h.OpenCreate()
	return r.submit(ctx, &h, http.StatusCreated)
}

func (r *resource[T]) update(ctx echo.Context) error {
	return r.withSelected(ctx, func(h *dialog.Handlers[T], item T) {
		h.OpenEdit(item)
	})
}

// action runs a custom row action (e.g. "pago") on the record.
func (r *resource[T]) action(ctx echo.Context) error {
	p, _, _, err := currentPage(ctx, r.srv, r.pageOf)
	if err != nil {
		return err
	}
	name := ctx.Param("action")
	if _, ok := p.Custom[name]; !ok {
		return errHttpNotFound
	}
	return r.withSelected(ctx, func(h *dialog.Handlers[T], item T) {
		h.OpenCustom(item, name)
	})
}

func (r *resource[T]) withSelected(ctx echo.Context, open func(*dialog.Handlers[T], T)) error {
	p, _, sess, err := currentPage(ctx, r.srv, r.pageOf)
	if err != nil {
		return err
	}
	item := p.Store.FetchByID(ctx.Request().Context(), ctx.Param("id"))
	if item == nil {
		return r.srv.failure(sess.ID, http.StatusNotFound)
	}

	var h dialog.Handlers[T]
	open(&h, *item)
	return r.submit(ctx, &h, http.StatusOK)
}

// submit merges the request body onto the dialog's initial values and submits them.
func (r *resource[T]) submit(ctx echo.Context, h *dialog.Handlers[T], code int) error {
	p, _, sess, err := currentPage(ctx, r.srv, r.pageOf)
	if err != nil {
		return err
	}

	// decoded by hand: path params must not end up in the payload
	body := make(map[string]interface{})
	if err = json.NewDecoder(ctx.Request().Body).Decode(&body); err != nil && err != io.EOF {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON inválido").SetInternal(err)
	}
	f, _, values := p.ActiveForm(h)
	for k, v := range f.Coerce(body) {
		values[k] = v
	}

	saved, errs := p.Submit(ctx.Request().Context(), h, values)
	if errs != nil {
		return validationError(errs)
	}
	if saved == nil {
		return r.srv.failure(sess.ID, http.StatusBadRequest)
	}
	r.srv.Inbox.Drain(sess.ID)
	return ctx.JSON(code, saved)
}

func (r *resource[T]) destroy(ctx echo.Context) error {
	p, _, sess, err := currentPage(ctx, r.srv, r.pageOf)
	if err != nil {
		return err
	}

	if !p.Store.Delete(ctx.Request().Context(), ctx.Param("id")) {
		return r.srv.failure(sess.ID, http.StatusBadRequest)
	}
	r.srv.Inbox.Drain(sess.ID)
	return ctx.NoContent(http.StatusNoContent)
}

// badge serves the QR badge of a record: a png encoding its id.
func badge[T dialog.Item](s *Server, fn func(*academy.Academy) academy.Page[T]) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		p, _, sess, err := currentPage(ctx, s, pageOf[T](fn))
		if err != nil {
			return err
		}
		item := p.Store.FetchByID(ctx.Request().Context(), ctx.Param("id"))
		if item == nil {
			return s.failure(sess.ID, http.StatusNotFound)
		}

		png, err := qrscan.Badge((*item).GetID())
		if err != nil {
			return errors.Wrap(err, "encoding QR badge")
		}
		return ctx.Blob(http.StatusOK, "image/png", png)
	}
}

func (s *Server) auditLogs(ctx echo.Context) error {
	a, _, err := s.academy(ctx)
	if err != nil {
		return err
	}
	logs, err := s.Audit.List(ctx.Request().Context(), a.ID, ctx.QueryParam("entity"))
	if err != nil {
		return errors.Wrap(err, "listing audit logs")
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (s *Server) home(ctx echo.Context) error {
	a, _, err := s.academy(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	a.FetchReferences(rctx)
	a.Enrollments.FetchAll(rctx)
	a.Volunteers.FetchAll(rctx)

	counts := map[string]int{
		"/teachers":    len(a.Teachers.Items()),
		"/schedules":   len(a.Schedules.Items()),
		"/periods":     len(a.Periods.Items()),
		"/students":    len(a.Students.Items()),
		"/courses":     len(a.Courses.Items()),
		"/enrollments": len(a.Enrollments.Items()),
		"/volunteers":  len(a.Volunteers.Items()),
	}
	view := &homeView{layout: s.layout(ctx, "Inicio", "/")}
	for _, link := range view.Nav {
		if n, ok := counts[link.Path]; ok {
			view.Counts = append(view.Counts, navCount{navLink: link, Count: n})
		}
	}
	return ctx.Render(http.StatusOK, "home", view)
}
