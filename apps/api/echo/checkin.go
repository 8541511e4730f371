package echoapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/checkin"
	"github.com/vanderidme15/vz-academias-sub001/services/qrscan"
)

// frameCamera is a camera fed with the frames captured by the browser.
type frameCamera interface {
	SetPermission(granted bool)
	DecodeFrame(r io.Reader) (string, error)
}

var checkInTitles = map[checkin.Kind]string{
	checkin.KindEnrollment: "Asistencia",
	checkin.KindVolunteer:  "Ingreso de voluntarios",
}

func registerCheckIn(g *echo.Group, s *Server) {
	cg := g.Group("/checkin/:kind")
	cg.GET("", s.checkInPage)
	cg.POST("/permission", s.checkInPermission)
	cg.POST("/start", s.checkInStart)
	cg.POST("/retry", s.checkInRetry)
	cg.POST("/frame", s.checkInFrame)
	cg.POST("/code", s.checkInCode)
	cg.POST("/confirm", s.checkInConfirm)
	cg.POST("/cancel", s.checkInCancel)
	cg.POST("/close", s.checkInClose)
}

// workflow returns the session's workflow of the kind in the path.
func (s *Server) workflow(ctx echo.Context) (*checkin.Workflow, error) {
	a, sess, err := s.academy(ctx)
	if err != nil {
		return nil, err
	}
	kind := checkin.Kind(ctx.Param("kind"))
	w, err := s.CheckIns.Workflow(sess.ID, kind, func() (checkin.Config, error) {
		return a.CheckInConfig(kind)
	})
	if err != nil {
		if errors.Is(err, checkin.ErrUnknownKind) {
			return nil, errHttpNotFound
		}
		return nil, errors.Wrap(err, "getting check-in workflow")
	}
	return w, nil
}

type checkInSnapshot struct {
	checkin.Snapshot
	MatchedID   string `json:"matched_id,omitempty"`
	MatchedName string `json:"matched_name,omitempty"`
}

func snapshot(w *checkin.Workflow) checkInSnapshot {
	snap := checkInSnapshot{Snapshot: w.Snapshot()}
	if snap.Result != nil {
		snap.MatchedID = snap.Result.GetID()
		snap.MatchedName = snap.Result.DisplayName()
	}
	return snap
}

// checkInDone answers a check-in action: the snapshot for scripts, the page otherwise.
func (s *Server) checkInDone(ctx echo.Context, w *checkin.Workflow) error {
	if strings.Contains(ctx.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return ctx.JSON(http.StatusOK, snapshot(w))
	}
	return ctx.Redirect(http.StatusSeeOther, "/checkin/"+string(w.Kind()))
}

func (s *Server) checkInPage(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	snap := snapshot(w)
	view := &checkInView{
		layout:   s.layout(ctx, checkInTitles[w.Kind()], "/checkin/"+string(w.Kind())),
		Kind:     w.Kind(),
		State:    snap.State,
		Camera:   snap.CameraActive,
		Matched:  snap.MatchedName,
		Scanning: snap.State == checkin.StateScanning,
	}
	return ctx.Render(http.StatusOK, "checkin", view)
}

func (s *Server) checkInPermission(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	cam, ok := w.Camera().(frameCamera)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "la cámara no acepta permisos")
	}
	cam.SetPermission(ctx.FormValue("granted") == "true")
	return s.checkInDone(ctx, w)
}

func (s *Server) checkInStart(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	if err = w.Start(ctx.Request().Context()); err != nil {
		return err
	}
	return s.checkInDone(ctx, w)
}

func (s *Server) checkInRetry(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	if err = w.Retry(ctx.Request().Context()); err != nil {
		return err
	}
	return s.checkInDone(ctx, w)
}

// checkInFrame decodes a camera frame, posted as the `frame` file or as the raw body.
// A frame without a code keeps the workflow scanning.
func (s *Server) checkInFrame(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	cam, ok := w.Camera().(frameCamera)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "la cámara no acepta imágenes")
	}

	var frame io.Reader = ctx.Request().Body
	if fh, fErr := ctx.FormFile("frame"); fErr == nil {
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening frame")
		}
		defer func() { _ = f.Close() }()
		frame = f
	}

	code, err := cam.DecodeFrame(frame)
	switch {
	case errors.Is(err, qrscan.ErrNoCode):
		return ctx.JSON(http.StatusOK, snapshot(w))
	case errors.Is(err, qrscan.ErrNotActive):
		return echo.NewHTTPError(http.StatusConflict, "la cámara no está activa")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "imagen inválida").SetInternal(err)
	}

	if _, err = w.Decoded(ctx.Request().Context(), code); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, snapshot(w))
}

// checkInCode resolves a code typed in or read by a handheld scanner.
func (s *Server) checkInCode(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	if _, err = w.Decoded(ctx.Request().Context(), strings.TrimSpace(ctx.FormValue("code"))); err != nil {
		return err
	}
	return s.checkInDone(ctx, w)
}

func (s *Server) checkInConfirm(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	// a failed check-in is reported through the notices
	if err = w.Confirm(ctx.Request().Context()); err != nil && errors.Is(err, checkin.ErrInvalidTransition) {
		return err
	}
	return s.checkInDone(ctx, w)
}

func (s *Server) checkInCancel(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	if err = w.Cancel(); err != nil {
		return err
	}
	return s.checkInDone(ctx, w)
}

func (s *Server) checkInClose(ctx echo.Context) error {
	w, err := s.workflow(ctx)
	if err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return s.checkInDone(ctx, w)
}
