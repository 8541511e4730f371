package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/auth"
)

type (
	LoginRequest struct {
		Username string `json:"username" form:"username" validate:"required,notblank"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (req LoginRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(req)
}

// authenticate maps authentication failures to HTTP errors.
func (s *Server) authenticate(ctx echo.Context, data LoginRequest) (string, auth.Session, error) {
	token, sess, err := s.Auth.Login(ctx.Request().Context(), strings.TrimSpace(data.Username), data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case auth.ErrAuthenticationFailed:
			return "", auth.Session{}, errAuthenticationFailed
		case auth.ErrAccountDeactivated:
			return "", auth.Session{}, errAccountDeactivated
		}
		return "", auth.Session{}, errors.Wrap(err, "authenticating")
	}
	return token, sess, nil
}

func (s *Server) apiLogin(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(s.Validate); err != nil {
		return err
	}

	token, _, err := s.authenticate(ctx, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (s *Server) apiLogout(ctx echo.Context) error {
	if err := s.Auth.Logout(ctx.Request().Context(), requestToken(ctx)); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) me(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.User)
}

func (s *Server) loginPage(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "login", &loginView{layout: layout{Title: "Iniciar sesión"}})
}

func (s *Server) login(ctx echo.Context) error {
	data := LoginRequest{Username: ctx.FormValue("username"), Password: ctx.FormValue("password")}
	view := loginView{layout: layout{Title: "Iniciar sesión"}, Username: data.Username}

	if err := data.Validate(s.Validate); err != nil {
		view.Error = auth.ErrAuthenticationFailed.Error()
		return ctx.Render(http.StatusBadRequest, "login", &view)
	}
	token, sess, err := s.authenticate(ctx, data)
	if err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			view.Error = herr.Message.(string)
			return ctx.Render(herr.Code, "login", &view)
		}
		return err
	}

	s.setCookie(ctx, tokenCookie, token, s.Conf.Server.JWTExpirationDelta)
	s.setCookie(ctx, sessionCookie, sess.ID, s.Conf.Server.JWTExpirationDelta)
	return ctx.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) logout(ctx echo.Context) error {
	if token := requestToken(ctx); token != "" {
		if err := s.Auth.Logout(ctx.Request().Context(), token); err != nil {
			return errors.Wrap(err, "logging out")
		}
	}
	s.setCookie(ctx, tokenCookie, "", -1)
	s.setCookie(ctx, sessionCookie, "", -1)
	return ctx.Redirect(http.StatusSeeOther, loginPath)
}

// setCookie sets (or, with a negative maxAge, removes) a session cookie.
func (s *Server) setCookie(ctx echo.Context, name, value string, maxAge time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.Conf.Debug,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	ctx.SetCookie(c)
}
