package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vanderidme15/vz-academias-sub001/core/auth"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
)

const (
	tokenCookie       = "token"
	sessionCookie     = "sid"
	contextSessionKey = "session"
	loginPath         = "/login"
)

// authMiddleware lets signed in sessions through. Page requests of other sessions are
// redirected to the login page; API requests are answered 401.
func authMiddleware(gate *auth.Gate, api bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var sid string
			if c, err := ctx.Cookie(sessionCookie); err == nil {
				sid = c.Value
			}

			req := ctx.Request()
			sess, state := gate.Check(req.Context(), sid, requestToken(ctx))
			if state != auth.StateAuthenticated {
				if api {
					return errUnauthorized
				}
				return ctx.Redirect(http.StatusSeeOther, loginPath)
			}

			ctx.Set(contextSessionKey, sess)
			rctx := notify.WithSession(req.Context(), sess.ID)
			rctx = user.NewContext(rctx, sess.User)
			ctx.SetRequest(req.WithContext(rctx))
			return next(ctx)
		}
	}
}

// adminMiddleware requires an admin user, having any of `roles` when given.
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := contextSession(ctx)
			if err != nil {
				return err
			}
			if sess.User.IsAdmin() && hasAnyRole(sess.User, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func hasAnyRole(usr user.User, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		for _, r := range usr.Roles {
			if r == role {
				return true
			}
		}
	}
	return false
}

// requestToken returns the bearer token of the request, or the session cookie's.
func requestToken(ctx echo.Context) string {
	if h := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := ctx.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func contextSession(ctx echo.Context) (auth.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(auth.Session); ok {
		return sess, nil
	}
	return auth.Session{}, errUnauthorized
}
