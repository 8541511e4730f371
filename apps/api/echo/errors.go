package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/auth"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/checkin"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "usuario no autenticado")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, auth.ErrAuthenticationFailed.Error())
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, auth.ErrAccountDeactivated.Error())
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permiso denegado")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "no encontrado")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *backend.Error:
			switch origErr.Code {
			case backend.CodeNotFound:
				code, message = http.StatusNotFound, errHttpNotFound.Message
			case backend.CodeValidation:
				code, message = http.StatusBadRequest, origErr.Message
			default:
				code, message = serverError(logger, err, ctx)
			}
		default:
			if errors.Is(err, checkin.ErrInvalidTransition) || errors.Is(err, checkin.ErrUnknownKind) {
				code, message = http.StatusConflict, err.Error()
				break
			}
			code, message = serverError(logger, err, ctx)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// serverError logs an unexpected error with the signed in user, if any.
func serverError(logger core.Logger, err error, ctx echo.Context) (int, interface{}) {
	msg := http.StatusText(http.StatusInternalServerError)
	if sess, sErr := contextSession(ctx); sErr == nil {
		logger.Error(msg, errors.Wrap(err, msg), sess.User)
	} else {
		logger.Error(msg, errors.Wrap(err, msg))
	}
	return http.StatusInternalServerError, msg
}
