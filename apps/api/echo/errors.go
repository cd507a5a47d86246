package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
	"github.com/trezcool/barangay/services/metrics"
)

var (
	errMissingTokenMsg = "Access denied. No token provided."
	errInvalidTokenMsg = "Invalid token."
	errNotOwnerMsg     = "Access denied. You can only access your own information."
	errForbiddenMsg    = "Access denied. Admin rights required."
	errNotFoundMsg     = "Not found."
	errUnavailableMsg  = "Service temporarily unavailable."
)

// notFound turns core.ErrNotFound into a 404 naming the missing resource.
func notFound(err error, resource string) error {
	if errors.Is(err, core.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, resource+" not found")
	}
	return err
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(
	logger core.Logger,
	v *core.Validator,
	m *metrics.Metrics,
	signalShutdown func(),
) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch {
		case errors.Is(err, auth.ErrMissingToken):
			m.IncAuthFailure("missing_token")
			code, message = http.StatusUnauthorized, errMissingTokenMsg
		case errors.Is(err, auth.ErrInvalidToken):
			m.IncAuthFailure("invalid_token")
			code, message = http.StatusUnauthorized, errInvalidTokenMsg
		case errors.Is(err, auth.ErrNotOwner):
			m.IncAuthFailure("not_owner")
			code, message = http.StatusForbidden, errNotOwnerMsg
		case errors.Is(err, auth.ErrForbidden):
			m.IncAuthFailure("forbidden")
			code, message = http.StatusForbidden, errForbiddenMsg
		case errors.Is(err, core.ErrNotFound):
			code, message = http.StatusNotFound, errNotFoundMsg
		case errors.Is(err, core.ErrStoreUnavailable):
			code, message = http.StatusServiceUnavailable, errUnavailableMsg
			logger.Error(errUnavailableMsg, err, contextIdentity(ctx))
		}

		if code == 0 {
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
					fldErrs[vErr.Field()] = vErr.Translate(v.Translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg), contextIdentity(ctx))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if msg, ok := message.(string); ok {
			message = echo.Map{"error": msg}
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
