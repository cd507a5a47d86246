package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/barangay/core/auth"
)

const contextIdentityKey = "identity"

// bearerToken extracts the token of an `Authorization: Bearer <token>` header.
func bearerToken(ctx echo.Context) string {
	parts := strings.SplitN(ctx.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authMiddleware authenticates the bearer token and pins the caller's Identity in the echo.Context.
func authMiddleware(gate *auth.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := gate.Authenticate(ctx.Request().Context(), bearerToken(ctx))
			if err != nil {
				return err
			}
			ctx.Set(contextIdentityKey, id)
			return next(ctx)
		}
	}
}

// contextIdentity returns the caller set by authMiddleware, or the zero Identity.
func contextIdentity(ctx echo.Context) auth.Identity {
	id, _ := ctx.Get(contextIdentityKey).(auth.Identity)
	return id
}
