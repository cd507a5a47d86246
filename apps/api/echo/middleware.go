package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/barangay/core/auth"
)

func roleMiddleware(role auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if err := auth.RequireRole(contextIdentity(ctx), role); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

var adminMiddleware = roleMiddleware(auth.RoleAdmin)

// ownerOrAdminMiddleware restricts residents to the routes whose :id is their own resident ID.
// Routes without an :id are left to the handler.
func ownerOrAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if id := ctx.Param("id"); id != "" {
			if err := auth.RequireOwnershipOrAdmin(contextIdentity(ctx), id); err != nil {
				return err
			}
		}
		return next(ctx)
	}
}
