package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/barangay/core/auth"
	"github.com/trezcool/barangay/core/user"
)

type authApi struct {
	svc  *user.Service
	gate *auth.Gate
}

func registerAuthAPI(g *echo.Group, authed echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{svc: deps.UserSvc, gate: deps.Gate}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)
	ag.GET("/check-resident/:id", api.checkResident)

	// authed endpoints
	ag.GET("/me", api.me, authed)
	ag.POST("/change-password", api.changePassword, authed)
}

func (api *authApi) respondWithToken(ctx echo.Context, code int, usr user.User) error {
	token, err := api.gate.IssueToken(usr.Identity())
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}
	return ctx.JSON(code, user.LoginResponse{Token: token, User: usr})
}

func (api *authApi) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	usr, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return api.respondWithToken(ctx, http.StatusOK, usr)
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return api.respondWithToken(ctx, http.StatusCreated, usr)
}

func (api *authApi) checkResident(ctx echo.Context) error {
	acc, err := api.svc.CheckResident(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFound(err, "Resident")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := api.svc.GetByUsername(ctx.Request().Context(), contextIdentity(ctx).Username)
	if err != nil {
		return notFound(err, "User")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) changePassword(ctx echo.Context) error {
	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := api.svc.ChangePassword(ctx.Request().Context(), contextIdentity(ctx).Username, data); err != nil {
		return notFound(err, "User")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully"})
}
