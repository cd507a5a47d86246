package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/barangay/core/dashboard"
)

type dashboardApi struct {
	svc *dashboard.Service
}

func registerDashboardAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *dashboard.Service) {
	api := dashboardApi{svc: svc}

	dg := g.Group("/dashboard", authed)
	dg.GET("/stats", api.stats)
	dg.GET("/recent-registrations", api.recent)
	dg.GET("/gender-distribution", api.gender)
	dg.GET("/age-distribution", api.age)
	dg.GET("/monthly-trends", api.monthly)
	// admin only, enforced by the service before any read
	dg.GET("/backup", api.backup)
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	report, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *dashboardApi) recent(ctx echo.Context) error {
	recent, err := api.svc.Recent(ctx.Request().Context(), queryLimit(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, recent)
}

func (api *dashboardApi) gender(ctx echo.Context) error {
	buckets, err := api.svc.Gender(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, buckets)
}

func (api *dashboardApi) age(ctx echo.Context) error {
	buckets, err := api.svc.Age(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, buckets)
}

func (api *dashboardApi) monthly(ctx echo.Context) error {
	buckets, err := api.svc.Monthly(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, buckets)
}

func (api *dashboardApi) backup(ctx echo.Context) error {
	backup, err := api.svc.Backup(ctx.Request().Context(), contextIdentity(ctx))
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="barangay-backup.json"`)
	return ctx.JSON(http.StatusOK, backup)
}
