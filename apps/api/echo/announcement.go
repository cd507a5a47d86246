package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/barangay/core/announcement"
)

type announcementApi struct {
	svc *announcement.Service
}

func registerAnnouncementAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *announcement.Service) {
	api := announcementApi{svc: svc}

	ag := g.Group("/announcements", authed)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.POST("", api.create, adminMiddleware)
	ag.PUT("/:id", api.update, adminMiddleware)
	ag.DELETE("/:id", api.destroy, adminMiddleware)
}

func (api *announcementApi) query(ctx echo.Context) error {
	anns, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	ann, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFound(err, "Announcement")
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.Input
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	ann, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) update(ctx echo.Context) error {
	var data announcement.Input
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	ann, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFound(err, "Announcement")
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return notFound(err, "Announcement")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Announcement deleted successfully"})
}
