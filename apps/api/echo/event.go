package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/barangay/core/event"
)

type eventApi struct {
	svc *event.Service
}

func registerEventAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *event.Service) {
	api := eventApi{svc: svc}

	eg := g.Group("/events", authed)
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
	eg.POST("/:id/attendees", api.register)
	eg.POST("", api.create, adminMiddleware)
	eg.PUT("/:id", api.update, adminMiddleware)
	eg.DELETE("/:id", api.destroy, adminMiddleware)
}

func (api *eventApi) query(ctx echo.Context) error {
	events, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFound(err, "Event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data event.Input
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	evt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) update(ctx echo.Context) error {
	var data event.Input
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	evt, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFound(err, "Event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return notFound(err, "Event")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Event deleted successfully"})
}

func (api *eventApi) register(ctx echo.Context) error {
	var att event.Attendee
	if err := bindBody(ctx, &att); err != nil {
		return err
	}
	evt, err := api.svc.Register(ctx.Request().Context(), contextIdentity(ctx), ctx.Param("id"), att)
	if err != nil {
		return notFound(err, "Event")
	}
	return ctx.JSON(http.StatusOK, evt)
}
