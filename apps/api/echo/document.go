package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/barangay/core/document"
)

type documentApi struct {
	svc *document.Service
}

func registerDocumentAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *document.Service) {
	api := documentApi{svc: svc}

	dg := g.Group("/documents", authed)
	dg.GET("", api.query)
	dg.POST("", api.create)
	dg.GET("/resident/:id", api.byResident, ownerOrAdminMiddleware)
	dg.GET("/:id", api.retrieve)
	dg.PUT("/:id/status", api.updateStatus, adminMiddleware)
	dg.DELETE("/:id", api.destroy, adminMiddleware)
}

func (api *documentApi) query(ctx echo.Context) error {
	var filter document.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	reqs, err := api.svc.Query(ctx.Request().Context(), contextIdentity(ctx), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *documentApi) byResident(ctx echo.Context) error {
	reqs, err := api.svc.ByResident(ctx.Request().Context(), contextIdentity(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *documentApi) retrieve(ctx echo.Context) error {
	req, err := api.svc.Get(ctx.Request().Context(), contextIdentity(ctx), ctx.Param("id"))
	if err != nil {
		return notFound(err, "Document request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *documentApi) create(ctx echo.Context) error {
	var data document.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	req, err := api.svc.Create(ctx.Request().Context(), contextIdentity(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *documentApi) updateStatus(ctx echo.Context) error {
	var data document.StatusUpdate
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	req, err := api.svc.UpdateStatus(ctx.Request().Context(), contextIdentity(ctx), ctx.Param("id"), data)
	if err != nil {
		return notFound(err, "Document request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *documentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return notFound(err, "Document request")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Document request deleted successfully"})
}
