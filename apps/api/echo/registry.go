package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/barangay/core/registry"
)

type registryApi struct {
	svc *registry.Service
}

func registerRegistryAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *registry.Service) {
	api := registryApi{svc: svc}

	rg := g.Group("/residents", authed)
	rg.GET("", api.queryResidents, adminMiddleware)
	rg.POST("", api.createResident, adminMiddleware)
	rg.GET("/:id", api.retrieveResident, ownerOrAdminMiddleware)
	rg.PUT("/:id", api.updateResident, adminMiddleware)
	rg.DELETE("/:id", api.destroyResident, adminMiddleware)

	fg := g.Group("/familyHeads", authed, adminMiddleware)
	fg.GET("", api.queryFamilyHeads)
	fg.POST("", api.createFamilyHead)
	fg.GET("/:id", api.retrieveFamilyHead)
	fg.GET("/:id/members", api.members)
	fg.PUT("/:id", api.updateFamilyHead)
	fg.DELETE("/:id", api.destroyFamilyHead)
}

// Residents

func (api *registryApi) queryResidents(ctx echo.Context) error {
	var filter registry.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ord Ordering
	ord.Bind(ctx)
	filter.Ordering = ord.Orderings

	residents, err := api.svc.QueryResidents(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, residents)
}

func (api *registryApi) createResident(ctx echo.Context) error {
	var data registry.NewResident
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResident")
	}
	res, err := api.svc.CreateResident(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *registryApi) retrieveResident(ctx echo.Context) error {
	res, err := api.svc.GetResident(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFound(err, "Resident")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *registryApi) updateResident(ctx echo.Context) error {
	var data registry.UpdateResident
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.UpdateResident(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFound(err, "Resident")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *registryApi) destroyResident(ctx echo.Context) error {
	if err := api.svc.DeleteResident(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return notFound(err, "Resident")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Resident deleted successfully"})
}

// Family heads

func (api *registryApi) queryFamilyHeads(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	heads, err := api.svc.QueryFamilyHeads(ctx.Request().Context(), ord.Orderings...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, heads)
}

func (api *registryApi) createFamilyHead(ctx echo.Context) error {
	var data registry.NewFamilyHead
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFamilyHead")
	}
	head, err := api.svc.CreateFamilyHead(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, head)
}

func (api *registryApi) retrieveFamilyHead(ctx echo.Context) error {
	head, err := api.svc.GetFamilyHead(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFound(err, "Family head")
	}
	return ctx.JSON(http.StatusOK, head)
}

func (api *registryApi) members(ctx echo.Context) error {
	members, err := api.svc.Members(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFound(err, "Family head")
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *registryApi) updateFamilyHead(ctx echo.Context) error {
	var data registry.UpdateFamilyHead
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	head, err := api.svc.UpdateFamilyHead(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFound(err, "Family head")
	}
	return ctx.JSON(http.StatusOK, head)
}

func (api *registryApi) destroyFamilyHead(ctx echo.Context) error {
	if err := api.svc.DeleteFamilyHead(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return notFound(err, "Family head")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Family head deleted successfully"})
}
