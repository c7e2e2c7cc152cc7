package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core/schedule"
)

type scheduleApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *schedule.Service, validate *validator.Validate) {
	api := scheduleApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/horarios", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, adminMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *scheduleApi) query(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Schedule{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	schs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	if schs == nil {
		schs = []schedule.Schedule{}
	}
	return ctx.JSON(http.StatusOK, schs)
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == schedule.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "deleting schedule")
	}
	return ctx.NoContent(http.StatusNoContent)
}
