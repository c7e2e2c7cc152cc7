package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/billing"
	"github.com/chuteinicial/backend/core/guardian"
	"github.com/chuteinicial/backend/core/student"
)

type billingApi struct {
	svc      *billing.Service
	validate *validator.Validate
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *billing.Service, validate *validator.Validate) {
	api := billingApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("", jwt)
	ag.POST("/lancarMensalidade", api.issue, adminMiddleware())
	ag.POST("/lancarMensalidadesEmLote", api.issueBatch, adminMiddleware())
	ag.GET("/mensalidades", api.query, adminMiddleware())
}

// Handlers

func (api *billingApi) issue(ctx echo.Context) error {
	var data billing.NewCharge
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCharge")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	chg, err := api.svc.Issue(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case student.ErrNotFound:
			return core.NewNotFoundError("student")
		case guardian.ErrNotFound:
			return core.NewNotFoundError("guardian")
		}
		return errors.Wrap(err, "issuing charge")
	}
	return ctx.JSON(http.StatusCreated, chg)
}

func (api *billingApi) issueBatch(ctx echo.Context) error {
	var data billing.BatchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	summary, err := api.svc.IssueMonthly(ctx.Request().Context(), data.ReferenceMonth)
	if err != nil {
		return errors.Wrap(err, "issuing monthly charges")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *billingApi) query(ctx echo.Context) error {
	filter := new(billing.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []billing.Charge{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	charges, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying charges")
	}
	if charges == nil {
		charges = []billing.Charge{}
	}
	return ctx.JSON(http.StatusOK, charges)
}
