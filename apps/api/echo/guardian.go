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

var errGrdNotFoundInCtx = errors.New("guardian object not found in echo.Context")

type guardianApi struct {
	svc      *guardian.Service
	students *student.Service
	charges  *billing.Service
	validate *validator.Validate
}

func registerGuardianAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *guardian.Service,
	students *student.Service,
	charges *billing.Service,
	validate *validator.Validate,
) {
	api := guardianApi{
		svc:      svc,
		students: students,
		charges:  charges,
		validate: validate,
	}

	gg := g.Group("/responsaveis")

	// un-authed endpoints
	gg.POST("/login", api.login)
	gg.POST("/password-reset", api.resetPassword)
	gg.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := gg.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("", api.query, adminMiddleware())
	ag.POST("/admin", api.createAdmin, adminMiddleware())

	// detail endpoints
	dg := ag.Group("/:id", ctxGuardianOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)

	// guardian portal
	mg := g.Group("/me", jwt)
	mg.GET("", api.me)
	mg.GET("/alunos", api.myStudents)
	mg.GET("/alunos/:id/presencas", api.myStudentAttendance)
	mg.GET("/mensalidades", api.myCharges)
}

// Handlers

func (api *guardianApi) login(ctx echo.Context) error {
	var data guardian.LoginGuardian
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginGuardian")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.Email, data.Password, api.svc)
	if err != nil {
		if errors.Cause(err) == guardian.ErrNotFound {
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *guardianApi) resetPassword(ctx echo.Context) error {
	var data guardian.PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == guardian.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *guardianApi) confirmPasswordReset(ctx echo.Context) error {
	var data guardian.ResetGuardianPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetGuardianPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *guardianApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *guardianApi) createAdmin(ctx echo.Context) error {
	var data guardian.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdmin")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	grd, err := api.svc.CreateAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating admin")
	}
	return ctx.JSON(http.StatusCreated, grd)
}

func (api *guardianApi) query(ctx echo.Context) error {
	filter := new(guardian.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []guardian.Guardian{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	grds, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying guardians")
	}
	if grds == nil {
		grds = []guardian.Guardian{}
	}
	return ctx.JSON(http.StatusOK, grds)
}

func (api *guardianApi) retrieve(ctx echo.Context) error {
	grd, ok := ctx.Get("object").(guardian.Guardian)
	if !ok {
		return errors.Wrap(errGrdNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *guardianApi) update(ctx echo.Context) error {
	grd, ok := ctx.Get("object").(guardian.Guardian)
	if !ok {
		return errors.Wrap(errGrdNotFoundInCtx, "retrieving object from context")
	}

	var data guardian.UpdateGuardian
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGuardian")
	}
	if err := data.Validate(grd, api.validate); err != nil {
		return err
	}

	grd, err := api.svc.Update(ctx.Request().Context(), grd.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating guardian")
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *guardianApi) me(ctx echo.Context) error {
	grd, err := getContextGuardian(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context guardian")
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *guardianApi) myStudents(ctx echo.Context) error {
	grd, err := getContextGuardian(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context guardian")
	}

	students, err := api.students.Query(ctx.Request().Context(), &student.QueryFilter{GuardianID: grd.ID}, nil)
	if err != nil {
		return errors.Wrap(err, "querying guardian students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *guardianApi) myStudentAttendance(ctx echo.Context) error {
	grd, err := getContextGuardian(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context guardian")
	}

	id := ctx.Param("id")
	if !grd.HasStudent(id) {
		return errHTTPNotFound
	}

	atts, err := api.students.AttendanceHistory(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "querying student attendance")
	}
	if atts == nil {
		atts = []student.Attendance{}
	}
	return ctx.JSON(http.StatusOK, atts)
}

func (api *guardianApi) myCharges(ctx echo.Context) error {
	grd, err := getContextGuardian(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context guardian")
	}

	charges, err := api.charges.Query(ctx.Request().Context(), &billing.QueryFilter{GuardianID: grd.ID}, nil)
	if err != nil {
		return errors.Wrap(err, "querying guardian charges")
	}
	if charges == nil {
		charges = []billing.Charge{}
	}
	return ctx.JSON(http.StatusOK, charges)
}

func ctxGuardianOrAdminMiddleware(svc *guardian.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxGrd, err := getContextGuardian(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context guardian")
			}

			if ctx.Param("id") == ctxGrd.ID || ctxGrd.IsAdmin() {
				if grd, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", grd)
					return next(ctx)
				} else if errors.Cause(err) != guardian.ErrNotFound {
					return errors.Wrap(err, "finding guardian by ID")
				}
			}
			return errHTTPNotFound
		}
	}
}

type (
	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
