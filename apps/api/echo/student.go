package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core/guardian"
	"github.com/chuteinicial/backend/core/student"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *student.Service,
	grdSvc *guardian.Service,
	validate *validator.Validate,
) {
	api := studentApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("", jwt)

	// combined guardian + student registration
	ag.POST("/criarResponsavelAluno", api.register, adminMiddleware())

	// roster-wide attendance
	ag.POST("/chamada", api.markRoster, adminMiddleware())

	sg := ag.Group("/alunos", adminMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.POST("/:id/presenca", api.setAttendance)
	sg.GET("/:id/presencas", api.attendanceHistory)
}

type (
	// RegistrationRequest carries the student and their guardian's contact info
	// in one submission.
	RegistrationRequest struct {
		Student  student.NewStudent       `json:"aluno"`
		Guardian guardian.ResolveGuardian `json:"responsavel"`
	}

	RegistrationResponse struct {
		Student     student.Student   `json:"aluno"`
		Guardian    guardian.Guardian `json:"responsavel"`
		NewGuardian bool              `json:"novoResponsavel"`
		Message     string            `json:"message"`
	}

	RosterResponse struct {
		Marked int `json:"marcados"`
	}
)

// Handlers

func (api *studentApi) register(ctx echo.Context) error {
	var data RegistrationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegistrationRequest")
	}
	if err := data.Student.Validate(api.validate); err != nil {
		return err
	}
	if err := data.Guardian.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.Register(ctx.Request().Context(), data.Student, data.Guardian)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}

	msg := "Student registered and linked to the existing guardian."
	if reg.TempCredentialIssued {
		msg = "Student registered; a guardian account was created with a temporary credential " +
			"and an email was sent with instructions to choose a password."
	}
	return ctx.JSON(http.StatusCreated, RegistrationResponse{
		Student:     reg.Student,
		Guardian:    reg.Guardian,
		NewGuardian: reg.TempCredentialIssued,
		Message:     msg,
	})
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	std, err := api.svc.GetByID(rctx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(std, api.validate); err != nil {
		return err
	}

	std, err = api.svc.Update(rctx, std.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) setAttendance(ctx echo.Context) error {
	var data student.SetAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SetAttendance(ctx.Request().Context(), ctx.Param("id"), data); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "setting attendance")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Attendance recorded."})
}

func (api *studentApi) attendanceHistory(ctx echo.Context) error {
	atts, err := api.svc.AttendanceHistory(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "querying attendance")
	}
	if atts == nil {
		atts = []student.Attendance{}
	}
	return ctx.JSON(http.StatusOK, atts)
}

func (api *studentApi) markRoster(ctx echo.Context) error {
	var data student.MarkRoster
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRoster")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	marked, err := api.svc.MarkRoster(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "marking roster")
	}
	return ctx.JSON(http.StatusOK, RosterResponse{Marked: marked})
}
