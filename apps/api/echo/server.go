package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/billing"
	"github.com/chuteinicial/backend/core/guardian"
	"github.com/chuteinicial/backend/core/schedule"
	"github.com/chuteinicial/backend/core/student"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		GuardianSvc *guardian.Service
		StudentSvc  *student.Service
		BillingSvc  *billing.Service
		ScheduleSvc *schedule.Service
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := ConfigureAuth(conf)

	registerGuardianAPI(v1, jwt, s.deps.GuardianSvc, s.deps.StudentSvc, s.deps.BillingSvc, s.deps.Validate)
	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.GuardianSvc, s.deps.Validate)
	registerBillingAPI(v1, jwt, s.deps.BillingSvc, s.deps.Validate)
	registerScheduleAPI(v1, jwt, s.deps.ScheduleSvc, s.deps.Validate)
}

// signalShutdown initiates a graceful shutdown from within the app, typically
// on an integrity error.
func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Start() {
	s.errs <- s.app.Start(s.deps.Conf.Server.Host)
}

func (s *Server) Errors() <-chan error {
	return s.errs
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Chute Inicial API!")
}
