package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/chuteinicial/backend/apps/api/echo"
	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/billing"
	"github.com/chuteinicial/backend/core/guardian"
	"github.com/chuteinicial/backend/core/schedule"
	"github.com/chuteinicial/backend/core/student"
	emailsvc "github.com/chuteinicial/backend/services/email"
	inmemdb "github.com/chuteinicial/backend/storage/database/inmem"
)

var (
	conf = &core.Config{
		AppName:                   "ChuteInicial",
		TestMode:                  true,
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:5173",
		DefaultFromEmail:          mail.Address{Name: "ChuteInicial", Address: "noreply@localhost"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Billing: core.BillingConfig{DefaultMonthlyFee: 80},
	}

	validate   *validator.Validate
	translator ut.Translator
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func TestMain(m *testing.M) {
	conf.WorkDir = core.Getwd()

	validate = validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	guardian.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	billing.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, nopLogger{})

	os.Exit(m.Run())
}

type testApp struct {
	app     *echoapi.Server
	grdRepo guardian.Repository
	grdSvc  *guardian.Service
	stdSvc  *student.Service
	billSvc *billing.Service
	schSvc  *schedule.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()

	db := inmemdb.NewDB()
	grdRepo := inmemdb.NewGuardianRepository(db)
	stdRepo := inmemdb.NewStudentRepository(db)
	chgRepo := inmemdb.NewChargeRepository(db)
	schRepo := inmemdb.NewScheduleRepository(db)

	grdSvc := guardian.NewService(grdRepo, emailsvc.NewConsoleServiceMock(conf), nopLogger{}, conf)
	stdSvc := student.NewService(db, stdRepo, grdSvc, nopLogger{})
	billSvc := billing.NewService(db, chgRepo, grdRepo, stdRepo, nopLogger{}, conf)
	schSvc := schedule.NewService(schRepo)

	app := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      nopLogger{},
			GuardianSvc: grdSvc,
			StudentSvc:  stdSvc,
			BillingSvc:  billSvc,
			ScheduleSvc: schSvc,
			Validate:    validate,
			Translator:  translator,
		},
	)
	return &testApp{
		app:     app,
		grdRepo: grdRepo,
		grdSvc:  grdSvc,
		stdSvc:  stdSvc,
		billSvc: billSvc,
		schSvc:  schSvc,
	}
}

// do performs one request against the app; a non-nil body is sent as JSON.
func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.app.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) createAdmin(t *testing.T) (guardian.Guardian, string) {
	t.Helper()

	grd, err := a.grdSvc.CreateAdmin(context.Background(), guardian.NewAdmin{
		Name:            "Coach Ana",
		Email:           "coach@test.br",
		Password:        "Sup3r!Pwd",
		PasswordConfirm: "Sup3r!Pwd",
	})
	require.NoError(t, err)
	return grd, a.token(t, grd)
}

func (a *testApp) createGuardian(t *testing.T, name, email, pwd string, active bool) guardian.Guardian {
	t.Helper()

	now := time.Now().UTC()
	grd := guardian.Guardian{
		Name:       name,
		Email:      email,
		Phone:      "+55 11 91234-5678",
		Role:       guardian.RoleGuardian,
		StudentIDs: []string{},
		IsActive:   active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, grd.SetPassword(pwd))
	grd, err := a.grdRepo.CreateGuardian(context.Background(), grd)
	require.NoError(t, err)
	return grd
}

func (a *testApp) registerStudent(t *testing.T, name, category, guardianEmail string) student.Registration {
	t.Helper()

	reg, err := a.stdSvc.Register(context.Background(), student.NewStudent{
		Name:        name,
		DateOfBirth: "2015-06-15",
		Category:    category,
	}, guardian.ResolveGuardian{
		Name:  "Guardian of " + name,
		Email: guardianEmail,
		Phone: "+55 11 91234-5678",
	})
	require.NoError(t, err)
	return reg
}

func (a *testApp) token(t *testing.T, grd guardian.Guardian) string {
	t.Helper()

	token, err := echoapi.GenerateToken(echoapi.GetGuardianClaims(grd))
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

type httpErr struct {
	Error string `json:"error"`
}

func checkErr(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantErr string) {
	t.Helper()

	require.Equal(t, wantCode, rec.Code, "body: %s", rec.Body.String())
	var body httpErr
	decode(t, rec, &body)
	require.Equal(t, wantErr, body.Error)
}
