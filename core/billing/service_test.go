package billing_test

import (
	"context"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/billing"
	"github.com/chuteinicial/backend/core/guardian"
	"github.com/chuteinicial/backend/core/student"
	emailsvc "github.com/chuteinicial/backend/services/email"
	inmemdb "github.com/chuteinicial/backend/storage/database/inmem"
)

var conf = &core.Config{
	AppName:                   "ChuteInicial",
	TestMode:                  true,
	SecretKey:                 "secret",
	FrontendBaseURL:           "http://localhost:5173",
	DefaultFromEmail:          mail.Address{Name: "ChuteInicial", Address: "noreply@localhost"},
	PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	Billing:                   core.BillingConfig{DefaultMonthlyFee: 80},
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func TestMain(m *testing.M) {
	conf.WorkDir = core.Getwd()
	core.ParseEmailTemplates(conf, nopLogger{})
	os.Exit(m.Run())
}

type fixture struct {
	billing  *billing.Service
	students *student.Service
}

func setup(t *testing.T) fixture {
	t.Helper()

	db := inmemdb.NewDB()
	grdRepo := inmemdb.NewGuardianRepository(db)
	stdRepo := inmemdb.NewStudentRepository(db)
	chgRepo := inmemdb.NewChargeRepository(db)
	grdSvc := guardian.NewService(grdRepo, emailsvc.NewConsoleServiceMock(conf), nopLogger{}, conf)
	return fixture{
		billing:  billing.NewService(db, chgRepo, grdRepo, stdRepo, nopLogger{}, conf),
		students: student.NewService(db, stdRepo, grdSvc, nopLogger{}),
	}
}

func (f fixture) register(t *testing.T, name, category, guardianEmail string, active bool) student.Registration {
	t.Helper()

	reg, err := f.students.Register(context.Background(), student.NewStudent{
		Name:        name,
		DateOfBirth: "2015-06-15",
		Category:    category,
		Active:      &active,
	}, guardian.ResolveGuardian{
		Name:  "Guardian of " + name,
		Email: guardianEmail,
		Phone: "+55 11 91234-5678",
	})
	require.NoError(t, err)
	return reg
}

func TestService_Issue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	reg := f.register(t, "Pedro Souza", "Sub-9", "maria@test.br", true)

	chg, err := f.billing.Issue(ctx, billing.NewCharge{
		GuardianID:     reg.Guardian.ID,
		StudentID:      reg.Student.ID,
		ReferenceMonth: "2026-08",
		Amount:         80,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, chg.ID)
	assert.Equal(t, billing.StatusPending, chg.Status)
	assert.Equal(t, "Pedro Souza", chg.StudentName, "student name is denormalized from the record")
	assert.Equal(t, "maria@test.br", chg.GuardianEmail, "guardian email is denormalized from the record")

	// a repeated issue for the same (student, month) is suppressed
	_, err = f.billing.Issue(ctx, billing.NewCharge{
		GuardianID:     reg.Guardian.ID,
		StudentID:      reg.Student.ID,
		ReferenceMonth: "2026-08",
		Amount:         120,
	})
	require.Error(t, err)
	assert.True(t, core.IsConflict(err))

	// a different month is a distinct charge
	_, err = f.billing.Issue(ctx, billing.NewCharge{
		GuardianID:     reg.Guardian.ID,
		StudentID:      reg.Student.ID,
		ReferenceMonth: "2026-09",
		Amount:         80,
	})
	require.NoError(t, err)

	charges, err := f.billing.Query(ctx, &billing.QueryFilter{StudentID: reg.Student.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, charges, 2)
}

func TestService_Issue_unknownStudent(t *testing.T) {
	f := setup(t)

	_, err := f.billing.Issue(context.Background(), billing.NewCharge{
		GuardianID:     "ghost",
		StudentID:      "ghost",
		ReferenceMonth: "2026-08",
		Amount:         80,
	})
	assert.Equal(t, student.ErrNotFound, err)
}

func TestService_IssueMonthly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// guardian with two active students, one already billed for the month
	reg1 := f.register(t, "Pedro Souza", "Sub-9", "maria@test.br", true)
	f.register(t, "Paula Souza", "Sub-7", "maria@test.br", true)
	// guardian with only an inactive student
	f.register(t, "Lucas Dias", "Sub-11", "carla@test.br", false)

	_, err := f.billing.Issue(ctx, billing.NewCharge{
		GuardianID:     reg1.Guardian.ID,
		StudentID:      reg1.Student.ID,
		ReferenceMonth: "2026-08",
		Amount:         80,
	})
	require.NoError(t, err)

	summary, err := f.billing.IssueMonthly(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created, "only the unbilled active student gets a charge")
	assert.Equal(t, 1, summary.Skipped)
	assert.NotEmpty(t, summary.Message)

	// re-running the same month is a no-op
	summary, err = f.billing.IssueMonthly(ctx, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 2, summary.Skipped)

	charges, err := f.billing.Query(ctx, &billing.QueryFilter{ReferenceMonth: "2026-08"}, nil)
	require.NoError(t, err)
	require.Len(t, charges, 2)
	for _, chg := range charges {
		assert.Equal(t, billing.StatusPending, chg.Status)
		assert.NotEmpty(t, chg.StudentName)
		assert.NotEmpty(t, chg.GuardianEmail)
	}
}
