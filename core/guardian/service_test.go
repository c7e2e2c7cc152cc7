package guardian_test

import (
	"context"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/guardian"
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
}

type testLogger struct {
	warns []string
}

func (l *testLogger) Debug(msg string, args ...interface{}) {}
func (l *testLogger) Info(msg string, args ...interface{})  {}
func (l *testLogger) Warn(msg string, args ...interface{})  { l.warns = append(l.warns, msg) }
func (l *testLogger) Error(msg string, args ...interface{}) {}
func (l *testLogger) Fatal(msg string, args ...interface{}) {}

func TestMain(m *testing.M) {
	conf.WorkDir = core.Getwd()
	core.ParseEmailTemplates(conf, &testLogger{})
	os.Exit(m.Run())
}

func setup(t *testing.T) (*guardian.Service, *testLogger) {
	t.Helper()

	db := inmemdb.NewDB()
	repo := inmemdb.NewGuardianRepository(db)
	logger := &testLogger{}
	svc := guardian.NewService(repo, emailsvc.NewConsoleServiceMock(conf), logger, conf)
	return svc, logger
}

func TestService_Resolve(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	res, err := svc.Resolve(ctx, guardian.ResolveGuardian{
		Name:  "Maria Souza",
		Email: "maria@test.br",
		Phone: "+55 11 91234-5678",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, guardian.RoleGuardian, res.Guardian.Role)
	assert.Empty(t, res.Guardian.StudentIDs)
	assert.True(t, res.Guardian.IsActive)
	assert.NotEmpty(t, res.Guardian.PasswordHash, "a temporary credential must be provisioned")

	// same email resolves to the same identity; contact info is refreshed
	res2, err := svc.Resolve(ctx, guardian.ResolveGuardian{
		Name:  "Maria S. Souza",
		Email: "maria@test.br",
		Phone: "+55 11 99999-0000",
	})
	require.NoError(t, err)
	assert.False(t, res2.Created)
	assert.Equal(t, res.Guardian.ID, res2.Guardian.ID)
	assert.Equal(t, "Maria S. Souza", res2.Guardian.Name)
	assert.Equal(t, "+55 11 99999-0000", res2.Guardian.Phone)
	assert.Equal(t, res.Guardian.PasswordHash, res2.Guardian.PasswordHash, "credential must not be rotated")
}

func TestService_RemoveStudentLink_missingGuardian(t *testing.T) {
	svc, logger := setup(t)

	err := svc.RemoveStudentLink(context.Background(), "ghost", "some-student")
	require.NoError(t, err, "a missing guardian is tolerated")
	assert.Len(t, logger.warns, 1)
}

func TestService_PasswordResetFlow(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	res, err := svc.Resolve(ctx, guardian.ResolveGuardian{
		Name:  "Joana Lima",
		Email: "joana@test.br",
		Phone: "+55 21 98888-7777",
	})
	require.NoError(t, err)

	emailsvc.ClearSentMessages()
	require.NoError(t, svc.RequestPasswordReset(ctx, "joana@test.br"))
	require.Len(t, emailsvc.SentMessages, 1)

	data, ok := emailsvc.SentMessages[0].TemplateData.(struct{ Name, UID, Token string })
	require.True(t, ok, "unexpected template data: %T", emailsvc.SentMessages[0].TemplateData)

	err = svc.ResetPassword(ctx, guardian.ResetGuardianPassword{
		Token:           data.Token,
		UID:             data.UID,
		Password:        "N3w!Passw0rd",
		PasswordConfirm: "N3w!Passw0rd",
	})
	require.NoError(t, err)

	grd, err := svc.GetByEmail(ctx, "joana@test.br")
	require.NoError(t, err)
	assert.NoError(t, grd.CheckPassword("N3w!Passw0rd"))
	assert.NotEqual(t, res.Guardian.PasswordHash, grd.PasswordHash)

	// a used token is invalidated by the password change
	err = svc.ResetPassword(ctx, guardian.ResetGuardianPassword{
		Token:           data.Token,
		UID:             data.UID,
		Password:        "An0ther!Pwd",
		PasswordConfirm: "An0ther!Pwd",
	})
	assert.Error(t, err)
}
