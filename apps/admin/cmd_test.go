package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/chuteinicial/backend/core/guardian"
	"github.com/chuteinicial/backend/storage/database"
	inmemdb "github.com/chuteinicial/backend/storage/database/inmem"
)

var grdRepo guardian.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()

	db := inmemdb.NewDB()
	grdRepo = inmemdb.NewGuardianRepository(db)
	return &commandLine{grdRepo: grdRepo}
}

func createGuardian(t *testing.T, name, email, pwd, role string) guardian.Guardian {
	t.Helper()

	now := time.Now().UTC()
	grd := guardian.Guardian{
		Name:       name,
		Email:      email,
		Role:       role,
		StudentIDs: []string{},
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if pwd != "" {
		if err := grd.SetPassword(pwd); err != nil {
			t.Fatalf("createGuardian() failed: %v", err)
		}
	}
	grd, err := grdRepo.CreateGuardian(context.Background(), grd)
	if err != nil {
		t.Fatalf("createGuardian() failed: %v", err)
	}
	return grd
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	grd := createGuardian(t, "Maria Souza", "maria@test.br", "mdr", guardian.RoleGuardian)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.br"}, wantErr: errHelp},
		{name: "guardian not found", args: []string{"resetpassword", "-email", "lol@test.br"}, pwd: "lol", wantErr: guardian.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", grd.Email}, pwd: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := grdRepo.GetGuardianByID(context.Background(), grd.ID)
				if err != nil {
					t.Fatalf("GetGuardianByID() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, grd.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)

	existing := createGuardian(t, "Joana Lima", "joana@test.br", "mdr", guardian.RoleGuardian)

	tests := []cliTest{
		{name: "no args", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "name but no email", args: []string{"createadmin", "-name", "Admin"}, wantErr: errHelp},
		{name: "no password", args: []string{"createadmin", "-name", "Admin", "-email", "admin@test.br"}, wantErr: errHelp},
		{name: "email taken", args: []string{"createadmin", "-name", "Admin", "-email", existing.Email}, pwd: "S3cret!pwd", wantErr: guardian.ErrEmailExists},
		{name: "create", args: []string{"createadmin", "-name", "Admin", "-email", "admin@test.br"}, pwd: "S3cret!pwd"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				grd, err := grdRepo.GetGuardianByEmail(context.Background(), "admin@test.br")
				if err != nil {
					t.Fatalf("GetGuardianByEmail() failed: %v", err)
				}
				if !grd.IsAdmin() {
					t.Errorf("created account role = %q, want %q", grd.Role, guardian.RoleAdmin)
				}
				if grd.CheckPassword(tt.pwd) != nil {
					t.Error("created account password does not match")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	migrateFunc = func(db *database.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate was not invoked")
	}
}
