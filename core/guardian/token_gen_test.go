package guardian

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	secretKey = []byte("secret")
	passwordResetTimeoutDelta = 3 * 24 * time.Hour

	now := time.Now()
	grd := Guardian{
		ID:        "5f6c9c6e-9f4e-4d0a-8b3f-1f2e3d4c5b6a",
		Name:      "T",
		Email:     "t@test.test",
		Role:      RoleGuardian,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = grd.SetPassword("pwd")

	validToken := makeToken(grd)

	// generate an expired token
	dayLate := passwordResetTimeoutDelta + (24 * time.Hour)
	nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken := makeToken(grd)
	nowFunc = time.Now // reset

	tests := []struct {
		name    string
		grd     Guardian
		token   string
		wantErr error
	}{
		{name: "no token", grd: grd, wantErr: errInvalidToken},
		{name: "invalid parts len", grd: grd, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", grd: grd, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", grd: grd, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", grd: grd, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", grd: grd, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", grd: grd, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(tt.grd, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenInvalidatedByPasswordChange(t *testing.T) {
	secretKey = []byte("secret")
	passwordResetTimeoutDelta = 3 * 24 * time.Hour

	grd := Guardian{ID: "uid-1", Email: "t@test.test"}
	_ = grd.SetPassword("old")

	token := makeToken(grd)
	if err := verifyToken(grd, token); err != nil {
		t.Fatalf("verifyToken() on fresh token: %v", err)
	}

	_ = grd.SetPassword("new")
	if err := verifyToken(grd, token); err != errInvalidToken {
		t.Errorf("verifyToken() after password change error = %v, want %v", err, errInvalidToken)
	}
}
