package main

import (
	"context"
	"time"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/guardian"
)

// createAdmin creates an admin account; the email must not be taken.
func (cli *commandLine) createAdmin(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	_, err := cli.grdRepo.GetGuardianByEmail(ctx, email)
	switch err {
	case guardian.ErrNotFound: // pass
	case nil:
		return guardian.ErrEmailExists
	default:
		return err
	}

	now := time.Now().UTC()
	grd := guardian.Guardian{
		Name:       name,
		Email:      email,
		Role:       guardian.RoleAdmin,
		StudentIDs: []string{},
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = grd.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.grdRepo.CreateGuardian(ctx, grd)
	return err
}
