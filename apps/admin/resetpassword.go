package main

import (
	"context"
	"time"

	"github.com/chuteinicial/backend/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	grd, err := cli.grdRepo.GetGuardianByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err := grd.SetPassword(pwd); err != nil {
		return err
	}
	grd.UpdatedAt = time.Now().UTC()
	return cli.grdRepo.SetGuardianPassword(ctx, grd)
}
