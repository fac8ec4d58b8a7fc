package main

import "context"

// resetPassword only touches existing users.
func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	if _, err := cli.usrSvc.GetByEmail(ctx, email); err != nil {
		return err
	}
	_, err := cli.usrSvc.SetPassword(ctx, email, pwd)
	return err
}
