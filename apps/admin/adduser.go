package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// addUser creates an active admin user, or reactivates an existing one with a new password.
func (cli *commandLine) addUser(email, pwd string) error {
	usr, err := cli.usrSvc.SetPassword(context.Background(), email, pwd)
	if err != nil {
		return errors.Wrap(err, "adding user")
	}
	fmt.Printf("user %s is ready\n", usr.Email)
	return nil
}
