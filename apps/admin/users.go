package main

import (
	"context"
	"fmt"

	"github.com/trezcool/artlearn/core/user"
)

func (cli *commandLine) addUser(uname, pwd, confirm string) error {
	nu := user.NewUser{Username: uname, Password: pwd, PasswordConfirm: confirm}
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return cli.describeErr(err)
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q created\n", usr.Username)
	return nil
}

func (cli *commandLine) resetPassword(uname, pwd, confirm string) error {
	rp := user.ResetUserPassword{Username: uname, Password: pwd, PasswordConfirm: confirm}
	if err := rp.Validate(cli.validate); err != nil {
		return cli.describeErr(err)
	}
	return cli.usrSvc.ResetPassword(context.Background(), rp)
}
