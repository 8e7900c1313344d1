package main

import (
	"context"
	"fmt"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/setting"
)

func (cli *commandLine) setSecret(value string) error {
	us := setting.UpdateSetting{Value: value}
	if err := us.Validate(cli.validate); err != nil {
		return cli.describeErr(err)
	}
	if _, err := cli.settingSvc.Set(context.Background(), core.StudentSecretKeySetting, us.Value); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "student secret key updated")
	return nil
}
