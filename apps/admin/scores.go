package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/services/spreadsheet"
)

// importScoresFile records every valid row of the workbook at path. Invalid rows are reported and skipped.
func (cli *commandLine) importScoresFile(path, adminUname string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening workbook")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()

	_, err = cli.importScores(f, adminUname)
	return err
}

func (cli *commandLine) importScores(r io.Reader, adminUname string) (int, error) {
	ctx := context.Background()

	admin, err := cli.usrSvc.GetByUsername(ctx, adminUname)
	if err != nil {
		return 0, errors.Wrapf(err, "looking up %q", adminUname)
	}
	if !admin.IsAdmin() {
		return 0, errors.Errorf("%q is not an administrator", admin.Username)
	}

	rows, rowErrs, err := spreadsheet.ReadScores(r)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, row := range rows {
		ns := row.Score
		if err = ns.Validate(cli.validate); err != nil {
			rowErrs = append(rowErrs, spreadsheet.RowError{Row: row.Row, Err: cli.describeErr(err)})
			continue
		}
		if _, err = cli.scoreSvc.Create(ctx, ns, admin.ID); err != nil {
			return created, errors.Wrapf(err, "row %d", row.Row)
		}
		created++
	}

	for _, re := range rowErrs {
		fmt.Fprintf(cli.out, "skipped %v\n", re)
	}
	fmt.Fprintf(cli.out, "%d score(s) imported, %d row(s) skipped\n", created, len(rowErrs))
	return created, nil
}
