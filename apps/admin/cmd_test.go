package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/score"
	"github.com/trezcool/artlearn/core/setting"
	"github.com/trezcool/artlearn/core/student"
	"github.com/trezcool/artlearn/core/user"
	"github.com/trezcool/artlearn/storage/database/sqlxrepos"
	"github.com/trezcool/artlearn/testutil"
)

type testCLI struct {
	*commandLine
	usrRepo user.Repository
	stdRepo student.Repository
	buf     *bytes.Buffer
}

func setup(t *testing.T) testCLI {
	db := testutil.OpenDB(t)
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	score.InitValidators(validate, translator)
	user.LoadCommonPasswords(testutil.NopLogger{})

	usrRepo := sqlxrepos.NewUserRepository(db)
	stdRepo := sqlxrepos.NewStudentRepository(db)
	buf := new(bytes.Buffer)

	return testCLI{
		commandLine: &commandLine{
			db:         db,
			validate:   validate,
			translator: translator,
			usrSvc:     user.NewService(usrRepo),
			scoreSvc:   score.NewService(sqlxrepos.NewScoreRepository(db), student.NewService(stdRepo)),
			settingSvc: setting.NewService(sqlxrepos.NewSettingRepository(db)),
			out:        buf,
		},
		usrRepo: usrRepo,
		stdRepo: stdRepo,
		buf:     buf,
	}
}

// mockPasswords makes the password prompts return pwds in order.
func mockPasswords(pwds ...string) {
	i := 0
	readPasswordFunc = func(fd int) ([]byte, error) {
		if i >= len(pwds) {
			return nil, nil
		}
		i++
		return []byte(pwds[i-1]), nil
	}
}

type cliTest struct {
	name      string
	args      []string // without program name
	passwords []string
	wantErr   error
	wantFail  bool
}

func runCLITests(t *testing.T, cli testCLI, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			mockPasswords(tt.passwords...)
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantFail:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "setsecret: no value", args: []string{"setsecret"}, wantErr: errHelp},
		{name: "setsecret: blank value", args: []string{"setsecret", "-value", "  "}, wantErr: errHelp},
		{name: "importscores: no admin", args: []string{"importscores", "-file", "scores.xlsx"}, wantErr: errHelp},
	})
	assert.Contains(t, cli.buf.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCmd string
	var gotArgs []string
	migrateFunc = func(db *sqlx.DB, command string, args ...string) error {
		gotCmd, gotArgs = command, args
		if command == "lol" {
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []struct {
		name     string
		args     []string
		wantCmd  string
		wantArgs []string
		wantErr  string
	}{
		{name: "up", args: []string{"up"}, wantCmd: "up", wantArgs: []string{}},
		{name: "up-to", args: []string{"up-to", "2"}, wantCmd: "up-to", wantArgs: []string{"2"}},
		{name: "status", args: []string{"status"}, wantCmd: "status", wantArgs: []string{}},
		{name: "unknown", args: []string{"lol"}, wantCmd: "lol", wantArgs: []string{}, wantErr: `"lol": no such command`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin", "migrate"}, tt.args...))
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCmd, gotCmd)
			assert.Equal(t, tt.wantArgs, append([]string{}, gotArgs...))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, cli.usrRepo, "awe", "")

	runCLITests(t, cli, []cliTest{
		{name: "no username", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "tutor"}, wantErr: errHelp},
		{name: "taken username", args: []string{"adduser", "-username", "AWE"}, passwords: []string{"K1ln-Fired!", "K1ln-Fired!"}, wantFail: true},
		{name: "mismatch", args: []string{"adduser", "-username", "tutor"}, passwords: []string{"K1ln-Fired!", "K1ln-Fired?"}, wantFail: true},
		{name: "weak password", args: []string{"adduser", "-username", "tutor"}, passwords: []string{"12345678", "12345678"}, wantFail: true},
		{name: "created", args: []string{"adduser", "-username", " Tutor "}, passwords: []string{"K1ln-Fired!", "K1ln-Fired!"}},
	})

	usr, err := cli.usrRepo.GetUserByUsername(context.Background(), "tutor")
	if assert.NoError(t, err) {
		assert.True(t, usr.IsAdmin())
		assert.NoError(t, usr.CheckPassword("K1ln-Fired!"))
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.usrRepo, "awe", "")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, passwords: []string{"Gl4ze-Kiln!", "Gl4ze-Kiln!"}, wantErr: user.ErrNotFound},
		{name: "mismatch", args: []string{"resetpassword", "-username", "awe"}, passwords: []string{"Gl4ze-Kiln!", "nope"}, wantFail: true},
		{name: "reset", args: []string{"resetpassword", "-username", usr.Username}, passwords: []string{"Gl4ze-Kiln!", "Gl4ze-Kiln!"}},
	})

	refreshed, err := cli.usrRepo.GetUserByID(context.Background(), usr.ID)
	if assert.NoError(t, err) {
		assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "failed to update new password")
		assert.NoError(t, refreshed.CheckPassword("Gl4ze-Kiln!"))
	}
}

func Test_commandLine_setSecret(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	assert.NoError(t, cli.run([]string{"admin", "setsecret", "-value", " easel-9 "}))

	ok, err := cli.settingSvc.CheckStudentKey(ctx, "easel-9")
	assert.NoError(t, err)
	assert.True(t, ok)
	ok, err = cli.settingSvc.CheckStudentKey(ctx, " easel-9 ")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func scoresWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow(): %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("Write(): %v", err)
	}
	return buf
}

func Test_commandLine_importScores(t *testing.T) {
	cli := setup(t)
	admin := testutil.CreateUser(t, cli.usrRepo, "admin", "")
	ctx := context.Background()

	t.Run("unknown admin", func(t *testing.T) {
		_, err := cli.importScores(scoresWorkbook(t, nil), "nobody")
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})

	t.Run("imported", func(t *testing.T) {
		cli.buf.Reset()
		wb := scoresWorkbook(t, [][]interface{}{
			{"Student", "Subject", "Marks", "Max marks", "Test date"},
			{"Ali", "Math", "45", "50", "2026-10-01"},
			{"Bea", "Art", "9.5", "10", "2026-10-02"},
			{"Cy", "Math", "60", "50", "2026-10-03"},
			{"Dee", "Math", "40", "50", "someday"},
		})
		n, err := cli.importScores(wb, admin.Username)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 2, n)

		out := cli.buf.String()
		assert.Contains(t, out, "skipped row 4: ")
		assert.Contains(t, out, "skipped row 5: invalid test date \"someday\"")
		assert.Contains(t, out, "2 score(s) imported, 2 row(s) skipped")

		scores, err := cli.scoreSvc.QueryAll(ctx)
		assert.NoError(t, err)
		if assert.Len(t, scores, 2) {
			for _, sc := range scores {
				assert.Equal(t, admin.ID, sc.EnteredBy)
			}
		}
		stds, err := cli.stdRepo.QueryStudents(ctx)
		assert.NoError(t, err)
		assert.Len(t, stds, 2, "rejected rows must not create students")
	})
}
