package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/score"
	"github.com/trezcool/artlearn/core/setting"
	"github.com/trezcool/artlearn/core/user"
	"github.com/trezcool/artlearn/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword       // mockable
	migrateFunc      = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	validate   *validator.Validate
	translator ut.Translator
	usrSvc     *user.Service
	scoreSvc   *score.Service
	settingSvc *setting.Service
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME - create an administrator, the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a migrations command (up, down, status, version, redo, reset, up-to, down-to)")
	fmt.Fprintln(cli.out, "  setsecret -value KEY - change the student secret key")
	fmt.Fprintln(cli.out, "  importscores -file FILE.xlsx -admin USERNAME - record the scores of a spreadsheet")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The new user's username. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	setSecretCmd := flag.NewFlagSet("setsecret", flag.ExitOnError)
	setSecretValue := setSecretCmd.String("value", "", "The new student secret key.")

	importScoresCmd := flag.NewFlagSet("importscores", flag.ExitOnError)
	importScoresFile := importScoresCmd.String("file", "", "Path to an .xlsx workbook: student, subject, marks, max marks, test date.")
	importScoresAdmin := importScoresCmd.String("admin", "", "Username recorded as the scores' author.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, confirm, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, pwd, confirm)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, confirm, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd, confirm)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "setsecret":
		if err := setSecretCmd.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*setSecretValue) == "" {
			setSecretCmd.Usage()
			return errHelp
		}
		return cli.setSecret(*setSecretValue)

	case "importscores":
		if err := importScoresCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importScoresFile == "" || *importScoresAdmin == "" {
			importScoresCmd.Usage()
			return errHelp
		}
		return cli.importScoresFile(*importScoresFile, *importScoresAdmin)

	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads the password and its confirmation without echo.
func (cli *commandLine) promptPassword() (string, string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", "", err
	}
	if len(pwd) == 0 {
		return "", "", nil
	}

	fmt.Fprint(cli.out, "Confirm password:")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", "", err
	}
	return string(pwd), string(confirm), nil
}

// describeErr flattens validation errors into "field: message" lines.
func (cli *commandLine) describeErr(err error) error {
	switch e := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		msgs := make([]string, 0, len(e))
		for _, fe := range e {
			msgs = append(msgs, fe.Field()+": "+fe.Translate(cli.translator))
		}
		sort.Strings(msgs)
		return errors.New(strings.Join(msgs, "; "))
	case *core.ValidationError:
		if len(e.Fields) == 0 {
			return e
		}
		msgs := make([]string, 0, len(e.Fields))
		for _, fe := range e.Fields {
			msgs = append(msgs, fe.Field+": "+fe.Error)
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return err
}
