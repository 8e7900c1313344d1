package main

import (
	"log"
	"os"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/score"
	"github.com/trezcool/artlearn/core/setting"
	"github.com/trezcool/artlearn/core/student"
	"github.com/trezcool/artlearn/core/user"
	logsvc "github.com/trezcool/artlearn/services/logger"
	"github.com/trezcool/artlearn/storage/database"
	"github.com/trezcool/artlearn/storage/database/sqlxrepos"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	rl := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	rl.Enable(!conf.Debug)
	logger = rl
	database.SetMigrationsLogger(rl)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	score.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	// start CLI
	cli := commandLine{
		db:         db,
		validate:   validate,
		translator: translator,
		usrSvc:     user.NewService(sqlxrepos.NewUserRepository(db)),
		scoreSvc: score.NewService(
			sqlxrepos.NewScoreRepository(db),
			student.NewService(sqlxrepos.NewStudentRepository(db)),
		),
		settingSvc: setting.NewService(sqlxrepos.NewSettingRepository(db)),
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed: " + err.Error())
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
