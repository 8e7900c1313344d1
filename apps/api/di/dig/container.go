package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/artlearn/apps/api/echo"
	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/material"
	"github.com/trezcool/artlearn/core/score"
	"github.com/trezcool/artlearn/core/setting"
	"github.com/trezcool/artlearn/core/student"
	"github.com/trezcool/artlearn/core/user"
	logsvc "github.com/trezcool/artlearn/services/logger"
	"github.com/trezcool/artlearn/storage/database"
	"github.com/trezcool/artlearn/storage/database/sqlxrepos"
	"github.com/trezcool/artlearn/storage/files"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	Validate    *validator.Validate
	Translator  ut.Translator
	UserSvc     *user.Service
	StudentSvc  *student.Service
	ScoreSvc    *score.Service
	MaterialSvc *material.Service
	SettingSvc  *setting.Service
	Files       echoapi.FileLocator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	if gl, ok := loggerParam.Logger.(goose.Logger); ok {
		database.SetMigrationsLogger(gl)
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newScoreService(repo score.Repository, students *student.Service) *score.Service {
	return score.NewService(repo, students)
}

func newSweeper(conf *core.Config, svc *material.Service, logger core.Logger) *files.Sweeper {
	return files.NewSweeper(svc, conf.Uploads.SweepInterval, logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Deps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		UserSvc:     p.UserSvc,
		StudentSvc:  p.StudentSvc,
		ScoreSvc:    p.ScoreSvc,
		MaterialSvc: p.MaterialSvc,
		SettingSvc:  p.SettingSvc,
		Files:       p.Files,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(core.NewValidator))

	// storage
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewStudentRepository, dig.As(new(student.Repository))))
	must(c.Provide(sqlxrepos.NewScoreRepository, dig.As(new(score.Repository))))
	must(c.Provide(sqlxrepos.NewMaterialRepository, dig.As(new(material.Repository))))
	must(c.Provide(sqlxrepos.NewSettingRepository, dig.As(new(setting.Repository))))
	must(c.Provide(files.NewDiskStore, dig.As(new(material.FileStore), new(echoapi.FileLocator))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(newScoreService))
	must(c.Provide(material.NewService))
	must(c.Provide(setting.NewService))
	must(c.Provide(newSweeper))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
