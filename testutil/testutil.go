// Package testutil provides a migrated in-memory database and fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/material"
	"github.com/trezcool/artlearn/core/score"
	"github.com/trezcool/artlearn/core/student"
	"github.com/trezcool/artlearn/core/user"
	"github.com/trezcool/artlearn/storage/database"
)

// OpenDB opens a fresh in-memory SQLite database with every migration applied.
// It is closed when the test ends.
func OpenDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := database.Open(core.NewTestConfig())
	if err != nil {
		t.Fatalf("OpenDB(): %v", err)
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("OpenDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// OpenFileDB is OpenDB over a SQLite file in a temporary dir, so that several connections share it.
func OpenFileDB(t testing.TB) *sqlx.DB {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Database.Path = filepath.Join(t.TempDir(), "artlearn.db")
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("OpenFileDB(): %v", err)
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("OpenFileDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func CreateUser(t testing.TB, repo user.Repository, uname, pwd string, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Role:      user.RoleAdmin,
		CreatedAt: tstamp,
	}
	if pwd == "" {
		pwd = "Pwd-" + uname + "-1"
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func CreateStudent(t testing.TB, repo student.Repository, name, email string) student.Student {
	t.Helper()

	std, err := repo.CreateStudent(context.Background(), student.Student{
		Name:      name,
		Email:     null.NewString(email, email != ""),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	return std
}

func CreateScore(
	t testing.TB,
	repo score.Repository,
	std student.Student,
	enteredBy user.User,
	subject, marks, maxMarks string,
	testDate time.Time,
) score.Score {
	t.Helper()

	sc, err := repo.CreateScore(context.Background(), score.Score{
		StudentID: std.ID,
		Subject:   subject,
		Marks:     score.FormatDecimal(marks),
		MaxMarks:  score.FormatDecimal(maxMarks),
		TestDate:  testDate.UTC(),
		EnteredBy: enteredBy.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateScore(): %v", err)
	}
	sc.StudentName = null.StringFrom(std.Name)
	return sc
}

func CreateMaterial(t testing.TB, repo material.Repository, uploadedBy user.User, title, subject, filename string, createdAt time.Time) material.Material {
	t.Helper()

	mat, err := repo.CreateMaterial(context.Background(), material.Material{
		Title:      title,
		Subject:    subject,
		Filename:   filename,
		FilePath:   filename,
		UploadedBy: uploadedBy.ID,
		CreatedAt:  createdAt.UTC(),
	})
	if err != nil {
		t.Fatalf("CreateMaterial(): %v", err)
	}
	return mat
}

// NopLogger is a core.Logger discarding everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
