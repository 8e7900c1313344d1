package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/student"
	"github.com/trezcool/artlearn/storage/database"
)

const studentColumns = "id, name, email, created_at"

type studentRepository struct {
	repo
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db core.DB) *studentRepository {
	return &studentRepository{repo{db: db}}
}

func (r studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	e := r.getExec(exec)
	q := e.Rebind("INSERT INTO students (name, email, created_at) VALUES (?, ?, ?) RETURNING id")
	if err := e.GetContext(ctx, &std.ID, q, std.Name, std.Email, std.CreatedAt.UTC()); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (r studentRepository) QueryStudents(ctx context.Context, exec ...core.DBExecutor) ([]student.Student, error) {
	students := make([]student.Student, 0)
	q := "SELECT " + studentColumns + " FROM students ORDER BY name, id"
	if err := r.getExec(exec).SelectContext(ctx, &students, q); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return students, nil
}

func (r studentRepository) GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (student.Student, error) {
	e := r.getExec(exec)
	var std student.Student
	if err := e.GetContext(ctx, &std, e.Rebind("SELECT "+studentColumns+" FROM students WHERE id = ?"), id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "selecting student by id")
	}
	return std, nil
}

// FindOrCreateStudentByName looks the name up and inserts it within one transaction.
// PostgreSQL serialises concurrent calls on the same name with an advisory lock;
// SQLite transactions are opened with BEGIN IMMEDIATE, which takes the write lock upfront.
func (r studentRepository) FindOrCreateStudentByName(ctx context.Context, std student.Student) (student.Student, bool, error) {
	var created bool
	err := core.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if tx.DriverName() == database.EnginePostgres {
			if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(lower($1)))", std.Name); err != nil {
				return errors.Wrap(err, "locking student name")
			}
		}

		var found student.Student
		q := tx.Rebind("SELECT " + studentColumns + " FROM students WHERE lower(name) = lower(?) ORDER BY id LIMIT 1")
		err := tx.GetContext(ctx, &found, q, std.Name)
		if err == nil {
			std = found
			return nil
		}
		if err = trapNoRowsErr(err, student.ErrNotFound, "selecting student by name"); err != student.ErrNotFound {
			return err
		}

		std, err = r.CreateStudent(ctx, std, tx)
		created = err == nil
		return err
	})
	if err != nil {
		return student.Student{}, false, err
	}
	return std, created, nil
}
