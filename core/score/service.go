package score

import (
	"context"
	"errors"
	"time"

	"github.com/kat-co/vala"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/student"
)

var (
	// errors
	ErrNotFound = errors.New("score not found")
)

type (
	Repository interface {
		CreateScore(ctx context.Context, sc Score, exec ...core.DBExecutor) (Score, error)
		// QueryScores returns scores joined with their student's name, newest test first by default.
		QueryScores(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Score, error)
		GetScore(ctx context.Context, id int, exec ...core.DBExecutor) (Score, error)
	}

	// StudentResolver is the part of student.Service a Service needs.
	StudentResolver interface {
		GetByID(ctx context.Context, id int) (student.Student, error)
		FindOrCreateByName(ctx context.Context, name string) (student.Student, bool, error)
	}

	Service struct {
		repo     Repository
		students StudentResolver
	}
)

func NewService(repo Repository, students StudentResolver) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(students, "students"),
	).CheckAndPanic()

	return &Service{repo: repo, students: students}
}

// Create records a validated NewScore entered by the admin `enteredBy`.
func (svc *Service) Create(ctx context.Context, ns NewScore, enteredBy int) (Score, error) {
	var std student.Student
	var err error

	if ns.StudentID > 0 {
		std, err = svc.students.GetByID(ctx, ns.StudentID)
		if err != nil {
			if err == student.ErrNotFound {
				return Score{}, core.NewValidationError(err, core.FieldError{Field: "studentId", Error: err.Error()})
			}
			return Score{}, err
		}
	} else {
		std, _, err = svc.students.FindOrCreateByName(ctx, ns.StudentName)
		if err != nil {
			return Score{}, err
		}
	}

	sc := Score{
		StudentID: std.ID,
		Subject:   ns.Subject,
		Marks:     FormatDecimal(ns.Marks),
		MaxMarks:  FormatDecimal(ns.MaxMarks),
		TestDate:  ns.TestDate.UTC(),
		EnteredBy: enteredBy,
		CreatedAt: time.Now().UTC(),
	}
	sc, err = svc.repo.CreateScore(ctx, sc)
	if err != nil {
		return Score{}, err
	}
	sc.StudentName.SetValid(std.Name)
	return sc, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Score, error) {
	return svc.repo.QueryScores(ctx, filter, ordering)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Score, error) {
	return svc.repo.QueryScores(ctx, nil, nil)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Score, error) {
	if id <= 0 {
		return Score{}, ErrNotFound
	}
	return svc.repo.GetScore(ctx, id)
}
