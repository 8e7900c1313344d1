package student

import (
	"context"
	"errors"
	"time"

	"github.com/kat-co/vala"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/artlearn/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		// FindOrCreateStudentByName returns the student named like std.Name (case-insensitive),
		// creating it atomically when absent. The bool reports whether it was created.
		FindOrCreateStudentByName(ctx context.Context, std Student) (Student, bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	std := Student{
		Name:      ns.Name,
		Email:     null.NewString(ns.Email, ns.Email != ""),
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	if id <= 0 {
		return Student{}, ErrNotFound
	}
	return svc.repo.GetStudent(ctx, id)
}

// FindOrCreateByName resolves a student by name, creating one with no email if none exists.
// Same-named students are not disambiguated: the oldest match wins.
func (svc *Service) FindOrCreateByName(ctx context.Context, name string) (Student, bool, error) {
	name = core.CleanString(name)
	if name == "" {
		return Student{}, false, core.NewValidationError(nil, core.FieldError{Field: "studentName", Error: "this field cannot be blank"})
	}
	return svc.repo.FindOrCreateStudentByName(ctx, Student{Name: name, CreatedAt: time.Now().UTC()})
}
