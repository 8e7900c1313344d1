package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/artlearn/core"
)

type Student struct {
	ID        int         `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Email     null.String `json:"email" db:"email"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"` // UTC
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name  string `json:"name" validate:"required,notblank,max=255"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}
