package material

import (
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/artlearn/core"
)

// Material is an uploaded PDF study document.
// Filename is the stored (unique) file name, FilePath its location in the FileStore.
type Material struct {
	ID          int         `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Subject     string      `json:"subject" db:"subject"`
	Description null.String `json:"description" db:"description"`
	Filename    string      `json:"filename" db:"filename"`
	FilePath    string      `json:"filePath" db:"file_path"`
	UploadedBy  int         `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"` // UTC
}

// NewMaterial contains the form fields needed to create a new Material.
type NewMaterial struct {
	Title       string `form:"title" json:"title" validate:"required,notblank,max=255"`
	Subject     string `form:"subject" json:"subject" validate:"required,notblank,max=255"`
	Description string `form:"description" json:"description" validate:"omitempty,max=2000"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Subject = core.CleanString(nm.Subject)
	nm.Description = core.CleanString(nm.Description)
	return validate.Struct(nm)
}

// Upload is a file received from a client.
type Upload struct {
	Name    string // client side file name
	Size    int64
	Content io.Reader
}

// StoredFile is an Upload persisted by a FileStore.
type StoredFile struct {
	Filename string
	Path     string
}

type QueryFilter struct {
	Subject string `query:"subject"`
}

func (qf *QueryFilter) Clean() {
	qf.Subject = core.CleanString(qf.Subject)
}
