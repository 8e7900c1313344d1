package material

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/artlearn/core"
)

var (
	// errors
	ErrNotFound     = errors.New("material not found")
	ErrFileRequired = errors.New("no file uploaded")
	ErrNotPDF       = errors.New("only PDF files are allowed")
	ErrFileTooLarge = errors.New("file is too large")
)

type (
	Repository interface {
		CreateMaterial(ctx context.Context, mat Material, exec ...core.DBExecutor) (Material, error)
		// QueryMaterials returns the materials, newest first.
		QueryMaterials(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Material, error)
		GetMaterial(ctx context.Context, id int, exec ...core.DBExecutor) (Material, error)
		DeleteMaterial(ctx context.Context, id int, exec ...core.DBExecutor) error
		// QueryFilenames returns the stored file name of every material.
		QueryFilenames(ctx context.Context, exec ...core.DBExecutor) ([]string, error)
	}

	// FileStore persists uploaded material files.
	FileStore interface {
		// Save stores a PDF upload under a new unique name. Non-PDF content yields ErrNotPDF.
		Save(ctx context.Context, upload Upload) (StoredFile, error)
		Remove(path string) error
		// Sweep removes stored files not in keep and last modified before olderThan.
		Sweep(keep map[string]struct{}, olderThan time.Time) (int, error)
	}

	Service struct {
		repo    Repository
		store   FileStore
		maxSize int64
		logger  core.Logger
	}
)

func NewService(repo Repository, store FileStore, conf *core.Config, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	if logger == nil {
		panic("Parameter was nil: logger")
	}

	return &Service{repo: repo, store: store, maxSize: conf.Uploads.MaxSize, logger: logger}
}

func fileError(err error) error {
	return core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
}

// Create stores the uploaded file then records the Material. The file is removed if recording fails.
func (svc *Service) Create(ctx context.Context, nm NewMaterial, upload *Upload, uploadedBy int) (Material, error) {
	if upload == nil || upload.Content == nil {
		return Material{}, fileError(ErrFileRequired)
	}
	if svc.maxSize > 0 && upload.Size > svc.maxSize {
		return Material{}, fileError(fmt.Errorf("%w (max %d MiB)", ErrFileTooLarge, svc.maxSize>>20))
	}
	if !strings.EqualFold(filepath.Ext(upload.Name), ".pdf") {
		return Material{}, fileError(ErrNotPDF)
	}

	stored, err := svc.store.Save(ctx, *upload)
	if err != nil {
		if errors.Is(err, ErrNotPDF) || errors.Is(err, ErrFileTooLarge) {
			return Material{}, fileError(err)
		}
		return Material{}, err
	}

	mat := Material{
		Title:       nm.Title,
		Subject:     nm.Subject,
		Description: null.NewString(nm.Description, nm.Description != ""),
		Filename:    stored.Filename,
		FilePath:    stored.Path,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	}
	mat, err = svc.repo.CreateMaterial(ctx, mat)
	if err != nil {
		if rmErr := svc.store.Remove(stored.Path); rmErr != nil {
			svc.logger.Warn(fmt.Sprintf("removing %s: %v", stored.Path, rmErr), rmErr)
		}
		return Material{}, err
	}
	return mat, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Material, error) {
	return svc.repo.QueryMaterials(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Material, error) {
	if id <= 0 {
		return Material{}, ErrNotFound
	}
	return svc.repo.GetMaterial(ctx, id)
}

// Delete removes the Material record and its file. A file already gone is not an error.
func (svc *Service) Delete(ctx context.Context, id int) error {
	mat, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteMaterial(ctx, mat.ID); err != nil {
		return err
	}
	if err = svc.store.Remove(mat.FilePath); err != nil {
		svc.logger.Warn(fmt.Sprintf("removing %s: %v", mat.FilePath, err), err)
	}
	return nil
}

// SweepOrphans removes stored files no Material refers to, if older than minAge.
func (svc *Service) SweepOrphans(ctx context.Context, minAge time.Duration) (int, error) {
	names, err := svc.repo.QueryFilenames(ctx)
	if err != nil {
		return 0, err
	}
	keep := make(map[string]struct{}, len(names))
	for _, name := range names {
		keep[name] = struct{}{}
	}
	return svc.store.Sweep(keep, time.Now().Add(-minAge))
}
