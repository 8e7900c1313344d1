package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/material"
)

const materialColumns = "id, title, subject, description, filename, file_path, uploaded_by, created_at"

type materialRepository struct {
	repo
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db core.DB) *materialRepository {
	return &materialRepository{repo{db: db}}
}

func (r materialRepository) CreateMaterial(ctx context.Context, mat material.Material, exec ...core.DBExecutor) (material.Material, error) {
	e := r.getExec(exec)
	q := e.Rebind(`INSERT INTO materials (title, subject, description, filename, file_path, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := e.GetContext(ctx, &mat.ID, q,
		mat.Title, mat.Subject, mat.Description, mat.Filename, mat.FilePath, mat.UploadedBy, mat.CreatedAt.UTC(),
	)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return mat, nil
}

func (r materialRepository) QueryMaterials(ctx context.Context, filter *material.QueryFilter, exec ...core.DBExecutor) ([]material.Material, error) {
	e := r.getExec(exec)
	q := "SELECT " + materialColumns + " FROM materials"
	var args []interface{}
	if filter != nil && filter.Subject != "" {
		q += " WHERE subject = ?"
		args = append(args, filter.Subject)
	}
	q += " ORDER BY created_at DESC, id DESC"

	mats := make([]material.Material, 0)
	if err := e.SelectContext(ctx, &mats, e.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting materials")
	}
	return mats, nil
}

func (r materialRepository) GetMaterial(ctx context.Context, id int, exec ...core.DBExecutor) (material.Material, error) {
	e := r.getExec(exec)
	var mat material.Material
	if err := e.GetContext(ctx, &mat, e.Rebind("SELECT "+materialColumns+" FROM materials WHERE id = ?"), id); err != nil {
		return material.Material{}, trapNoRowsErr(err, material.ErrNotFound, "selecting material by id")
	}
	return mat, nil
}

func (r materialRepository) DeleteMaterial(ctx context.Context, id int, exec ...core.DBExecutor) error {
	e := r.getExec(exec)
	res, err := e.ExecContext(ctx, e.Rebind("DELETE FROM materials WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	if n == 0 {
		return material.ErrNotFound
	}
	return nil
}

func (r materialRepository) QueryFilenames(ctx context.Context, exec ...core.DBExecutor) ([]string, error) {
	names := make([]string, 0)
	if err := r.getExec(exec).SelectContext(ctx, &names, "SELECT filename FROM materials"); err != nil {
		return nil, errors.Wrap(err, "selecting material filenames")
	}
	return names, nil
}
