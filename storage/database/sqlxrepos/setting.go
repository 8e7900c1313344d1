package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/setting"
)

type settingRepository struct {
	repo
}

var _ setting.Repository = (*settingRepository)(nil) // interface compliance check

func NewSettingRepository(db core.DB) *settingRepository {
	return &settingRepository{repo{db: db}}
}

func (r settingRepository) GetSetting(ctx context.Context, key string, exec ...core.DBExecutor) (setting.Setting, error) {
	e := r.getExec(exec)
	var s setting.Setting
	q := e.Rebind("SELECT id, key, value, updated_at FROM system_settings WHERE key = ?")
	if err := e.GetContext(ctx, &s, q, key); err != nil {
		return setting.Setting{}, trapNoRowsErr(err, setting.ErrNotFound, "selecting setting")
	}
	return s, nil
}

func (r settingRepository) UpsertSetting(ctx context.Context, s setting.Setting, exec ...core.DBExecutor) (setting.Setting, error) {
	e := r.getExec(exec)
	q := e.Rebind(`INSERT INTO system_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		RETURNING id`)
	if err := e.GetContext(ctx, &s.ID, q, s.Key, s.Value, s.UpdatedAt.UTC()); err != nil {
		return setting.Setting{}, errors.Wrap(err, "upserting setting")
	}
	return s, nil
}

func (r settingRepository) CreateSettingIfNotExist(ctx context.Context, s setting.Setting, exec ...core.DBExecutor) (bool, error) {
	e := r.getExec(exec)
	q := e.Rebind("INSERT INTO system_settings (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT (key) DO NOTHING")
	res, err := e.ExecContext(ctx, q, s.Key, s.Value, s.UpdatedAt.UTC())
	if err != nil {
		return false, errors.Wrap(err, "inserting setting")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "inserting setting")
	}
	return n > 0, nil
}
