// Package setting stores system wide key/value settings, among which the student secret key.
package setting

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"

	"github.com/trezcool/artlearn/core"
)

var (
	// errors
	ErrNotFound = errors.New("setting not found")
)

type (
	Setting struct {
		ID        int       `json:"id" db:"id"`
		Key       string    `json:"key" db:"key"`
		Value     string    `json:"value" db:"value"`
		UpdatedAt time.Time `json:"updatedAt" db:"updated_at"` // UTC
	}

	UpdateSetting struct {
		Value string `json:"value" validate:"required,notblank,max=255"`
	}

	Repository interface {
		GetSetting(ctx context.Context, key string, exec ...core.DBExecutor) (Setting, error)
		// UpsertSetting creates the setting or replaces its value.
		UpsertSetting(ctx context.Context, s Setting, exec ...core.DBExecutor) (Setting, error)
		// CreateSettingIfNotExist leaves an existing setting untouched. The bool reports a creation.
		CreateSettingIfNotExist(ctx context.Context, s Setting, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func (us *UpdateSetting) Validate(validate *validator.Validate) error {
	us.Value = core.CleanString(us.Value)
	return validate.Struct(us)
}

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &Service{repo: repo}
}

func (svc *Service) Get(ctx context.Context, key string) (Setting, error) {
	return svc.repo.GetSetting(ctx, core.CleanString(key))
}

func (svc *Service) Set(ctx context.Context, key, value string) (Setting, error) {
	return svc.repo.UpsertSetting(ctx, Setting{Key: core.CleanString(key), Value: value, UpdatedAt: time.Now().UTC()})
}

// EnsureDefault sets key to value only if key is not set yet.
func (svc *Service) EnsureDefault(ctx context.Context, key, value string) (bool, error) {
	return svc.repo.CreateSettingIfNotExist(ctx, Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
}

// CheckStudentKey reports whether key matches the stored student secret key.
// An unset secret key denies everyone.
func (svc *Service) CheckStudentKey(ctx context.Context, key string) (bool, error) {
	s, err := svc.repo.GetSetting(ctx, core.StudentSecretKeySetting)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if s.Value == "" || key == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(s.Value), []byte(key)) == 1, nil
}
