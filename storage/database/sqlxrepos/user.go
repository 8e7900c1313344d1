package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/user"
)

const userColumns = "id, username, password_hash, role, created_at, last_login"

type userRepository struct {
	repo
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{repo{db: db}}
}

func (r userRepository) CheckUsernameUniqueness(ctx context.Context, username string, exec ...core.DBExecutor) error {
	e := r.getExec(exec)
	var exists bool
	if err := e.GetContext(ctx, &exists, e.Rebind("SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)"), username); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return user.ErrUsernameExists
	}
	return nil
}

func (r userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	e := r.getExec(exec)
	q := e.Rebind("INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?) RETURNING id")
	if err := e.GetContext(ctx, &usr.ID, q, usr.Username, usr.PasswordHash, usr.Role, usr.CreatedAt.UTC()); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (r userRepository) QueryUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	users := make([]user.User, 0)
	if err := r.getExec(exec).SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY username"); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (r userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	e := r.getExec(exec)
	var usr user.User
	if err := e.GetContext(ctx, &usr, e.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user by id")
	}
	return usr, nil
}

func (r userRepository) GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	e := r.getExec(exec)
	var usr user.User
	if err := e.GetContext(ctx, &usr, e.Rebind("SELECT "+userColumns+" FROM users WHERE username = ?"), username); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user by username")
	}
	return usr, nil
}

func (r userRepository) SetLastLogin(ctx context.Context, id int, at time.Time, exec ...core.DBExecutor) error {
	e := r.getExec(exec)
	return r.updateOne(ctx, e, "UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id)
}

func (r userRepository) SetPassword(ctx context.Context, id int, hash []byte, exec ...core.DBExecutor) error {
	e := r.getExec(exec)
	return r.updateOne(ctx, e, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
}

func (r userRepository) updateOne(ctx context.Context, e core.DBExecutor, q string, args ...interface{}) error {
	res, err := e.ExecContext(ctx, e.Rebind(q), args...)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
