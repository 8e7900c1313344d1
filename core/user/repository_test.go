package user

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/artlearn/core"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mutex sync.RWMutex
	pk    int
	table map[int]*User
}

var _ Repository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{table: make(map[int]*User)}
}

func (repo *memRepo) CheckUsernameUniqueness(_ context.Context, username string, _ ...core.DBExecutor) error {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	for _, usr := range repo.table {
		if usr.Username == username {
			return ErrUsernameExists
		}
	}
	return nil
}

func (repo *memRepo) CreateUser(_ context.Context, usr User, _ ...core.DBExecutor) (User, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.pk++
	usr.ID = repo.pk
	repo.table[usr.ID] = &usr
	return usr, nil
}

func (repo *memRepo) QueryUsers(_ context.Context, _ ...core.DBExecutor) ([]User, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	users := make([]User, 0, len(repo.table))
	for _, usr := range repo.table {
		users = append(users, *usr)
	}
	return users, nil
}

func (repo *memRepo) GetUserByID(_ context.Context, id int, _ ...core.DBExecutor) (User, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	if usr, ok := repo.table[id]; ok {
		return *usr, nil
	}
	return User{}, ErrNotFound
}

func (repo *memRepo) GetUserByUsername(_ context.Context, username string, _ ...core.DBExecutor) (User, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	for _, usr := range repo.table {
		if usr.Username == username {
			return *usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (repo *memRepo) SetLastLogin(_ context.Context, id int, at time.Time, _ ...core.DBExecutor) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	usr, ok := repo.table[id]
	if !ok {
		return ErrNotFound
	}
	usr.LastLogin.SetValid(at)
	return nil
}

func (repo *memRepo) SetPassword(_ context.Context, id int, hash []byte, _ ...core.DBExecutor) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	usr, ok := repo.table[id]
	if !ok {
		return ErrNotFound
	}
	usr.PasswordHash = hash
	return nil
}
