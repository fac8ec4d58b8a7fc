package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/bursar/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	_, taken := repo.db.users.find(func(u user.User) bool {
		return u.Email == email && !excluded[u.ID]
	})
	if taken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	repo.db.users.insert(usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) QueryUsers(context.Context) ([]user.User, error) {
	return repo.db.users.all(nil), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	if usr, ok := repo.db.users.get(id); ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	if usr, ok := repo.db.users.find(func(u user.User) bool { return u.Email == email }); ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	if !repo.db.users.update(usr.ID, func(user.User) user.User { return usr }) {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id string) error {
	if !repo.db.users.remove(id) {
		return user.ErrNotFound
	}
	return nil
}
