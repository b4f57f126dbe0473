package storage

import (
	"context"
	"strings"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
)

type userRepository struct {
	file *Collection[models.User]
}

func NewUserRepository(path string) repository.UserRepository {
	return &userRepository{file: NewCollection[models.User](path)}
}

func (r *userRepository) List(_ context.Context) ([]models.User, error) {
	return r.file.Load()
}

func (r *userRepository) Get(_ context.Context, id int) (*models.User, error) {
	users, err := r.file.Load()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) Create(_ context.Context, u *models.User) error {
	return r.file.Update(func(users []models.User) ([]models.User, error) {
		if err := checkUnique(users, u, -1); err != nil {
			return nil, err
		}
		u.ID = models.NextUserID(users)
		return append(users, *u), nil
	})
}

func (r *userRepository) Update(_ context.Context, id int, fn func(u *models.User) error) (*models.User, error) {
	var updated models.User
	err := r.file.Update(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID != id {
				continue
			}
			if err := fn(&users[i]); err != nil {
				return nil, err
			}
			if err := checkUnique(users, &users[i], i); err != nil {
				return nil, err
			}
			updated = users[i]
			return users, nil
		}
		return nil, repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *userRepository) UpdateEach(_ context.Context, fn func(u *models.User) bool) (int, error) {
	changed := 0
	err := r.file.Update(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if fn(&users[i]) {
				changed++
			}
		}
		if changed == 0 {
			return nil, ErrUnchanged
		}
		return users, nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// checkUnique rejects u if another user, ignoring index skip, has the same
// phone or email. Phone is checked across all users first.
func checkUnique(users []models.User, u *models.User, skip int) error {
	if phone := strings.TrimSpace(u.Phone); phone != "" {
		for i := range users {
			if i != skip && strings.TrimSpace(users[i].Phone) == phone {
				return repository.ErrPhoneTaken
			}
		}
	}
	if u.Email != "" {
		for i := range users {
			if i != skip && models.SameEmail(users[i].Email, u.Email) {
				return repository.ErrEmailTaken
			}
		}
	}
	return nil
}
