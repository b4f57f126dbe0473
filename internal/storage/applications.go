package storage

import (
	"context"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
)

type applicationRepository struct {
	file *Collection[models.Application]
}

func NewApplicationRepository(path string) repository.ApplicationRepository {
	return &applicationRepository{file: NewCollection[models.Application](path)}
}

func (r *applicationRepository) List(_ context.Context) ([]models.Application, error) {
	return r.file.Load()
}

func (r *applicationRepository) Create(_ context.Context, a *models.Application) error {
	return r.file.Update(func(apps []models.Application) ([]models.Application, error) {
		max := 0
		for _, existing := range apps {
			if existing.ID > max {
				max = existing.ID
			}
		}
		a.ID = max + 1
		return append(apps, *a), nil
	})
}

func (r *applicationRepository) Update(_ context.Context, id int, fn func(a *models.Application) error) (*models.Application, error) {
	var updated models.Application
	err := r.file.Update(func(apps []models.Application) ([]models.Application, error) {
		for i := range apps {
			if apps[i].ID == id {
				if err := fn(&apps[i]); err != nil {
					return nil, err
				}
				updated = apps[i]
				return apps, nil
			}
		}
		return nil, repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
