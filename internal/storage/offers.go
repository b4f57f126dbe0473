package storage

import (
	"context"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
)

type offerRepository struct {
	file *Collection[models.Offer]
}

func NewOfferRepository(path string) repository.OfferRepository {
	return &offerRepository{file: NewCollection[models.Offer](path)}
}

func (r *offerRepository) List(_ context.Context) ([]models.Offer, error) {
	return r.file.Load()
}

func (r *offerRepository) Create(_ context.Context, o *models.Offer) error {
	return r.file.Update(func(offers []models.Offer) ([]models.Offer, error) {
		max := 0
		for _, existing := range offers {
			if existing.ID > max {
				max = existing.ID
			}
		}
		o.ID = max + 1
		return append(offers, *o), nil
	})
}

func (r *offerRepository) Update(_ context.Context, id int, fn func(o *models.Offer) error) (*models.Offer, error) {
	var updated models.Offer
	err := r.file.Update(func(offers []models.Offer) ([]models.Offer, error) {
		for i := range offers {
			if offers[i].ID == id {
				if err := fn(&offers[i]); err != nil {
					return nil, err
				}
				updated = offers[i]
				return offers, nil
			}
		}
		return nil, repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
