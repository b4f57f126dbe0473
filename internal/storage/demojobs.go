package storage

import (
	"context"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
)

// demoJobRepository reads the seed pool leniently: a damaged demo file only
// hides the demo listings.
type demoJobRepository struct {
	file *Collection[models.JobPosting]
}

func NewDemoJobRepository(path string) repository.DemoJobRepository {
	return &demoJobRepository{file: NewCollection[models.JobPosting](path)}
}

func (r *demoJobRepository) List(_ context.Context) ([]models.JobPosting, error) {
	return ReadListOrEmpty[models.JobPosting](r.file.Path()), nil
}

func (r *demoJobRepository) Create(_ context.Context, j *models.JobPosting) error {
	return r.file.Update(func(jobs []models.JobPosting) ([]models.JobPosting, error) {
		j.ID = models.NextPostingID(jobs)
		return append(jobs, *j), nil
	})
}
