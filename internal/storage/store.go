package storage

import (
	"path/filepath"

	"github.com/girohack/jobconnect/internal/repository"
)

const (
	UsersFile        = "users.json"
	ApplicationsFile = "applications.json"
	OffersFile       = "job_offers.json"
	DemoJobsFile     = "demo_jobs.json"
)

// Open returns file-backed repositories rooted at dir.
func Open(dir string) repository.Set {
	return repository.Set{
		Users:        NewUserRepository(filepath.Join(dir, UsersFile)),
		Applications: NewApplicationRepository(filepath.Join(dir, ApplicationsFile)),
		Offers:       NewOfferRepository(filepath.Join(dir, OffersFile)),
		DemoJobs:     NewDemoJobRepository(filepath.Join(dir, DemoJobsFile)),
	}
}
