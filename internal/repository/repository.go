// Package repository defines the persistence contracts the marketplace
// services depend on. internal/storage implements them over JSON files and
// internal/database over Postgres.
package repository

import (
	"context"
	"errors"

	"github.com/girohack/jobconnect/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrPhoneTaken = errors.New("phone number already registered")
	ErrEmailTaken = errors.New("email already registered")
)

type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int) (*models.User, error)
	// Create assigns u.ID and rejects duplicate phone or email.
	Create(ctx context.Context, u *models.User) error
	// Update applies fn to the stored user and persists the result. Phone
	// and email uniqueness is checked after fn runs.
	Update(ctx context.Context, id int, fn func(u *models.User) error) (*models.User, error)
	// UpdateEach applies fn to every user and persists the ones for which fn
	// returned true. It returns the number of changed users.
	UpdateEach(ctx context.Context, fn func(u *models.User) bool) (int, error)
}

type ApplicationRepository interface {
	List(ctx context.Context) ([]models.Application, error)
	// Create assigns a.ID. Duplicates are not rejected.
	Create(ctx context.Context, a *models.Application) error
	Update(ctx context.Context, id int, fn func(a *models.Application) error) (*models.Application, error)
}

type OfferRepository interface {
	List(ctx context.Context) ([]models.Offer, error)
	Create(ctx context.Context, o *models.Offer) error
	Update(ctx context.Context, id int, fn func(o *models.Offer) error) (*models.Offer, error)
}

// DemoJobRepository holds the seed postings shown alongside employer jobs.
type DemoJobRepository interface {
	List(ctx context.Context) ([]models.JobPosting, error)
	Create(ctx context.Context, j *models.JobPosting) error
}

// Set bundles one repository per entity.
type Set struct {
	Users        UserRepository
	Applications ApplicationRepository
	Offers       OfferRepository
	DemoJobs     DemoJobRepository
}
