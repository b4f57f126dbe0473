// Package services implements the marketplace rules: accounts and profiles,
// job postings, applications and time-bounded offers.
package services

import (
	"errors"
	"time"

	"github.com/girohack/jobconnect/internal/repository"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAlreadyApplied     = errors.New("already applied to this job")
	ErrRecentOffer        = errors.New("an offer was already sent to this candidate in the last 24 hours")
	ErrUnavailable        = errors.New("candidate is not available")
	ErrForbidden          = errors.New("not allowed")
)

// ValidationError carries a message meant for the end user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

type Service struct {
	users        repository.UserRepository
	applications repository.ApplicationRepository
	offers       repository.OfferRepository
	demoJobs     repository.DemoJobRepository

	now        func() time.Time
	bcryptCost int
	log        *log.Entry
}

type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(repos repository.Set, opts ...Option) *Service {
	s := &Service{
		users:        repos.Users,
		applications: repos.Applications,
		offers:       repos.Offers,
		demoJobs:     repos.DemoJobs,
		now:          time.Now,
		bcryptCost:   bcrypt.DefaultCost,
		log:          log.WithField("component", "services"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
