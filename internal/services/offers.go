package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
	log "github.com/sirupsen/logrus"
)

func (s *Service) GetJobOffers(ctx context.Context) ([]models.Offer, error) {
	return s.offers.List(ctx)
}

// SaveJobOffer stores offer as pending with a 24 hour answer window.
func (s *Service) SaveJobOffer(ctx context.Context, offer models.Offer) (*models.Offer, error) {
	now := s.now()
	offer.OfferedDate = models.NewTimestamp(now)
	offer.ExpiresAt = models.NewTimestamp(now.Add(models.OfferWindow))
	offer.Status = models.StatusPending
	offer.ResponseDate = nil
	offer.ResponseMessage = ""
	if err := s.offers.Create(ctx, &offer); err != nil {
		return nil, fmt.Errorf("saving offer: %w", err)
	}
	return &offer, nil
}

// UpdateOfferStatus records the job seeker's answer. Expiry is not checked
// here; callers decide whether an expired offer may still be answered.
func (s *Service) UpdateOfferStatus(ctx context.Context, id int, status models.Status, message string) (*models.Offer, error) {
	if err := checkDecision(status); err != nil {
		return nil, err
	}
	offer, err := s.offers.Update(ctx, id, func(o *models.Offer) error {
		if !o.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, status)
		}
		now := models.NewTimestamp(s.now())
		o.Status = status
		o.ResponseDate = &now
		o.ResponseMessage = message
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(log.Fields{"offer_id": id, "status": status}).Info("offer status changed")
	return offer, nil
}

func (s *Service) RespondToOffer(ctx context.Context, seeker *models.User, id int, status models.Status, message string) (*models.Offer, error) {
	offers, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range offers {
		if o.ID != id {
			continue
		}
		if !seeker.IsJobSeeker() || o.JobSeekerID != seeker.ID {
			return nil, ErrForbidden
		}
		if message == "" {
			message = defaultOfferResponse(status)
		}
		return s.UpdateOfferStatus(ctx, id, status, message)
	}
	return nil, fmt.Errorf("offer %d: %w", id, repository.ErrNotFound)
}

func defaultOfferResponse(status models.Status) string {
	if status == models.StatusAccepted {
		return "Job offer accepted by job seeker"
	}
	return "Job offer declined by job seeker"
}

// RecentOffer returns the first offer from employerID to seekerID made less
// than 24 hours ago, or nil.
func (s *Service) RecentOffer(ctx context.Context, employerID, seekerID int) (*models.Offer, error) {
	offers, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range offers {
		o := &offers[i]
		if o.EmployerID == employerID && o.JobSeekerID == seekerID && o.Recent(now) {
			return o, nil
		}
	}
	return nil, nil
}

type OfferRequest struct {
	JobSeekerID     int           `json:"job_seeker_id" binding:"required"`
	JobTitle        string        `json:"job_title"`
	JobDescription  string        `json:"job_description"`
	Location        string        `json:"location"`
	SalaryOffered   models.Salary `json:"salary_offered"`
	JobType         string        `json:"job_type"`
	WorkingHours    string        `json:"working_hours"`
	StartDate       string        `json:"start_date"`
	PersonalMessage string        `json:"personal_message"`
}

// SendOffer creates an offer from employer to a job seeker. A candidate who
// is not available, or who received an offer from the same employer in the
// last 24 hours, is refused.
func (s *Service) SendOffer(ctx context.Context, employer *models.User, req OfferRequest) (*models.Offer, error) {
	if !employer.IsEmployer() {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(req.JobTitle)
	location := strings.TrimSpace(req.Location)
	description := strings.TrimSpace(req.JobDescription)
	if title == "" || location == "" || description == "" {
		return nil, invalid("Please fill all required fields marked with *")
	}
	if req.SalaryOffered == 0 {
		req.SalaryOffered = models.DefaultSalary
	}
	if req.SalaryOffered < models.MinSalary || req.SalaryOffered > models.MaxSalary {
		return nil, invalid(fmt.Sprintf("Salary offer must be between %d and %d.", models.MinSalary, models.MaxSalary))
	}

	seeker, err := s.users.Get(ctx, req.JobSeekerID)
	if err != nil {
		return nil, err
	}
	if !seeker.IsJobSeeker() {
		return nil, fmt.Errorf("job seeker %d: %w", req.JobSeekerID, repository.ErrNotFound)
	}
	if seeker.AvailabilityStatus != "" && seeker.AvailabilityStatus != models.Available {
		return nil, ErrUnavailable
	}

	recent, err := s.RecentOffer(ctx, employer.ID, seeker.ID)
	if err != nil {
		return nil, err
	}
	if recent != nil {
		return nil, ErrRecentOffer
	}

	offer, err := s.SaveJobOffer(ctx, models.Offer{
		EmployerID:      employer.ID,
		EmployerName:    employer.Company(),
		EmployerPhone:   employer.Phone,
		EmployerEmail:   employer.Email,
		JobSeekerID:     seeker.ID,
		JobSeekerName:   seeker.Name,
		JobSeekerPhone:  seeker.Phone,
		JobSeekerEmail:  seeker.Email,
		JobTitle:        title,
		JobDescription:  description,
		Location:        location,
		SalaryOffered:   req.SalaryOffered,
		JobType:         req.JobType,
		WorkingHours:    req.WorkingHours,
		StartDate:       req.StartDate,
		PersonalMessage: strings.TrimSpace(req.PersonalMessage),
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(log.Fields{"offer_id": offer.ID, "employer_id": employer.ID, "job_seeker_id": seeker.ID}).Info("offer sent")
	return offer, nil
}

func (s *Service) OffersFor(ctx context.Context, user *models.User) ([]models.Offer, error) {
	offers, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}
	mine := []models.Offer{}
	for _, o := range offers {
		if (user.IsJobSeeker() && o.JobSeekerID == user.ID) || (user.IsEmployer() && o.EmployerID == user.ID) {
			mine = append(mine, o)
		}
	}
	return mine, nil
}

func (s *Service) ActiveOffersFor(ctx context.Context, seekerID int) ([]models.Offer, error) {
	offers, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := []models.Offer{}
	for _, o := range offers {
		if o.JobSeekerID == seekerID && o.Status == models.StatusPending && !o.Expired(now) {
			active = append(active, o)
		}
	}
	return active, nil
}
