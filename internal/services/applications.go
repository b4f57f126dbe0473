package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
	log "github.com/sirupsen/logrus"
)

func (s *Service) GetJobApplications(ctx context.Context) ([]models.Application, error) {
	return s.applications.List(ctx)
}

// SaveJobApplication stores app as a new pending application. It does not
// check for an earlier application to the same job; see Apply.
func (s *Service) SaveJobApplication(ctx context.Context, app models.Application) (*models.Application, error) {
	app.AppliedDate = models.NewTimestamp(s.now())
	app.Status = models.StatusPending
	app.ResponseDate = nil
	app.ResponseMessage = ""
	if err := s.applications.Create(ctx, &app); err != nil {
		return nil, fmt.Errorf("saving application: %w", err)
	}
	return &app, nil
}

func checkDecision(status models.Status) error {
	if status != models.StatusAccepted && status != models.StatusRejected {
		return invalid("Status must be accepted or rejected.")
	}
	return nil
}

// UpdateApplicationStatus moves a pending application to accepted or
// rejected. Repeating the current decision only refreshes the message.
func (s *Service) UpdateApplicationStatus(ctx context.Context, id int, status models.Status, message string) (*models.Application, error) {
	if err := checkDecision(status); err != nil {
		return nil, err
	}
	app, err := s.applications.Update(ctx, id, func(a *models.Application) error {
		if !a.Status.CanTransition(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, status)
		}
		now := models.NewTimestamp(s.now())
		a.Status = status
		a.ResponseDate = &now
		a.ResponseMessage = message
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(log.Fields{"application_id": id, "status": status}).Info("application status changed")
	return app, nil
}

func (s *Service) DecideApplication(ctx context.Context, employer *models.User, id int, status models.Status, message string) (*models.Application, error) {
	apps, err := s.applications.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range apps {
		if a.ID != id {
			continue
		}
		if !employer.IsEmployer() || a.EmployerID != employer.ID {
			return nil, ErrForbidden
		}
		return s.UpdateApplicationStatus(ctx, id, status, message)
	}
	return nil, fmt.Errorf("application %d: %w", id, repository.ErrNotFound)
}

func (s *Service) HasApplied(ctx context.Context, applicantID, employerID, jobID int) (bool, error) {
	apps, err := s.applications.List(ctx)
	if err != nil {
		return false, err
	}
	for i := range apps {
		if apps[i].Matches(applicantID, employerID, jobID) {
			return true, nil
		}
	}
	return false, nil
}

// Apply submits the applicant to a posting, snapshotting their profile and
// refusing a second application to the same posting.
func (s *Service) Apply(ctx context.Context, applicantID, employerID, jobID int) (*models.Application, error) {
	applicant, err := s.users.Get(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	if !applicant.IsJobSeeker() {
		return nil, ErrForbidden
	}

	job, employer, err := s.findPosting(ctx, employerID, jobID)
	if err != nil {
		return nil, err
	}

	applied, err := s.HasApplied(ctx, applicantID, employerID, jobID)
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, ErrAlreadyApplied
	}

	experience := applicant.Experience
	if experience == "" {
		experience = notSpecified
	}
	app, err := s.SaveJobApplication(ctx, models.Application{
		JobID:               job.ID,
		JobTitle:            job.Title,
		EmployerID:          employer.ID,
		EmployerName:        employer.Company,
		ApplicantID:         applicant.ID,
		ApplicantName:       applicant.Name,
		ApplicantPhone:      applicant.Phone,
		ApplicantEmail:      applicant.Email,
		ApplicantSkills:     strings.Join(applicant.JobTypes, ", "),
		ApplicantExperience: experience,
		ExpectedSalary:      applicant.ExpectedSalary,
	})
	if err != nil {
		return nil, err
	}

	if employerID != models.DemoEmployerID {
		_, err := s.users.Update(ctx, employerID, func(u *models.User) error {
			if p := u.Posting(jobID); p != nil {
				p.ApplicationsCount++
			}
			return nil
		})
		if err != nil {
			s.log.WithError(err).WithField("application_id", app.ID).Warn("updating applications_count")
		}
	}

	s.log.WithFields(log.Fields{"application_id": app.ID, "applicant_id": applicantID, "employer_id": employerID, "job_id": jobID}).Info("application submitted")
	return app, nil
}

func (s *Service) ApplicationsFor(ctx context.Context, user *models.User) ([]models.Application, error) {
	apps, err := s.applications.List(ctx)
	if err != nil {
		return nil, err
	}
	mine := []models.Application{}
	for _, a := range apps {
		if (user.IsJobSeeker() && a.ApplicantID == user.ID) || (user.IsEmployer() && a.EmployerID == user.ID) {
			mine = append(mine, a)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].AppliedDate.After(mine[j].AppliedDate.Time)
	})
	return mine, nil
}

type EmployerStats struct {
	JobsPosted        int `json:"jobs_posted"`
	TotalApplications int `json:"total_applications"`
	Pending           int `json:"pending"`
	Accepted          int `json:"accepted"`
	Rejected          int `json:"rejected"`
	ProfileCompletion int `json:"profile_completion"`
}

func (s *Service) EmployerStats(ctx context.Context, employer *models.User) (*EmployerStats, error) {
	if !employer.IsEmployer() {
		return nil, ErrForbidden
	}
	apps, err := s.ApplicationsFor(ctx, employer)
	if err != nil {
		return nil, err
	}
	stats := &EmployerStats{
		JobsPosted:        len(employer.JobPostings),
		TotalApplications: len(apps),
		ProfileCompletion: models.ProfileCompletion(employer),
	}
	for _, a := range apps {
		switch a.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusAccepted:
			stats.Accepted++
		case models.StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}
