package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
	log "github.com/sirupsen/logrus"
)

const (
	demoEmployerName  = "Demo Employer"
	demoEmployerEmail = "demo@jobconnect.com"
	notSpecified      = "Not specified"
)

func (s *Service) AddJobPosting(ctx context.Context, employerID int, job models.JobPosting) (*models.JobPosting, error) {
	if strings.TrimSpace(job.Title) == "" {
		return nil, invalid("Job title is required.")
	}

	var added models.JobPosting
	_, err := s.users.Update(ctx, employerID, func(u *models.User) error {
		if !u.IsEmployer() {
			return repository.ErrNotFound
		}
		job.ID = models.NextPostingID(u.JobPostings)
		job.PostedDate = models.NewTimestamp(s.now())
		job.Status = models.PostingActive
		job.ApplicationsCount = 0
		u.JobPostings = append(u.JobPostings, job)
		added = job
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(log.Fields{"employer_id": employerID, "job_id": added.ID}).Info("job posted")
	return &added, nil
}

func (s *Service) DemoJobs(ctx context.Context) ([]models.JobPosting, error) {
	return s.demoJobs.List(ctx)
}

// SaveDemoJob adds a posting to the demo pool. Employer actions never call it.
func (s *Service) SaveDemoJob(ctx context.Context, job models.JobPosting) (*models.JobPosting, error) {
	if job.Status == "" {
		job.Status = models.PostingActive
	}
	if job.PostedDate.IsZero() {
		job.PostedDate = models.NewTimestamp(s.now())
	}
	if err := s.demoJobs.Create(ctx, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

type EmployerInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Listing is a posting as shown on the job board.
type Listing struct {
	models.JobPosting
	Employer EmployerInfo `json:"employer_info"`
	Applied  bool         `json:"applied"`
}

// listingKeys are the keys Listing adds on top of the posting's own.
var listingKeys = []string{"employer_info", "applied"}

func (l Listing) MarshalJSON() ([]byte, error) {
	job := l.JobPosting
	if len(job.Extra) > 0 {
		job.Extra = models.Extra{}
		for k, v := range l.Extra {
			job.Extra[k] = v
		}
		for _, k := range listingKeys {
			delete(job.Extra, k)
		}
	}
	b, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	info, err := json.Marshal(l.Employer)
	if err != nil {
		return nil, err
	}
	applied, err := json.Marshal(l.Applied)
	if err != nil {
		return nil, err
	}
	return models.AppendJSON(b, models.Extra{"employer_info": info, "applied": applied})
}

func (l *Listing) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &l.JobPosting); err != nil {
		return err
	}
	var aux struct {
		Employer EmployerInfo `json:"employer_info"`
		Applied  bool         `json:"applied"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	for _, k := range listingKeys {
		delete(l.Extra, k)
	}
	l.Employer, l.Applied = aux.Employer, aux.Applied
	return nil
}

type JobFilter struct {
	Location  string        `form:"location"`
	Category  string        `form:"category"`
	Company   string        `form:"company"`
	MinSalary models.Salary `form:"min_salary"`
	MaxSalary models.Salary `form:"max_salary"`
}

func (f JobFilter) match(l *Listing) bool {
	location := l.Location
	if location == "" {
		location = notSpecified
	}
	if f.Location != "" && location != f.Location {
		return false
	}
	if f.Category != "" {
		found := false
		for _, jt := range l.JobTypes {
			if strings.EqualFold(strings.TrimSpace(jt), strings.TrimSpace(f.Category)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Company != "" && l.Employer.Company != f.Company {
		return false
	}
	if l.Salary < f.MinSalary {
		return false
	}
	if f.MaxSalary > 0 && l.Salary > f.MaxSalary {
		return false
	}
	return true
}

// JobBoard joins the demo pool with every employer's active postings and
// marks the ones viewerID has already applied to.
func (s *Service) JobBoard(ctx context.Context, viewerID int, f JobFilter) ([]Listing, error) {
	demo, err := s.demoJobs.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	apps, err := s.applications.List(ctx)
	if err != nil {
		return nil, err
	}

	type key struct{ employer, job int }
	applied := map[key]bool{}
	for _, a := range apps {
		if a.ApplicantID == viewerID {
			applied[key{a.EmployerID, a.JobID}] = true
		}
	}

	var all []Listing
	for _, job := range demo {
		all = append(all, Listing{
			JobPosting: job,
			Employer: EmployerInfo{
				ID:      models.DemoEmployerID,
				Name:    demoEmployerName,
				Company: job.Company,
				Phone:   job.Contact,
				Email:   demoEmployerEmail,
			},
		})
	}
	for i := range users {
		employer := &users[i]
		if !employer.IsEmployer() {
			continue
		}
		for _, job := range employer.JobPostings {
			if !job.Active() {
				continue
			}
			all = append(all, Listing{
				JobPosting: job,
				Employer: EmployerInfo{
					ID:      employer.ID,
					Name:    employer.Name,
					Company: employer.Company(),
					Phone:   employer.Phone,
					Email:   employer.Email,
				},
			})
		}
	}

	listings := []Listing{}
	for _, l := range all {
		if !f.match(&l) {
			continue
		}
		l.Applied = applied[key{l.Employer.ID, l.ID}]
		listings = append(listings, l)
	}
	return listings, nil
}

// findPosting resolves a posting and its employer snapshot. employerID 0
// addresses the demo pool.
func (s *Service) findPosting(ctx context.Context, employerID, jobID int) (*models.JobPosting, *EmployerInfo, error) {
	if employerID == models.DemoEmployerID {
		jobs, err := s.demoJobs.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		for i := range jobs {
			if jobs[i].ID == jobID {
				return &jobs[i], &EmployerInfo{ID: models.DemoEmployerID, Name: demoEmployerName, Company: jobs[i].Company}, nil
			}
		}
		return nil, nil, repository.ErrNotFound
	}

	employer, err := s.users.Get(ctx, employerID)
	if err != nil {
		return nil, nil, err
	}
	if !employer.IsEmployer() {
		return nil, nil, repository.ErrNotFound
	}
	job := employer.Posting(jobID)
	if job == nil || !job.Active() {
		return nil, nil, repository.ErrNotFound
	}
	info := &EmployerInfo{ID: employer.ID, Name: employer.Name, Company: employer.Company(), Phone: employer.Phone, Email: employer.Email}
	return job, info, nil
}
