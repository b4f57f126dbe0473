package models

import "time"

// OfferWindow is how long a job seeker has to answer an offer.
const OfferWindow = 24 * time.Hour

type Offer struct {
	ID              int        `json:"id"`
	EmployerID      int        `json:"employer_id"`
	EmployerName    string     `json:"employer_name"`
	EmployerPhone   string     `json:"employer_phone,omitempty"`
	EmployerEmail   string     `json:"employer_email,omitempty"`
	JobSeekerID     int        `json:"job_seeker_id"`
	JobSeekerName   string     `json:"job_seeker_name"`
	JobSeekerPhone  string     `json:"job_seeker_phone,omitempty"`
	JobSeekerEmail  string     `json:"job_seeker_email,omitempty"`
	JobTitle        string     `json:"job_title"`
	JobDescription  string     `json:"job_description"`
	Location        string     `json:"location"`
	SalaryOffered   Salary     `json:"salary_offered"`
	JobType         string     `json:"job_type,omitempty"`
	WorkingHours    string     `json:"working_hours,omitempty"`
	StartDate       string     `json:"start_date,omitempty"`
	PersonalMessage string     `json:"personal_message,omitempty"`
	OfferedDate     Timestamp  `json:"offered_date"`
	ExpiresAt       Timestamp  `json:"expires_at"`
	Status          Status     `json:"status"`
	ResponseDate    *Timestamp `json:"response_date,omitempty"`
	ResponseMessage string     `json:"response_message,omitempty"`
}

// Expired reports whether a pending offer has outlived its window at now.
// Expiry is never written back to the record.
func (o *Offer) Expired(now time.Time) bool {
	return o.Status == StatusPending && now.After(o.ExpiresAt.Time)
}

func (o *Offer) Recent(now time.Time) bool {
	return now.Sub(o.OfferedDate.Time) < OfferWindow
}

func (o *Offer) TimeLeft(now time.Time) time.Duration {
	left := o.ExpiresAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
