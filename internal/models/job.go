package models

import (
	"encoding/json"
	"reflect"
)

const PostingActive = "active"

// DemoEmployerID marks applications made against the demo posting pool.
const DemoEmployerID = 0

type JobPosting struct {
	ID                int        `json:"id" yaml:"id"`
	Title             string     `json:"title" yaml:"title" binding:"required"`
	Location          string     `json:"location,omitempty" yaml:"location"`
	Salary            Salary     `json:"salary,omitempty" yaml:"salary"`
	JobTypes          StringList `json:"job_types,omitempty" yaml:"job_types"`
	Experience        string     `json:"experience,omitempty" yaml:"experience"`
	WorkingHours      string     `json:"working_hours,omitempty" yaml:"working_hours"`
	Urgency           string     `json:"urgency,omitempty" yaml:"urgency"`
	ContractType      string     `json:"contract_type,omitempty" yaml:"contract_type"`
	Description       string     `json:"description,omitempty" yaml:"description"`
	Requirements      string     `json:"requirements,omitempty" yaml:"requirements"`
	Benefits          string     `json:"benefits,omitempty" yaml:"benefits"`
	Status            string     `json:"status,omitempty" yaml:"status"`
	PostedDate        Timestamp  `json:"posted_date" yaml:"-"`
	ApplicationsCount int        `json:"applications_count" yaml:"-"`

	// demo pool only
	Company string `json:"company,omitempty" yaml:"company"`
	Contact string `json:"contact,omitempty" yaml:"contact"`

	Extra Extra `json:"-" yaml:"-"`
}

type plainJobPosting JobPosting

var jobPostingFields = jsonNames(reflect.TypeOf(plainJobPosting{}))

func (j JobPosting) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(plainJobPosting(j))
	if err != nil {
		return nil, err
	}
	return AppendJSON(b, j.Extra)
}

func (j *JobPosting) UnmarshalJSON(b []byte) error {
	extra, err := decodeWithExtra(b, (*plainJobPosting)(j), jobPostingFields)
	if err != nil {
		return err
	}
	j.Extra = extra
	return nil
}

func (j *JobPosting) Active() bool {
	return j.Status == PostingActive
}

// NextPostingID returns the next posting-local id for an employer's list.
func NextPostingID(postings []JobPosting) int {
	max := 0
	for _, p := range postings {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}
