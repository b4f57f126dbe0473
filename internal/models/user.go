package models

import (
	"encoding/json"
	"reflect"
	"strings"
)

type Role string

const (
	RoleJobSeeker Role = "job"
	RoleEmployer  Role = "hire"
)

func (r Role) Valid() bool {
	return r == RoleJobSeeker || r == RoleEmployer
}

type Availability string

const (
	Available    Availability = "available"
	Busy         Availability = "busy"
	NotAvailable Availability = "not_available"
)

func (a Availability) Valid() bool {
	switch a {
	case Available, Busy, NotAvailable:
		return true
	}
	return false
}

var (
	Genders          = []string{"Male", "Female", "Other"}
	ExperienceLevels = []string{"Fresher", "1-2 years", "2-5 years", "5+ years"}
)

const (
	DefaultGender     = "Male"
	DefaultExperience = "Fresher"
	DefaultSalary     = Salary(15000)
	MinSalary         = Salary(5000)
	MaxSalary         = Salary(100000)
)

type User struct {
	ID                 int          `json:"id"`
	Role               Role         `json:"role"`
	Name               string       `json:"name"`
	Phone              string       `json:"phone"`
	Email              string       `json:"email"`
	Gender             string       `json:"gender,omitempty"`
	Password           string       `json:"password,omitempty"`
	AvailabilityStatus Availability `json:"availability_status,omitempty"`
	CreatedAt          Timestamp    `json:"created_at"`

	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`

	// job seeker profile
	Aadhaar          string     `json:"aadhaar,omitempty"`
	Experience       string     `json:"experience,omitempty"`
	JobTypes         StringList `json:"job_types,omitempty"`
	ExpectedSalary   Salary     `json:"expected_salary,omitempty"`
	Availability     StringList `json:"availability,omitempty"`
	Education        string     `json:"education,omitempty"`
	Languages        StringList `json:"languages,omitempty"`
	NoticePeriod     string     `json:"notice_period,omitempty"`
	EmergencyName    string     `json:"emergency_name,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`

	// employer profile
	CompanyName         string       `json:"company_name,omitempty"`
	CompanyType         string       `json:"company_type,omitempty"`
	Designation         string       `json:"designation,omitempty"`
	Industry            string       `json:"industry,omitempty"`
	CompanySize         string       `json:"company_size,omitempty"`
	BusinessDescription string       `json:"business_description,omitempty"`
	Website             string       `json:"website,omitempty"`
	JobPostings         []JobPosting `json:"job_postings,omitempty"`

	Extra Extra `json:"-"`
}

type plainUser User

var userFields = jsonNames(reflect.TypeOf(plainUser{}))

func (u User) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(plainUser(u))
	if err != nil {
		return nil, err
	}
	return AppendJSON(b, u.Extra)
}

func (u *User) UnmarshalJSON(b []byte) error {
	extra, err := decodeWithExtra(b, (*plainUser)(u), userFields)
	if err != nil {
		return err
	}
	u.Extra = extra
	return nil
}

func (u User) Public() User {
	u.Password = ""
	return u
}

func (u *User) IsEmployer() bool  { return u.Role == RoleEmployer }
func (u *User) IsJobSeeker() bool { return u.Role == RoleJobSeeker }

func (u *User) Company() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return u.Name
}

func (u *User) Posting(id int) *JobPosting {
	for i := range u.JobPostings {
		if u.JobPostings[i].ID == id {
			return &u.JobPostings[i]
		}
	}
	return nil
}

func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func NextUserID(users []User) int {
	max := 0
	for _, u := range users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max + 1
}

// ProfileCompletion returns the percentage of the role's required profile
// fields that hold a non-empty, non-zero value.
func ProfileCompletion(u *User) int {
	var checks []bool
	if u.Role == RoleJobSeeker {
		checks = []bool{
			u.Name != "",
			u.Phone != "",
			u.Email != "",
			u.Aadhaar != "",
			u.Address != "",
			u.City != "",
			u.Experience != "",
			len(u.JobTypes) > 0,
			u.ExpectedSalary != 0,
			len(u.Availability) > 0,
		}
	} else {
		checks = []bool{
			u.Name != "",
			u.Phone != "",
			u.Email != "",
			u.CompanyName != "",
			u.CompanyType != "",
			u.Address != "",
			u.City != "",
			u.BusinessDescription != "",
		}
	}

	completed := 0
	for _, ok := range checks {
		if ok {
			completed++
		}
	}
	return completed * 100 / len(checks)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Normalize repairs out-of-range profile values in place and reports whether
// anything changed.
func (u *User) Normalize() bool {
	changed := false
	if !contains(Genders, u.Gender) {
		u.Gender = DefaultGender
		changed = true
	}
	switch {
	case u.ExpectedSalary < MinSalary:
		u.ExpectedSalary = DefaultSalary
		changed = true
	case u.ExpectedSalary > MaxSalary:
		u.ExpectedSalary = MaxSalary
		changed = true
	}
	if !contains(ExperienceLevels, u.Experience) {
		u.Experience = DefaultExperience
		changed = true
	}
	if u.AvailabilityStatus == "" {
		u.AvailabilityStatus = Available
		changed = true
	}
	return changed
}
