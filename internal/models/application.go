package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// demoEmployerRef is how older records name the demo pool in employer_id.
const demoEmployerRef = "demo"

type Application struct {
	ID                  int        `json:"id"`
	JobID               int        `json:"job_id"`
	JobTitle            string     `json:"job_title"`
	EmployerID          int        `json:"employer_id"`
	EmployerName        string     `json:"employer_name"`
	ApplicantID         int        `json:"applicant_id"`
	ApplicantName       string     `json:"applicant_name"`
	ApplicantPhone      string     `json:"applicant_phone"`
	ApplicantEmail      string     `json:"applicant_email"`
	ApplicantSkills     string     `json:"applicant_skills,omitempty"`
	ApplicantExperience string     `json:"applicant_experience,omitempty"`
	ExpectedSalary      Salary     `json:"expected_salary,omitempty"`
	AppliedDate         Timestamp  `json:"applied_date"`
	Status              Status     `json:"status"`
	ResponseDate        *Timestamp `json:"response_date,omitempty"`
	ResponseMessage     string     `json:"response_message,omitempty"`

	Extra Extra `json:"-"`
}

type plainApplication Application

var applicationFields = jsonNames(reflect.TypeOf(plainApplication{}))

func (a Application) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(plainApplication(a))
	if err != nil {
		return nil, err
	}
	return AppendJSON(b, a.Extra)
}

// UnmarshalJSON also accepts employer_id as "demo" or a numeric string.
func (a *Application) UnmarshalJSON(b []byte) error {
	aux := struct {
		*plainApplication
		EmployerID json.RawMessage `json:"employer_id"`
	}{plainApplication: (*plainApplication)(a)}
	extra, err := decodeWithExtra(b, &aux, applicationFields)
	if err != nil {
		return err
	}
	id, err := parseEmployerID(aux.EmployerID)
	if err != nil {
		return err
	}
	a.EmployerID = id
	a.Extra = extra
	return nil
}

func parseEmployerID(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return DemoEmployerID, nil
	}
	var id int
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("employer_id: unexpected value %s", raw)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, demoEmployerRef) {
		return DemoEmployerID, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("employer_id: unexpected value %q", s)
	}
	return id, nil
}

// Matches reports whether the application targets the given posting.
func (a *Application) Matches(applicantID, employerID, jobID int) bool {
	return a.ApplicantID == applicantID && a.EmployerID == employerID && a.JobID == jobID
}
