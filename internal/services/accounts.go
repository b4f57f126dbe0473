package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
	"github.com/girohack/jobconnect/internal/validation"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type SignupRequest struct {
	Role            models.Role `json:"role"`
	Name            string      `json:"name"`
	Phone           string      `json:"phone"`
	Email           string      `json:"email"`
	Gender          string      `json:"gender"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirm_password"`
	CompanyName     string      `json:"company_name"`
	AcceptTerms     bool        `json:"accept_terms"`
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	email := strings.TrimSpace(req.Email)
	company := strings.TrimSpace(req.CompanyName)

	if !req.Role.Valid() {
		return nil, invalid("Please choose whether you are looking for work or hiring.")
	}
	required := []string{name, phone, email, strings.TrimSpace(req.Password), strings.TrimSpace(req.ConfirmPassword)}
	if req.Role == models.RoleEmployer {
		required = append(required, company)
	}
	for _, v := range required {
		if v == "" {
			return nil, invalid("Please fill all required fields and select gender.")
		}
	}
	if !contains(models.Genders, req.Gender) {
		return nil, invalid("Please fill all required fields and select gender.")
	}
	if !req.AcceptTerms {
		return nil, invalid("You must accept the Terms and Conditions.")
	}
	if req.Password != req.ConfirmPassword {
		return nil, invalid("Passwords do not match.")
	}
	if !validation.Phone(phone) {
		return nil, invalid("Phone number must be exactly 10 digits.")
	}
	if !validation.Email(email) {
		return nil, invalid("Invalid email address.")
	}
	if ok, reason := validation.Password(req.Password); !ok {
		return nil, invalid(reason)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(req.Password)), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Role:               req.Role,
		Name:               name,
		Phone:              phone,
		Email:              email,
		Gender:             req.Gender,
		Password:           string(hash),
		AvailabilityStatus: models.Available,
		CreatedAt:          models.NewTimestamp(s.now()),
	}
	if req.Role == models.RoleEmployer {
		user.CompanyName = company
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return nil, uniquenessError(err)
	}

	s.log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("user signed up")
	return &user, nil
}

func uniquenessError(err error) error {
	switch {
	case errors.Is(err, repository.ErrPhoneTaken):
		return invalid("Phone number already registered.")
	case errors.Is(err, repository.ErrEmailTaken):
		return invalid("Email already registered.")
	}
	return err
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// checkPassword compares a login attempt with the stored credential. Records
// written before hashing was introduced hold the plaintext; those match by
// exact equality and are reported as legacy so the caller can rehash them.
func checkPassword(stored, given string) (ok, legacy bool) {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil, false
	}
	return stored != "" && stored == given, true
}

// Authenticate returns the first user with the given role whose name
// (case-insensitive) or phone equals identifier and whose password matches.
func (s *Service) Authenticate(ctx context.Context, identifier, password string, role models.Role) (*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	identifier = strings.TrimSpace(identifier)
	password = strings.TrimSpace(password)

	for i := range users {
		u := &users[i]
		if u.Role != role {
			continue
		}
		if !strings.EqualFold(identifier, u.Name) && identifier != u.Phone {
			continue
		}
		ok, legacy := checkPassword(u.Password, password)
		if !ok {
			continue
		}
		if legacy {
			s.upgradePassword(ctx, u.ID, password)
		}
		return u, nil
	}
	return nil, ErrInvalidCredentials
}

func (s *Service) upgradePassword(ctx context.Context, id int, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.log.WithError(err).Warn("hashing legacy password")
		return
	}
	_, err = s.users.Update(ctx, id, func(u *models.User) error {
		u.Password = string(hash)
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", id).Warn("upgrading legacy password")
		return
	}
	s.log.WithField("user_id", id).Info("upgraded plaintext password to bcrypt")
}

func (s *Service) User(ctx context.Context, id int) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if models.SameEmail(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// protectedFields cannot be set through UpdateUserProfile.
var protectedFields = map[string]bool{
	"id":           true,
	"role":         true,
	"password":     true,
	"job_postings": true,
	"created_at":   true,

	"profile_completion": true,
}

// UpdateUserProfile overwrites the given top-level fields of the user record.
func (s *Service) UpdateUserProfile(ctx context.Context, id int, updates map[string]interface{}) (*models.User, error) {
	for key, value := range updates {
		if protectedFields[strings.ToLower(key)] {
			return nil, invalid(fmt.Sprintf("Field %q cannot be changed.", key))
		}
		if err := validateProfileField(strings.ToLower(key), value); err != nil {
			return nil, err
		}
	}

	user, err := s.users.Update(ctx, id, func(u *models.User) error {
		return mergeFields(u, updates)
	})
	if err != nil {
		return nil, uniquenessError(err)
	}
	s.log.WithField("user_id", id).Debug("profile updated")
	return user, nil
}

func validateProfileField(key string, value interface{}) error {
	str, isString := value.(string)
	switch key {
	case "phone":
		if !isString || !validation.Phone(str) {
			return invalid("Phone number must be exactly 10 digits.")
		}
	case "email":
		if !isString || !validation.Email(str) {
			return invalid("Invalid email address.")
		}
	case "aadhaar":
		if !isString || (str != "" && !validation.Aadhaar(str)) {
			return invalid("Aadhaar number must be exactly 12 digits.")
		}
	case "availability_status":
		if !isString || !models.Availability(str).Valid() {
			return invalid("Unknown availability status.")
		}
	case "name":
		if !isString || strings.TrimSpace(str) == "" {
			return invalid("Name cannot be empty.")
		}
	}
	return nil
}

// mergeFields applies updates as a shallow overwrite of u's JSON fields.
func mergeFields(u *models.User, updates map[string]interface{}) error {
	current, err := json.Marshal(u)
	if err != nil {
		return err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(current, &fields); err != nil {
		return err
	}
	for key, value := range updates {
		for existing := range fields {
			if existing != key && strings.EqualFold(existing, key) {
				delete(fields, existing)
			}
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return invalid(fmt.Sprintf("Field %q has an unsupported value.", key))
		}
		fields[key] = raw
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	var next models.User
	if err := json.Unmarshal(merged, &next); err != nil {
		return invalid(fmt.Sprintf("Invalid profile update: %v", err))
	}
	*u = next
	return nil
}

func (s *Service) SetAvailability(ctx context.Context, id int, status models.Availability) (*models.User, error) {
	if !status.Valid() {
		return nil, invalid("Unknown availability status.")
	}
	return s.users.Update(ctx, id, func(u *models.User) error {
		if !u.IsJobSeeker() {
			return ErrForbidden
		}
		u.AvailabilityStatus = status
		return nil
	})
}

// CleanupUserData repairs invalid gender, experience, salary and missing
// availability values. The users file is written only if something changed.
func (s *Service) CleanupUserData(ctx context.Context) (int, error) {
	changed, err := s.users.UpdateEach(ctx, func(u *models.User) bool {
		return u.Normalize()
	})
	if err != nil {
		return 0, fmt.Errorf("cleaning user data: %w", err)
	}
	if changed > 0 {
		s.log.WithField("changed", changed).Info("repaired user records")
	}
	return changed, nil
}

type SeekerFilter struct {
	Skill        string `form:"skill"`
	Experience   string `form:"experience"`
	Availability string `form:"availability"`
}

func (s *Service) BrowseSeekers(ctx context.Context, f SeekerFilter) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	seekers := []models.User{}
	for _, u := range users {
		if !u.IsJobSeeker() {
			continue
		}
		if f.Skill != "" && !contains(u.JobTypes, f.Skill) {
			continue
		}
		if f.Experience != "" && u.Experience != f.Experience {
			continue
		}
		status := u.AvailabilityStatus
		if status == "" {
			status = models.Available
		}
		if f.Availability != "" && string(status) != f.Availability {
			continue
		}
		seekers = append(seekers, u.Public())
	}
	return seekers, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
