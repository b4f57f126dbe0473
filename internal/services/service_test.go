package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
	"github.com/girohack/jobconnect/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *clock, string) {
	t.Helper()
	dir := t.TempDir()
	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := New(storage.Open(dir), WithClock(clk.now), WithBcryptCost(bcrypt.MinCost))
	return svc, clk, dir
}

func seekerSignup() SignupRequest {
	return SignupRequest{
		Role:            models.RoleJobSeeker,
		Name:            "Asha Patil",
		Phone:           "9876543210",
		Email:           "a@b.co",
		Gender:          "Female",
		Password:        "Abcdef1!",
		ConfirmPassword: "Abcdef1!",
		AcceptTerms:     true,
	}
}

func employerSignup() SignupRequest {
	return SignupRequest{
		Role:            models.RoleEmployer,
		Name:            "Ravi Kumar",
		Phone:           "9123456780",
		Email:           "ravi@homes.in",
		Gender:          "Male",
		Password:        "Secret9#x",
		ConfirmPassword: "Secret9#x",
		CompanyName:     "Ravi Homes",
		AcceptTerms:     true,
	}
}

func mustSignup(t *testing.T, svc *Service, req SignupRequest) *models.User {
	t.Helper()
	u, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)
	return u
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Msg
}

func TestSignup(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()

	u := mustSignup(t, svc, seekerSignup())
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, models.Available, u.AvailabilityStatus)
	assert.Equal(t, clk.t, u.CreatedAt.Time)
	assert.NotEqual(t, "Abcdef1!", u.Password)

	dup := seekerSignup()
	dup.Email = "other@b.co"
	_, err := svc.Signup(ctx, dup)
	assert.Equal(t, "Phone number already registered.", validationMessage(t, err))

	dup = seekerSignup()
	dup.Phone = "9999999999"
	dup.Email = "A@B.CO"
	_, err = svc.Signup(ctx, dup)
	assert.Equal(t, "Email already registered.", validationMessage(t, err))

	employer := mustSignup(t, svc, employerSignup())
	assert.Equal(t, 2, employer.ID)
	assert.Equal(t, "Ravi Homes", employer.CompanyName)
}

func TestSignup_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name   string
		modify func(r *SignupRequest)
		want   string
	}{
		{"missing name", func(r *SignupRequest) { r.Name = "  " }, "Please fill all required fields and select gender."},
		{"no gender", func(r *SignupRequest) { r.Gender = "Select" }, "Please fill all required fields and select gender."},
		{"terms", func(r *SignupRequest) { r.AcceptTerms = false }, "You must accept the Terms and Conditions."},
		{"mismatch", func(r *SignupRequest) { r.ConfirmPassword = "Abcdef1?" }, "Passwords do not match."},
		{"phone", func(r *SignupRequest) { r.Phone = "12345" }, "Phone number must be exactly 10 digits."},
		{"email", func(r *SignupRequest) { r.Email = "a@b.c" }, "Invalid email address."},
		{"weak password", func(r *SignupRequest) { r.Password, r.ConfirmPassword = "abcdefg1!", "abcdefg1!" }, "Password must contain at least one uppercase letter."},
		{"employer without company", func(r *SignupRequest) { r.Role = models.RoleEmployer }, "Please fill all required fields and select gender."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := seekerSignup()
			tt.modify(&req)
			_, err := svc.Signup(context.Background(), req)
			assert.Equal(t, tt.want, validationMessage(t, err))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustSignup(t, svc, seekerSignup())
	mustSignup(t, svc, employerSignup())

	u, err := svc.Authenticate(ctx, "asha patil", "Abcdef1!", models.RoleJobSeeker)
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	u, err = svc.Authenticate(ctx, "9876543210", "Abcdef1!", models.RoleJobSeeker)
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	_, err = svc.Authenticate(ctx, "Asha Patil", "Abcdef1!", models.RoleEmployer)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "Asha Patil", "abcdef1!", models.RoleJobSeeker)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "", models.RoleJobSeeker)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_UpgradesPlaintextPassword(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()

	legacy := `[{"id": 7, "role": "job", "name": "Old User", "phone": "9000000007", "email": "old@x.in", "password": "Plain1!pass", "created_at": "2024-05-01T10:00:00.000001"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.UsersFile), []byte(legacy), 0640))

	u, err := svc.Authenticate(ctx, "old user", "Plain1!pass", models.RoleJobSeeker)
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)

	stored, err := svc.User(ctx, 7)
	require.NoError(t, err)
	assert.True(t, isBcryptHash(stored.Password))

	_, err = svc.Authenticate(ctx, "9000000007", "Plain1!pass", models.RoleJobSeeker)
	assert.NoError(t, err)
}

func TestCheckEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustSignup(t, svc, seekerSignup())

	exists, err := svc.CheckEmail(context.Background(), " A@b.co ")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.CheckEmail(context.Background(), "new@b.co")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateUserProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u := mustSignup(t, svc, seekerSignup())
	other := mustSignup(t, svc, employerSignup())

	updated, err := svc.UpdateUserProfile(ctx, u.ID, map[string]interface{}{
		"city":            "Pune",
		"job_types":       []string{"Cook", "Maid"},
		"expected_salary": 18000.0,
		"aadhaar":         "1234 5678 9012",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pune", updated.City)
	assert.Equal(t, models.StringList{"Cook", "Maid"}, updated.JobTypes)
	assert.Equal(t, models.Salary(18000), updated.ExpectedSalary)
	assert.Equal(t, u.Password, updated.Password)
	assert.Equal(t, 70, models.ProfileCompletion(updated))

	_, err = svc.UpdateUserProfile(ctx, u.ID, map[string]interface{}{"role": "hire"})
	assert.Contains(t, validationMessage(t, err), "cannot be changed")

	_, err = svc.UpdateUserProfile(ctx, u.ID, map[string]interface{}{"phone": other.Phone})
	assert.Equal(t, "Phone number already registered.", validationMessage(t, err))

	_, err = svc.UpdateUserProfile(ctx, u.ID, map[string]interface{}{"email": "bad"})
	assert.Equal(t, "Invalid email address.", validationMessage(t, err))

	_, err = svc.UpdateUserProfile(ctx, u.ID, map[string]interface{}{"job_types": 5})
	validationMessage(t, err)

	_, err = svc.UpdateUserProfile(ctx, 99, map[string]interface{}{"city": "Goa"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateUserProfile_KeepsUnknownKeys(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()

	legacy := `[{"id": 1, "role": "job", "name": "Asha", "phone": "9876543210", "email": "a@b.co", "password": "Plain1!pass", "job_types": "Cook", "profile_photo": "a.jpg"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.UsersFile), []byte(legacy), 0640))

	updated, err := svc.UpdateUserProfile(ctx, 1, map[string]interface{}{"city": "Pune", "skills_note": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Pune", updated.City)
	assert.Equal(t, models.StringList{"Cook"}, updated.JobTypes)

	stored, err := svc.User(ctx, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `"a.jpg"`, string(stored.Extra["profile_photo"]))
	assert.JSONEq(t, `"x"`, string(stored.Extra["skills_note"]))

	updated, err = svc.UpdateUserProfile(ctx, 1, map[string]interface{}{"City": "Goa"})
	require.NoError(t, err)
	assert.Equal(t, "Goa", updated.City)
	assert.NotContains(t, updated.Extra, "City")

	_, err = svc.UpdateUserProfile(ctx, 1, map[string]interface{}{"PASSWORD": "x"})
	assert.Contains(t, validationMessage(t, err), "cannot be changed")

	stored, err = svc.User(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Plain1!pass", stored.Password)
}

func TestAuthenticate_TrimsInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := seekerSignup()
	req.Password, req.ConfirmPassword = " Abcdef1! ", " Abcdef1! "
	mustSignup(t, svc, req)

	u, err := svc.Authenticate(ctx, " 9876543210 ", " Abcdef1! ", models.RoleJobSeeker)
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	_, err = svc.Authenticate(ctx, "Asha Patil", "Abcdef1!", models.RoleJobSeeker)
	assert.NoError(t, err)
}

func TestSetAvailabilityAndBrowseSeekers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	asha := mustSignup(t, svc, seekerSignup())
	employer := mustSignup(t, svc, employerSignup())

	second := seekerSignup()
	second.Name, second.Phone, second.Email = "Meena", "9000000002", "meena@x.in"
	meena := mustSignup(t, svc, second)

	_, err := svc.UpdateUserProfile(ctx, asha.ID, map[string]interface{}{"job_types": []string{"Cook"}, "experience": "1-2 years"})
	require.NoError(t, err)
	_, err = svc.SetAvailability(ctx, meena.ID, models.Busy)
	require.NoError(t, err)

	_, err = svc.SetAvailability(ctx, employer.ID, models.Busy)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.SetAvailability(ctx, asha.ID, "sleeping")
	validationMessage(t, err)

	all, err := svc.BrowseSeekers(ctx, SeekerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, s := range all {
		assert.Empty(t, s.Password)
	}

	cooks, err := svc.BrowseSeekers(ctx, SeekerFilter{Skill: "Cook", Experience: "1-2 years"})
	require.NoError(t, err)
	require.Len(t, cooks, 1)
	assert.Equal(t, asha.ID, cooks[0].ID)

	busy, err := svc.BrowseSeekers(ctx, SeekerFilter{Availability: "busy"})
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, meena.ID, busy[0].ID)
}

func TestCleanupUserData(t *testing.T) {
	svc, _, dir := newTestService(t)
	ctx := context.Background()
	path := filepath.Join(dir, storage.UsersFile)

	raw := `[
		{"id": 1, "role": "job", "name": "A", "phone": "1", "email": "a@x.in", "gender": "Select", "experience": "Fresher", "expected_salary": "Not specified"},
		{"id": 2, "role": "job", "name": "B", "phone": "2", "email": "b@x.in", "gender": "Female", "experience": "2-5 years", "expected_salary": 20000, "availability_status": "busy"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0640))

	changed, err := svc.CleanupUserData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	a, err := svc.User(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Male", a.Gender)
	assert.Equal(t, models.DefaultSalary, a.ExpectedSalary)
	assert.Equal(t, models.Available, a.AvailabilityStatus)

	before, err := os.Stat(path)
	require.NoError(t, err)
	changed, err = svc.CleanupUserData(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestCleanupUserData_CorruptFile(t *testing.T) {
	svc, _, dir := newTestService(t)
	path := filepath.Join(dir, storage.UsersFile)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1,`), 0640))

	_, err := svc.CleanupUserData(context.Background())
	assert.ErrorIs(t, err, storage.ErrCorrupt)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"id": 1,`, string(raw))
}
