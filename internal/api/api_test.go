package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/services"
	"github.com/girohack/jobconnect/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	svc := services.New(storage.Open(t.TempDir()), services.WithBcryptCost(bcrypt.MinCost))
	srv, err := New(svc, Options{JWTSecret: "test-secret", TokenTTL: time.Hour})
	require.NoError(t, err)
	return srv, srv.Router()
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func signup(t *testing.T, r http.Handler, body gin.H) sessionResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/signup", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var s sessionResponse
	decodeBody(t, w, &s)
	require.NotEmpty(t, s.Token)
	return s
}

func employerBody() gin.H {
	return gin.H{
		"role": "hire", "name": "Ravi Kumar", "phone": "9123456780", "email": "ravi@homes.in",
		"gender": "Male", "password": "Secret9#x", "confirm_password": "Secret9#x",
		"company_name": "Ravi Homes", "accept_terms": true,
	}
}

func seekerBody() gin.H {
	return gin.H{
		"role": "job", "name": "Asha Patil", "phone": "9876543210", "email": "a@b.co",
		"gender": "Female", "password": "Abcdef1!", "confirm_password": "Abcdef1!",
		"accept_terms": true,
	}
}

func TestSignupAndLogin(t *testing.T) {
	_, r := newTestServer(t)

	s := signup(t, r, seekerBody())
	assert.Empty(t, s.User.Password)
	assert.Equal(t, 1, s.User.ID)

	w := do(t, r, http.MethodPost, "/api/signup", "", seekerBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Phone number already registered.")

	w = do(t, r, http.MethodPost, "/api/login", "", gin.H{"identifier": "9876543210", "password": "Abcdef1!", "role": "job"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/login", "", gin.H{"identifier": "asha patil", "password": "wrong", "role": "job"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/api/login", "", gin.H{"identifier": "9876543210", "password": "Abcdef1!", "role": "hire"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckEmail(t *testing.T) {
	_, r := newTestServer(t)
	signup(t, r, seekerBody())

	w := do(t, r, http.MethodPost, "/api/checkemail", "", gin.H{"email": "A@B.CO"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists":true}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/checkemail", "", gin.H{"email": "nobody@x.in"})
	assert.JSONEq(t, `{"exists":false}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/checkemail", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequired(t *testing.T) {
	srv, r := newTestServer(t)
	s := signup(t, r, seekerBody())

	w := do(t, r, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		ID:             s.User.ID,
		Role:           s.User.Role,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()},
	})
	raw, err := expired.SignedString(srv.secret)
	require.NoError(t, err)
	w = do(t, r, http.MethodGet, "/api/users/me", raw, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{ID: s.User.ID, Role: s.User.Role}).SignedString([]byte("other"))
	require.NoError(t, err)
	w = do(t, r, http.MethodGet, "/api/users/me", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/users/me", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Name              string `json:"name"`
		Password          string `json:"password"`
		ProfileCompletion int    `json:"profile_completion"`
	}
	decodeBody(t, w, &me)
	assert.Equal(t, "Asha Patil", me.Name)
	assert.Empty(t, me.Password)
	assert.Equal(t, 30, me.ProfileCompletion)
}

func TestTokenRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	raw, err := srv.issueToken(&models.User{ID: 7, Role: models.RoleEmployer})
	require.NoError(t, err)

	claims, err := srv.parseToken(raw)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.ID)
	assert.Equal(t, models.RoleEmployer, claims.Role)
}

func TestProfileUpdate(t *testing.T) {
	_, r := newTestServer(t)
	s := signup(t, r, seekerBody())

	w := do(t, r, http.MethodPatch, "/api/users/me", s.Token, gin.H{"city": "Pune", "aadhaar": "123456789012"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"city":"Pune"`)

	w = do(t, r, http.MethodPatch, "/api/users/me", s.Token, gin.H{"role": "hire"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/users/me/availability", s.Token, gin.H{"status": "busy"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"availability_status":"busy"`)
}

func TestHiringFlow(t *testing.T) {
	_, r := newTestServer(t)
	employer := signup(t, r, employerBody())
	seeker := signup(t, r, seekerBody())

	w := do(t, r, http.MethodPost, "/api/jobs", seeker.Token, gin.H{"title": "Cook"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodPost, "/api/jobs", employer.Token, gin.H{"location": "Pune"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodPost, "/api/jobs", employer.Token, gin.H{"title": "Cook", "location": "Pune", "salary": 18000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/jobs?location=Pune", seeker.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listings []services.Listing
	decodeBody(t, w, &listings)
	require.Len(t, listings, 1)
	assert.Equal(t, "Ravi Homes", listings[0].Employer.Company)
	assert.False(t, listings[0].Applied)

	w = do(t, r, http.MethodPost, "/api/jobs/1/1/apply", seeker.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/api/jobs/1/1/apply", seeker.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, r, http.MethodPost, "/api/jobs/1/9/apply", seeker.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPut, "/api/applications/1/status", seeker.Token, gin.H{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodPut, "/api/applications/1/status", employer.Token, gin.H{"status": "accepted", "message": "Welcome"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPut, "/api/applications/1/status", employer.Token, gin.H{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, "/api/applications", seeker.Token, nil)
	var apps []models.Application
	decodeBody(t, w, &apps)
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusAccepted, apps[0].Status)
	assert.Equal(t, "Welcome", apps[0].ResponseMessage)

	w = do(t, r, http.MethodGet, "/api/stats", employer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.EmployerStats
	decodeBody(t, w, &stats)
	assert.Equal(t, 1, stats.JobsPosted)
	assert.Equal(t, 1, stats.Accepted)

	w = do(t, r, http.MethodGet, "/api/seekers", seeker.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodGet, "/api/seekers?availability=available", employer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var seekers []models.User
	decodeBody(t, w, &seekers)
	assert.Len(t, seekers, 1)
}

func TestOfferFlow(t *testing.T) {
	_, r := newTestServer(t)
	employer := signup(t, r, employerBody())
	seeker := signup(t, r, seekerBody())

	offer := gin.H{"job_seeker_id": seeker.User.ID, "job_title": "Cook", "job_description": "Meals", "location": "Pune", "salary_offered": "18000"}
	w := do(t, r, http.MethodPost, "/api/offers", employer.Token, offer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/api/offers", employer.Token, offer)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, r, http.MethodPost, "/api/offers", employer.Token, gin.H{"job_title": "Cook"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/offers?active=true", seeker.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []offerView
	decodeBody(t, w, &views)
	require.Len(t, views, 1)
	assert.False(t, views[0].Expired)
	assert.NotEmpty(t, views[0].TimeLeft)
	assert.Equal(t, models.Salary(18000), views[0].SalaryOffered)

	w = do(t, r, http.MethodPut, "/api/offers/1/status", employer.Token, gin.H{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodPut, "/api/offers/1/status", seeker.Token, gin.H{"status": "rejected", "message": "no thanks"})
	require.Equal(t, http.StatusOK, w.Code)
	var answered models.Offer
	decodeBody(t, w, &answered)
	assert.Equal(t, models.StatusRejected, answered.Status)
	assert.Equal(t, "no thanks", answered.ResponseMessage)
}

func TestViewOffersExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	offers := []models.Offer{
		{ID: 1, Status: models.StatusPending, ExpiresAt: models.NewTimestamp(now.Add(-time.Minute))},
		{ID: 2, Status: models.StatusPending, ExpiresAt: models.NewTimestamp(now.Add(90 * time.Minute))},
		{ID: 3, Status: models.StatusAccepted, ExpiresAt: models.NewTimestamp(now.Add(-time.Hour))},
	}

	views := viewOffers(offers, now)
	assert.True(t, views[0].Expired)
	assert.Equal(t, models.StatusPending, views[0].Status)
	assert.Equal(t, "1h30m0s", views[1].TimeLeft)
	assert.False(t, views[2].Expired)
}

func TestMsgpackNegotiation(t *testing.T) {
	srv, r := newTestServer(t)
	_, err := srv.svc.SaveDemoJob(context.Background(), models.JobPosting{Title: "Gardener", Company: "Green Co"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/demo", nil)
	req.Header.Set("Accept", mimeMsgpack)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, mimeMsgpack, w.Header().Get("Content-Type"))

	var jobs []map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Gardener", jobs[0]["title"])

	w = do(t, r, http.MethodGet, "/api/jobs/demo", "", nil)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestRequestID(t *testing.T) {
	_, r := newTestServer(t)

	w := do(t, r, http.MethodGet, "/api/jobs/demo", "", nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/demo", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(services.New(storage.Open(t.TempDir())), Options{})
	assert.Error(t, err)
}
