package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/services"
)

type session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s *Server) newSession(c *gin.Context, code int, u *models.User) {
	token, err := s.issueToken(u)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, code, session{Token: token, User: u.Public()})
}

func (s *Server) signup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		user, err := s.svc.Signup(c.Request.Context(), req)
		if err != nil {
			s.fail(c, err)
			return
		}
		s.newSession(c, http.StatusCreated, user)
	}
}

func (s *Server) login() gin.HandlerFunc {
	type loginReq struct {
		Identifier string      `json:"identifier" binding:"required"`
		Password   string      `json:"password" binding:"required"`
		Role       models.Role `json:"role" binding:"required"`
	}

	return func(c *gin.Context) {
		var req loginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		user, err := s.svc.Authenticate(c.Request.Context(), req.Identifier, req.Password, req.Role)
		if err != nil {
			s.fail(c, err)
			return
		}
		s.newSession(c, http.StatusOK, user)
	}
}

func (s *Server) checkEmail() gin.HandlerFunc {
	type requestParams struct {
		Email string `json:"email" binding:"required,email_strict"`
	}
	return func(c *gin.Context) {
		var req requestParams
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		exists, err := s.svc.CheckEmail(c.Request.Context(), req.Email)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{"exists": exists})
	}
}

type profile struct {
	models.User
	ProfileCompletion int `json:"profile_completion"`
}

func (p profile) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(p.User)
	if err != nil {
		return nil, err
	}
	return models.AppendJSON(b, models.Extra{"profile_completion": json.RawMessage(strconv.Itoa(p.ProfileCompletion))})
}

func newProfile(u *models.User) profile {
	return profile{User: u.Public(), ProfileCompletion: models.ProfileCompletion(u)}
}

func (s *Server) getMyself() gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, http.StatusOK, newProfile(currentUser(c)))
	}
}

func (s *Server) updateMyself() gin.HandlerFunc {
	return func(c *gin.Context) {
		var updates map[string]interface{}
		if err := c.ShouldBindJSON(&updates); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		user, err := s.svc.UpdateUserProfile(c.Request.Context(), currentUser(c).ID, updates)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, newProfile(user))
	}
}

func (s *Server) setAvailability() gin.HandlerFunc {
	type requestParams struct {
		Status models.Availability `json:"status" binding:"required"`
	}
	return func(c *gin.Context) {
		var req requestParams
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		user, err := s.svc.SetAvailability(c.Request.Context(), currentUser(c).ID, req.Status)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, newProfile(user))
	}
}

func (s *Server) browseSeekers() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsEmployer() {
			s.fail(c, services.ErrForbidden)
			return
		}
		var f services.SeekerFilter
		if err := c.ShouldBindQuery(&f); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		seekers, err := s.svc.BrowseSeekers(c.Request.Context(), f)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, seekers)
	}
}

func (s *Server) demoJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := s.svc.DemoJobs(c.Request.Context())
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, jobs)
	}
}

func (s *Server) jobBoard() gin.HandlerFunc {
	return func(c *gin.Context) {
		var f services.JobFilter
		if err := c.ShouldBindQuery(&f); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		listings, err := s.svc.JobBoard(c.Request.Context(), currentUser(c).ID, f)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, listings)
	}
}

func (s *Server) postJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if !user.IsEmployer() {
			s.fail(c, services.ErrForbidden)
			return
		}
		var job models.JobPosting
		if err := c.ShouldBindJSON(&job); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		added, err := s.svc.AddJobPosting(c.Request.Context(), user.ID, job)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusCreated, added)
	}
}

func (s *Server) apply() gin.HandlerFunc {
	return func(c *gin.Context) {
		employerID, err := strconv.Atoi(c.Param("employer"))
		if err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}
		jobID, err := strconv.Atoi(c.Param("job"))
		if err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		app, err := s.svc.Apply(c.Request.Context(), currentUser(c).ID, employerID, jobID)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusCreated, app)
	}
}

func (s *Server) applications() gin.HandlerFunc {
	return func(c *gin.Context) {
		apps, err := s.svc.ApplicationsFor(c.Request.Context(), currentUser(c))
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, apps)
	}
}

type decision struct {
	Status  models.Status `json:"status" binding:"required"`
	Message string        `json:"message"`
}

func bindDecision(c *gin.Context) (int, *decision, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond(c, http.StatusBadRequest, erro(err))
		return 0, nil, false
	}
	var req decision
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, erro(err))
		return 0, nil, false
	}
	return id, &req, true
}

func (s *Server) decideApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, req, ok := bindDecision(c)
		if !ok {
			return
		}

		app, err := s.svc.DecideApplication(c.Request.Context(), currentUser(c), id, req.Status, req.Message)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, app)
	}
}

// offerView adds the derived expiry state to an offer.
type offerView struct {
	models.Offer
	Expired  bool   `json:"expired"`
	TimeLeft string `json:"time_left,omitempty"`
}

func viewOffers(offers []models.Offer, now time.Time) []offerView {
	views := make([]offerView, 0, len(offers))
	for _, o := range offers {
		v := offerView{Offer: o, Expired: o.Expired(now)}
		if o.Status == models.StatusPending && !v.Expired {
			v.TimeLeft = o.TimeLeft(now).Truncate(time.Minute).String()
		}
		views = append(views, v)
	}
	return views
}

func (s *Server) offers() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		var (
			offers []models.Offer
			err    error
		)
		if user.IsJobSeeker() && c.Query("active") == "true" {
			offers, err = s.svc.ActiveOffersFor(c.Request.Context(), user.ID)
		} else {
			offers, err = s.svc.OffersFor(c.Request.Context(), user)
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, viewOffers(offers, time.Now()))
	}
}

func (s *Server) sendOffer() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.OfferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, erro(err))
			return
		}

		offer, err := s.svc.SendOffer(c.Request.Context(), currentUser(c), req)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusCreated, offer)
	}
}

func (s *Server) respondToOffer() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, req, ok := bindDecision(c)
		if !ok {
			return
		}

		offer, err := s.svc.RespondToOffer(c.Request.Context(), currentUser(c), id, req.Status, req.Message)
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, offer)
	}
}

func (s *Server) stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := s.svc.EmployerStats(c.Request.Context(), currentUser(c))
		if err != nil {
			s.fail(c, err)
			return
		}
		respond(c, http.StatusOK, stats)
	}
}
