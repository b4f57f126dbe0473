// Package api exposes the marketplace services over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/girohack/jobconnect/internal/services"
	"github.com/girohack/jobconnect/internal/validation"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
}

type Server struct {
	svc      *services.Service
	secret   []byte
	tokenTTL time.Duration
	origins  []string
	log      *log.Entry
}

func New(svc *services.Service, opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.RegisterValidators(v); err != nil {
			return nil, err
		}
	}

	return &Server{
		svc:      svc,
		secret:   []byte(opts.JWTSecret),
		tokenTTL: opts.TokenTTL,
		origins:  opts.CORSOrigins,
		log:      log.WithField("component", "api"),
	}, nil
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.origins
	corsConfig.AllowWildcard = true
	corsConfig.AllowHeaders = []string{"Authorization", "Origin", "Content-Length", "Content-Type", "Accept", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	r.Use(cors.New(corsConfig))

	r.POST("/api/signup", s.signup())
	r.POST("/api/login", s.login())
	r.POST("/api/checkemail", s.checkEmail())
	r.GET("/api/jobs/demo", s.demoJobs())

	auth := r.Group("/api", s.authRequired())
	auth.GET("/users/me", s.getMyself())
	auth.PATCH("/users/me", s.updateMyself())
	auth.PUT("/users/me/availability", s.setAvailability())
	auth.GET("/seekers", s.browseSeekers())
	auth.GET("/jobs", s.jobBoard())
	auth.POST("/jobs", s.postJob())
	auth.POST("/jobs/:employer/:job/apply", s.apply())
	auth.GET("/applications", s.applications())
	auth.PUT("/applications/:id/status", s.decideApplication())
	auth.GET("/offers", s.offers())
	auth.POST("/offers", s.sendOffer())
	auth.PUT("/offers/:id/status", s.respondToOffer())
	auth.GET("/stats", s.stats())

	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.WithField("addr", addr).Info("listening")
	return srv.ListenAndServe()
}
