package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/girohack/jobconnect/internal/models"
)

const userKey = "user"

var errUnauthorized = errors.New("unauthorized")

type Claims struct {
	ID   int         `json:"id"`
	Role models.Role `json:"role"`
	jwt.StandardClaims
}

func (s *Server) issueToken(u *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:   u.ID,
		Role: u.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnauthorized, err)
	}
	if !tkn.Valid {
		return nil, errUnauthorized
	}
	return claims, nil
}

// authRequired resolves the bearer token to a stored user. Tokens for users
// that no longer exist are rejected.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if h == "" {
			respond(c, http.StatusUnauthorized, erro(errUnauthorized))
			c.Abort()
			return
		}
		claims, err := s.parseToken(h)
		if err != nil {
			respond(c, http.StatusUnauthorized, erro(err))
			c.Abort()
			return
		}
		user, err := s.svc.User(c.Request.Context(), claims.ID)
		if err != nil || user.Role != claims.Role {
			respond(c, http.StatusUnauthorized, erro(errUnauthorized))
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}
