package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/girohack/jobconnect/internal/repository"
	"github.com/girohack/jobconnect/internal/services"
	"github.com/vmihailenco/msgpack"
)

const mimeMsgpack = "application/msgpack"

func erro(err error) gin.H {
	return gin.H{"error": err.Error()}
}

// respond writes v as JSON, or as msgpack when the client asks for it.
func respond(c *gin.Context, code int, v interface{}) {
	if c.NegotiateFormat(gin.MIMEJSON, mimeMsgpack) != mimeMsgpack {
		c.JSON(code, v)
		return
	}
	b, err := encodeMsgpack(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, erro(err))
		return
	}
	c.Data(code, mimeMsgpack, b)
}

// encodeMsgpack goes through JSON first so msgpack output uses the same
// field names and value formats as the JSON responses.
func encodeMsgpack(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return msgpack.Marshal(generic)
}

func statusFor(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAlreadyApplied),
		errors.Is(err, services.ErrRecentOffer),
		errors.Is(err, services.ErrUnavailable),
		errors.Is(err, repository.ErrPhoneTaken),
		errors.Is(err, repository.ErrEmailTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("request failed")
	}
	respond(c, code, erro(err))
}
