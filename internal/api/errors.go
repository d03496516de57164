package api

import (
	"errors"
	"net/http"

	"tutorslot/internal/logger"

	"github.com/gin-gonic/gin"
)

// Error kinds shared by every package. Domain errors wrap one of these
// so handlers can pick a status code with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
)

// StatusFor maps an error to the HTTP status its kind implies. Upstream
// failures are 500 so provider error text never reaches the client.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUpstream):
		return http.StatusInternalServerError
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the JSON error body. Unclassified errors are logged
// and hidden behind a generic message.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	if status == http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
