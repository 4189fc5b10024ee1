package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// errorStatus maps an error to its HTTP status code.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCapital),
		errors.Is(err, domain.ErrInvalidDistribution),
		errors.Is(err, domain.ErrUnknownStrategy),
		errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotStarted),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyCrashed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with {success: false, error}. Internal errors are
// recorded on the context and reported without details.
func writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// writeBindError responds to a malformed request body.
func writeBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
}
