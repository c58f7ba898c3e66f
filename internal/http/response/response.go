// Package response maps service errors onto HTTP responses so handlers
// never translate error kinds themselves.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
)

// StatusClientClosedRequest is the nginx convention for a request the
// client abandoned.
const StatusClientClosedRequest = 499

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindCapabilityDisabled:
		return http.StatusNotImplemented
	case apperr.KindCancelled:
		return StatusClientClosedRequest
	case apperr.KindTransientUpstream, apperr.KindPermanentUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the error as JSON with the mapped status.
func Error(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{
		"error": err.Error(),
		"kind":  string(apperr.KindOf(err)),
	})
}

func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func Accepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}
