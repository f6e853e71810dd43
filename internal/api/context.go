package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosterforge/roster-core/pkg/roster"
	"github.com/rosterforge/roster-core/pkg/rosterr"
)

// ErrorResponse is the uniform error body every handler returns,
// generalized from the teacher's internal/api/auth.go ErrorResponse.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// GetCallerIdentity reads the roster.CallerIdentity the auth middleware
// attached to the request context, generalized from the teacher's
// GetCurrentUserID(c) which only carried a user id.
func GetCallerIdentity(c *gin.Context) (roster.CallerIdentity, error) {
	v, exists := c.Get("caller")
	if !exists {
		return roster.CallerIdentity{}, http.ErrNoCookie
	}
	caller, ok := v.(roster.CallerIdentity)
	if !ok {
		return roster.CallerIdentity{}, http.ErrNoCookie
	}
	return caller, nil
}

// writeError maps a rosterr.Kind to the HTTP status spec §7 implies for
// each kind and writes the ErrorResponse body.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch rosterr.KindOf(err) {
	case rosterr.NotFound:
		status = http.StatusNotFound
	case rosterr.Conflict:
		status = http.StatusConflict
	case rosterr.PreconditionFailed:
		status = http.StatusPreconditionFailed
	case rosterr.Cancelled:
		status = http.StatusGone
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
