// Package httpserver exposes the JSON API consumed by the mobile client.
package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vls-lab/ctf-server/internal/errs"
)

// Response is the JSON envelope used by every endpoint.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: msg, Data: data})
}

// respondErr maps sentinel errors onto HTTP statuses. Unknown errors are
// treated as transient store failures: the client may retry the same attempt.
func respondErr(c *gin.Context, err error) {
	status, msg := http.StatusServiceUnavailable, "temporarily unavailable"
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, errs.ErrChallengeFrozen):
		status, msg = http.StatusConflict, "challenge already has submissions"
	case errors.Is(err, errs.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "rate limited"
	}
	c.JSON(status, Response{Code: status, Msg: msg})
}
