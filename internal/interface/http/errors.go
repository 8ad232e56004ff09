package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/invest-payout-engine/internal/application"
	"github.com/oksasatya/invest-payout-engine/pkg/response"
)

// statusFor maps application errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	case errors.Is(err, application.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid status"
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, application.ErrInvalidTransition):
		return http.StatusConflict, "status transition not allowed"
	case errors.Is(err, application.ErrInvalidState):
		return http.StatusConflict, "investment is not active"
	case errors.Is(err, application.ErrNotDue):
		return http.StatusConflict, "payout not due"
	case errors.Is(err, application.ErrConcurrentUpdate):
		return http.StatusConflict, "concurrent update, retry"
	case errors.Is(err, application.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, application.ErrUnauthorized), errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, application.ErrUnavailable):
		return http.StatusServiceUnavailable, "feature not configured"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError answers with the mapped status. Internal errors are logged and
// their detail is not exposed.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			}).Error("request failed")
		}
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Error[any](c, status, msg, err.Error())
}
