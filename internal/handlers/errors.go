package handlers

import (
	"errors"
	"net/http"

	"shelf/internal/repository"
	"shelf/internal/service"
	"shelf/internal/thermostat"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal error"
)

// statusFor maps domain errors to HTTP codes. Anything unrecognized is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, thermostat.ErrDuplicateSensor),
		errors.Is(err, repository.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, thermostat.ErrUnknownSensor):
		return http.StatusNotFound
	case errors.Is(err, thermostat.ErrInvalidName),
		errors.Is(err, thermostat.ErrInvalidSensorID),
		errors.Is(err, thermostat.ErrTargetOutOfRange),
		errors.Is(err, thermostat.ErrInvalidMode),
		errors.Is(err, service.ErrInvalidReading),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrUnknownEventType),
		errors.Is(err, service.ErrEmptyUsername):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondServiceError writes the mapped status. Client errors echo the message; server
// errors are logged and hidden.
func (h *Handler) respondServiceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logAndJSONError(c, code, errInternal, logKey, err, kv...)
		return
	}
	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Infow(logKey, fields...)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}
