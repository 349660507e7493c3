package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"beckon/internal/apperr"
)

// writeError maps error kinds to HTTP statuses. Unclassified errors never
// leak internals to the client.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Msg
		switch ae.Kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindUnauthorized:
			status = http.StatusUnauthorized
		case apperr.KindForbidden:
			status = http.StatusForbidden
		case apperr.KindConflict:
			status = http.StatusConflict
		case apperr.KindExternal:
			status = http.StatusServiceUnavailable
			msg = "temporarily unavailable"
		}
	}
	c.JSON(status, gin.H{"error": msg})
}
