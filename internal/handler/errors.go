package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"payroll-import/internal/domain"
	"payroll-import/internal/logger"
	"payroll-import/internal/middleware"
	"payroll-import/internal/service"
)

// statusFor maps service errors onto HTTP status codes. Unknown errors are
// internal and their text is not returned to the client.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrPeriodNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrInvalidFile), errors.Is(err, domain.ErrNoData):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrRollbackUnavailable), errors.Is(err, service.ErrJobFinished):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrServiceClosed), errors.Is(err, domain.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, true
	default:
		return http.StatusInternalServerError, false
	}
}

// writeError logs err and writes the mapped status. fallback is the message
// shown for internal errors.
func writeError(c *gin.Context, err error, fallback string) {
	status, public := statusFor(err)
	log := logger.WithRequestID(middleware.GetRequestID(c))
	if status >= http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), fallback, slog.String("error", err.Error()))
	} else {
		log.InfoContext(c.Request.Context(), "request rejected",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}

	msg := fallback
	if public {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}
