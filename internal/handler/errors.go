package handler

import (
	"errors"
	"net/http"

	"chartkit-backend/internal/chart"
	"chartkit-backend/internal/ingest"
	"chartkit-backend/internal/middleware"
	"chartkit-backend/internal/model"
	"chartkit-backend/internal/service"
	"chartkit-backend/internal/storage"
	"chartkit-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes. Anything unrecognised
// is a server-side failure.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrNoFile),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, chart.ErrMissingDataReference),
		errors.Is(err, chart.ErrUnknownChartType),
		errors.Is(err, chart.ErrMissingColumn):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrDatasetNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {error, details}. Client errors carry the error text as
// the message; server errors carry a fixed message and the error as details.
func respondError(c *gin.Context, err error, serverMessage string) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		c.JSON(status, model.ErrorResponse{Error: err.Error()})
		return
	}

	fields := middleware.LogFields(c.Request.Context())
	fields["path"] = c.Request.URL.Path
	logger.WithFields(fields).Errorf("%s: %v", serverMessage, err)
	c.JSON(status, model.ErrorResponse{Error: serverMessage, Details: err.Error()})
}
