package scraper

import (
	"context"
	"errors"

	"github.com/use-agent/pinscout/models"
)

// categorizeError wraps raw automation errors into typed ScrapeErrors so the
// API layer can map them to HTTP status codes. Deadline failures get
// timeoutCode; errors that are already classified pass through.
func categorizeError(err error, timeoutCode, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(timeoutCode, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeAutomation, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeAutomation, msg, err)
	}
}
