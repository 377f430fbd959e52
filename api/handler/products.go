package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pinscout/models"
)

// ProductScraper runs one full scrape for a pincode.
type ProductScraper interface {
	Run(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, error)
}

// GetProducts returns a handler for GET /api/get-products.
//
// Orchestration flow:
//  1. Bind ?pincode= and reject a missing or blank value with 400.
//  2. Run the scrape, detached from client cancellation so the browser
//     session is always released by the scraper itself.
//  3. 200 with the per-term products, or a mapped error status.
func GetProducts(sc ProductScraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindQuery(&req); err != nil || !req.Normalize() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "pincode is required",
				Code:  models.ErrCodeMissingParameter,
			})
			return
		}

		// ── 2. Scrape ───────────────────────────────────────────────
		result, err := sc.Run(context.WithoutCancel(c.Request.Context()), &req)
		if err != nil {
			slog.Error("scrape failed",
				"pincode", req.Pincode,
				"error", err,
				"duration", time.Since(start),
			)
			respondError(c, err)
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		slog.Info("scrape served",
			"pincode", req.Pincode,
			"headphones", len(result.Headphones),
			"earbuds", len(result.Earbuds),
			"duration", time.Since(start),
		)
		c.JSON(http.StatusOK, result)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), nil)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{
		Error: "failed to scrape data: " + scrapeErr.Detail(),
		Code:  scrapeErr.Code,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeNavigationTimeout, models.ErrCodeSelectorTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeMissingParameter:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
