package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/internal/services"
	"github.com/atelierlabs/muse/pkg/models"
)

type SimilarityHandler struct {
	service  *services.SimilaritySearchService
	metrics  *services.MetricsCollector
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewSimilarityHandler(service *services.SimilaritySearchService, metrics *services.MetricsCollector, logger *logrus.Logger) *SimilarityHandler {
	return &SimilarityHandler{
		service:  service,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
	}
}

// SearchByVector handles similarity search for a caller-supplied feature
// vector. A query vector of the wrong dimensionality is a client error.
func (h *SimilarityHandler) SearchByVector(c *gin.Context) {
	var req models.SimilaritySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid request body format",
			},
		})
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	matches, err := h.service.SearchByVector(c.Request.Context(), req.Features, req.Threshold, req.Limit)
	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	h.metrics.ObserveSimilaritySearch()

	c.JSON(http.StatusOK, models.SimilaritySearchResponse{
		Matches:     matches,
		GeneratedAt: time.Now().UTC(),
	})
}

// SearchByArtwork handles similarity search seeded by a stored artwork.
func (h *SimilarityHandler) SearchByArtwork(c *gin.Context) {
	artworkID, err := uuid.Parse(c.Param("artworkId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_ARTWORK_ID",
				"message": "Invalid artwork ID format",
			},
		})
		return
	}

	var threshold *float64
	if raw := c.Query("threshold"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed >= -1 && parsed <= 1 {
			threshold = &parsed
		}
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	matches, err := h.service.SearchByArtwork(c.Request.Context(), artworkID, threshold, limit)
	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	h.metrics.ObserveSimilaritySearch()

	c.JSON(http.StatusOK, models.SimilaritySearchResponse{
		Matches:     matches,
		GeneratedAt: time.Now().UTC(),
	})
}

func (h *SimilarityHandler) respondSearchError(c *gin.Context, err error) {
	var mismatch *services.DimensionMismatchError
	if errors.As(err, &mismatch) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "DIMENSION_MISMATCH",
				"message": mismatch.Error(),
			},
		})
		return
	}

	h.logger.WithError(err).Error("Similarity search failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "SIMILARITY_SEARCH_FAILED",
			"message": "Failed to execute similarity search",
		},
	})
}
