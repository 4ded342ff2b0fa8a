package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/internal/services"
	"github.com/atelierlabs/muse/pkg/models"
)

type RecommendationHandler struct {
	service  *services.RecommendationService
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewRecommendationHandler(service *services.RecommendationService, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// GetArtworks serves one personalized recommendation batch.
func (h *RecommendationHandler) GetArtworks(c *gin.Context) {
	var req models.RecommendationRequest
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

	response, err := h.service.GetRecommendations(c.Request.Context(), req)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", req.UserID).Error("Failed to generate recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RECOMMENDATION_GENERATION_FAILED",
				"message": "Failed to generate recommendations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetTrending serves popularity-ranked recent public artworks.
func (h *RecommendationHandler) GetTrending(c *gin.Context) {
	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var category *string
	if raw := c.Query("category"); raw != "" {
		category = &raw
	}

	response, err := h.service.GetTrending(c.Request.Context(), limit, category)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch trending artworks")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "TRENDING_FAILED",
				"message": "Failed to fetch trending artworks",
			},
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// PostFeedback records one like/dislike/click/view event.
func (h *RecommendationHandler) PostFeedback(c *gin.Context) {
	var req models.FeedbackRequest
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

	if err := h.service.RecordFeedback(c.Request.Context(), req); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    req.UserID,
			"artwork_id": req.ArtworkID,
		}).Error("Failed to record feedback")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "FEEDBACK_FAILED",
				"message": "Failed to record feedback",
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
}
