package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/internal/services"
)

type AnalyticsHandler struct {
	service *services.AnalyticsService
	logger  *logrus.Logger
}

func NewAnalyticsHandler(service *services.AnalyticsService, logger *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
	}
}

// GetRecommendationPerformance reports CTR, conversion, and top categories
// over a date window. Defaults to the last 30 days.
func (h *AnalyticsHandler) GetRecommendationPerformance(c *gin.Context) {
	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -30)

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "INVALID_DATE",
					"message": "start_date must be YYYY-MM-DD",
				},
			})
			return
		}
		startDate = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "INVALID_DATE",
					"message": "end_date must be YYYY-MM-DD",
				},
			})
			return
		}
		endDate = parsed
	}

	algorithmVersion := c.DefaultQuery("algorithm_version", "v1.0")

	metrics, err := h.service.GetRecommendationMetrics(c.Request.Context(), startDate, endDate, algorithmVersion)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch recommendation metrics")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "ANALYTICS_FAILED",
				"message": "Failed to fetch recommendation metrics",
			},
		})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// GetUserBehavior reports a user's interaction summary and engagement score.
func (h *AnalyticsHandler) GetUserBehavior(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid user ID format",
			},
		})
		return
	}

	behavior, err := h.service.GetUserBehavior(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to fetch user behavior")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "ANALYTICS_FAILED",
				"message": "Failed to fetch user behavior",
			},
		})
		return
	}

	c.JSON(http.StatusOK, behavior)
}
