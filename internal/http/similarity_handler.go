package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"convo-cafe/internal/service"
)

// SimilarityHandler mantiene dependencias para endpoints del motor de similitud.
type SimilarityHandler struct {
	logger     *zap.Logger
	similarity *service.SimilarityService
}

// NewSimilarityHandler crea una instancia de SimilarityHandler con dependencias necesarias.
func NewSimilarityHandler(logger *zap.Logger, similarity *service.SimilarityService) *SimilarityHandler {
	return &SimilarityHandler{logger: logger, similarity: similarity}
}

// GetSimilarProfiles maneja GET /communities/:communityID/profiles/:userID/similar.
func (h *SimilarityHandler) GetSimilarProfiles(c *gin.Context) {
	communityID := c.Param("communityID")
	userID := c.Param("userID")

	maxResults := 0
	if raw := c.Query("max"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max must be a positive integer"})
			return
		}
		maxResults = parsed
	}

	result, err := h.similarity.GetSimilarProfiles(c.Request.Context(), userID, communityID, maxResults)
	if err != nil {
		if errors.Is(err, service.ErrUserNotInCommunity) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user has no qualifying profile in this community"})
			return
		}
		h.logger.Error("get similar profiles failed", zap.Error(err), zap.String("user_id", userID), zap.String("community_id", communityID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute similar profiles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"similar_profiles":    result.SimilarProfiles,
		"from_cache":          result.FromCache,
		"calculation_time_ms": result.CalculationTime.Milliseconds(),
	})
}

// WarmUpCache maneja POST /communities/:communityID/cache/warmup.
func (h *SimilarityHandler) WarmUpCache(c *gin.Context) {
	communityID := c.Param("communityID")

	var req struct {
		TopUsers int `json:"top_users"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("invalid warmup request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	if err := h.similarity.WarmUpCache(c.Request.Context(), communityID, req.TopUsers); err != nil {
		h.logger.Error("cache warmup failed", zap.Error(err), zap.String("community_id", communityID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not warm up cache"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "warmed"})
}

// InvalidateCommunity maneja DELETE /communities/:communityID/cache.
func (h *SimilarityHandler) InvalidateCommunity(c *gin.Context) {
	communityID := c.Param("communityID")
	h.similarity.InvalidateCommunityCache(c.Request.Context(), communityID)
	c.Status(http.StatusNoContent)
}

// CacheStats maneja GET /cache/stats.
func (h *SimilarityHandler) CacheStats(c *gin.Context) {
	stats := h.similarity.GetCacheStats(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
