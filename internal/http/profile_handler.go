package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"convo-cafe/internal/domain"
	"convo-cafe/internal/repository"
	"convo-cafe/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger *zap.Logger
	users  repository.UserRepository
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, users repository.UserRepository) *UserHandler {
	return &UserHandler{logger: logger, users: users}
}

// CreateUser maneja POST /users.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Nickname string `json:"nickname"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Nickname:  req.Nickname,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// ProfileHandler mantiene dependencias para endpoints de perfiles comunitarios.
type ProfileHandler struct {
	logger     *zap.Logger
	profiles   repository.ProfileRepository
	similarity *service.SimilarityService
}

// NewProfileHandler crea una instancia de ProfileHandler con dependencias necesarias.
func NewProfileHandler(logger *zap.Logger, profiles repository.ProfileRepository, similarity *service.SimilarityService) *ProfileHandler {
	return &ProfileHandler{
		logger:     logger,
		profiles:   profiles,
		similarity: similarity,
	}
}

// UpsertProfile maneja PUT /communities/:communityID/profiles.
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	communityID := c.Param("communityID")
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Bio    string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid upsert profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	now := time.Now().UTC()
	profile := domain.Profile{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		CommunityID: communityID,
		Bio:         req.Bio,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.profiles.Upsert(c.Request.Context(), profile); err != nil {
		h.logger.Error("upsert profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save profile"})
		return
	}

	// Toda escritura de perfil invalida el cache de similitud del usuario.
	h.similarity.InvalidateUserCache(c.Request.Context(), req.UserID, communityID)

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetProfile maneja GET /communities/:communityID/profiles/:userID.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	communityID := c.Param("communityID")
	userID := c.Param("userID")

	profile, err := h.profiles.GetByUserAndCommunity(c.Request.Context(), userID, communityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// AppendResonance maneja POST /communities/:communityID/profiles/:userID/resonance.
func (h *ProfileHandler) AppendResonance(c *gin.Context) {
	communityID := c.Param("communityID")
	userID := c.Param("userID")

	var req struct {
		Text    string   `json:"text" binding:"required"`
		Weather string   `json:"weather"`
		Energy  *float64 `json:"energy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resonance request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Energy != nil && (*req.Energy < 0 || *req.Energy > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "energy must be between 0 and 100"})
		return
	}

	entry := domain.ResonanceEntry{
		Text:      req.Text,
		Weather:   req.Weather,
		Energy:    req.Energy,
		Timestamp: time.Now().UTC(),
	}

	if err := h.profiles.AppendResonance(c.Request.Context(), userID, communityID, entry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("append resonance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save resonance"})
		return
	}

	// Toda resonancia nueva invalida el cache de similitud del usuario.
	h.similarity.InvalidateUserCache(c.Request.Context(), userID, communityID)

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}
